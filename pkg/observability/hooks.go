// Package observability provides hooks for metrics, tracing, and progress
// reporting.
//
// Library packages emit events through the registered hooks; front ends
// register implementations at startup. The CLI uses batch hooks to drive its
// progress output; without registration every hook is a no-op.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetBatchHooks(&progress{})
//
// Libraries call hooks to emit events:
//
//	observability.Batch().OnTaskStart(ctx, i, total, t.ImagePath)
//	// ... render and encode ...
//	observability.Batch().OnTaskComplete(ctx, i, total, t.ImagePath, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Batch Hooks
// =============================================================================

// BatchHooks receives events from batch runs. Task indexes are zero-based
// queue positions.
type BatchHooks interface {
	OnBatchStart(ctx context.Context, total int)
	OnTaskStart(ctx context.Context, index, total int, imagePath string)
	OnTaskComplete(ctx context.Context, index, total int, imagePath string, duration time.Duration, err error)
	OnBatchComplete(ctx context.Context, succeeded, failed int, duration time.Duration)
}

// =============================================================================
// Preview Hooks
// =============================================================================

// PreviewHooks receives events from preview rendering.
type PreviewHooks interface {
	OnPreviewStart(ctx context.Context, imagePath, mode string)
	OnPreviewComplete(ctx context.Context, imagePath, mode string, cached bool, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBatchHooks is a no-op implementation of BatchHooks.
type NoopBatchHooks struct{}

func (NoopBatchHooks) OnBatchStart(context.Context, int)                        {}
func (NoopBatchHooks) OnTaskStart(context.Context, int, int, string)            {}
func (NoopBatchHooks) OnBatchComplete(context.Context, int, int, time.Duration) {}
func (NoopBatchHooks) OnTaskComplete(context.Context, int, int, string, time.Duration, error) {
}

// NoopPreviewHooks is a no-op implementation of PreviewHooks.
type NoopPreviewHooks struct{}

func (NoopPreviewHooks) OnPreviewStart(context.Context, string, string) {}
func (NoopPreviewHooks) OnPreviewComplete(context.Context, string, string, bool, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	batchHooks   BatchHooks   = NoopBatchHooks{}
	previewHooks PreviewHooks = NoopPreviewHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetBatchHooks registers custom batch hooks.
func SetBatchHooks(h BatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		batchHooks = h
	}
}

// SetPreviewHooks registers custom preview hooks.
func SetPreviewHooks(h PreviewHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		previewHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Batch returns the registered batch hooks.
func Batch() BatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return batchHooks
}

// Preview returns the registered preview hooks.
func Preview() PreviewHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return previewHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	batchHooks = NoopBatchHooks{}
	previewHooks = NoopPreviewHooks{}
	cacheHooks = NoopCacheHooks{}
}
