package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	b := NoopBatchHooks{}
	b.OnBatchStart(ctx, 3)
	b.OnTaskStart(ctx, 0, 3, "/data/cell.png")
	b.OnTaskComplete(ctx, 0, 3, "/data/cell.png", time.Second, nil)
	b.OnBatchComplete(ctx, 3, 0, time.Second)

	p := NoopPreviewHooks{}
	p.OnPreviewStart(ctx, "/data/cell.png", "processed")
	p.OnPreviewComplete(ctx, "/data/cell.png", "processed", true, time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "preview")
	c.OnCacheMiss(ctx, "preview")
	c.OnCacheSet(ctx, "preview", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Batch().(NoopBatchHooks); !ok {
		t.Error("Batch() should return NoopBatchHooks by default")
	}
	if _, ok := Preview().(NoopPreviewHooks); !ok {
		t.Error("Preview() should return NoopPreviewHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customBatch := &testBatchHooks{}
	SetBatchHooks(customBatch)
	if Batch() != customBatch {
		t.Error("SetBatchHooks should set custom hooks")
	}

	customPreview := &testPreviewHooks{}
	SetPreviewHooks(customPreview)
	if Preview() != customPreview {
		t.Error("SetPreviewHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Batch().(NoopBatchHooks); !ok {
		t.Error("Reset() should restore NoopBatchHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testBatchHooks{}
	SetBatchHooks(custom)
	SetBatchHooks(nil)

	if Batch() != custom {
		t.Error("SetBatchHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testBatchHooks struct{ NoopBatchHooks }
type testPreviewHooks struct{ NoopPreviewHooks }
type testCacheHooks struct{ NoopCacheHooks }
