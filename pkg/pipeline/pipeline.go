// Package pipeline runs the scale-bar workflow: batch processing of a task
// queue and single-image previews.
//
// The CLI, the terminal UI and the HTTP server all go through a [Runner], so
// that caching, logging and hooks behave the same everywhere.
//
// # Usage
//
//	runner := pipeline.NewRunner(renderer, cache, nil, logger)
//
//	// Process the queue
//	report, err := runner.RunBatch(ctx, queue, pipeline.BatchOptions{
//	    MarginLeft:   cfg.ScaleBarLeftMargin,
//	    MarginBottom: cfg.ScaleBarBottomMargin,
//	})
//
//	// Render one preview
//	p, err := runner.Preview(ctx, pipeline.NewPreviewRequest(t, 100, 100, pipeline.ModeProcessed, 512))
package pipeline

import (
	"strings"

	"github.com/matzehuels/scalebar/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultPreviewWidth bounds the decode size of previews.
	DefaultPreviewWidth = 512

	// MaxWorkers caps parallel batch workers.
	MaxWorkers = 16
)

// =============================================================================
// Preview Modes
// =============================================================================

// Mode selects what a preview shows.
type Mode string

const (
	// ModeOriginal shows the source image as stored.
	ModeOriginal Mode = "original"

	// ModeProcessed shows the source with its scale bar.
	ModeProcessed Mode = "processed"
)

// ParseMode parses "original" or "processed". An empty string means
// processed.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeProcessed, "":
		return ModeProcessed, nil
	case ModeOriginal:
		return ModeOriginal, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid preview mode: %q (must be original or processed)", s)
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeOriginal {
		return ModeProcessed
	}
	return ModeOriginal
}
