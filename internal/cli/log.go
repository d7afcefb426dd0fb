// Package cli implements the scalebar command-line interface.
//
// Commands operate on a task queue saved between invocations, so a typical
// session looks like:
//
//	scalebar add cells/*.tiff --magnification 57
//	scalebar set 2 --alignment right
//	scalebar preview --task 2 -i
//	scalebar run --open
//
// # Commands
//
//   - catalog: list calibrated magnifications
//   - add, list, remove, clear, set, output-dir: curate the queue
//   - queue import|export: JSON or TOML queue manifests
//   - run: write every output
//   - preview: render one preview, or browse the queue interactively (-i)
//   - config, cache, history: settings, preview cache, past runs
//   - serve: the HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Processed 4 images (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Batch Progress
// =============================================================================

// batchProgress reports batch hooks on the terminal: a spinner naming the
// task in flight and one status line per finished task.
type batchProgress struct {
	observability.NoopBatchHooks

	mu      sync.Mutex
	spinner *Spinner
	done    int
	total   int
}

func newBatchProgress(ctx context.Context) *batchProgress {
	return &batchProgress{spinner: newSpinnerWithContext(ctx, "Starting...")}
}

func (p *batchProgress) OnBatchStart(_ context.Context, total int) {
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()
	p.spinner.Start()
}

func (p *batchProgress) OnTaskStart(_ context.Context, index, total int, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spinner.SetMessage(fmt.Sprintf("[%d/%d] %s", p.done+1, total, baseName(path)))
}

func (p *batchProgress) OnTaskComplete(_ context.Context, index, total int, path string, d time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.spinner.Pause(func() {
		if err != nil {
			printError("%s %s", baseName(path), StyleDim.Render(errors.UserMessage(err)))
			return
		}
		printSuccess("%s %s", baseName(path), StyleDim.Render(d.Round(time.Millisecond).String()))
	})
}

func (p *batchProgress) OnBatchComplete(context.Context, int, int, time.Duration) {
	p.spinner.Stop()
}
