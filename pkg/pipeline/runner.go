package pipeline

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scalebar/pkg/cache"
	"github.com/matzehuels/scalebar/pkg/fonts"
	"github.com/matzehuels/scalebar/pkg/history"
	"github.com/matzehuels/scalebar/pkg/overlay"
)

// Runner executes batches and previews with caching.
//
// The Runner holds no per-run state; multiple goroutines can use the same
// Runner concurrently.
type Runner struct {
	Renderer *overlay.Renderer
	Cache    cache.Cache
	Keyer    cache.Keyer
	History  history.Store
	Logger   *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// History defaults to a NullStore; set the field to record runs.
func NewRunner(r *overlay.Renderer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if r == nil {
		r = overlay.NewRenderer(nil, fonts.DefaultSpec(), nil, logger)
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Runner{
		Renderer: r,
		Cache:    c,
		Keyer:    keyer,
		History:  history.NullStore{},
		Logger:   logger,
	}
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var firstErr error
	if r.Cache != nil {
		firstErr = r.Cache.Close()
	}
	if r.History != nil {
		if err := r.History.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Runner) recordHistory(ctx context.Context, rec history.Record) {
	if r.History == nil {
		return
	}
	if err := r.History.Add(context.WithoutCancel(ctx), rec); err != nil {
		r.Logger.Warn("could not record run", "id", rec.ID, "err", err)
	}
}
