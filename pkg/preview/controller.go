// Package preview debounces live preview requests.
//
// A [Controller] sits between a front end (the terminal UI, a file watcher)
// and a render function, typically [pipeline.Runner.Preview]. Each
// [Controller.Trigger] restarts a short timer and cancels whatever was in
// flight; only the newest request is ever rendered to completion and
// delivered.
//
//	c := preview.New(runner.Preview, func(r preview.Result) {
//	    program.Send(previewMsg(r))
//	})
//	defer c.Close()
//	c.Trigger(req)
package preview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scalebar/pkg/pipeline"
)

// DefaultDelay is the debounce interval.
const DefaultDelay = 150 * time.Millisecond

// Request is the preview to render.
type Request = pipeline.PreviewRequest

// RenderFunc renders one preview. It must honor ctx.
type RenderFunc func(ctx context.Context, req Request) (*pipeline.Preview, error)

// State is the controller's position in the preview lifecycle.
type State int

const (
	Idle State = iota
	Debouncing
	Rendering
	Displayed
)

func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Rendering:
		return "rendering"
	case Displayed:
		return "displayed"
	default:
		return "idle"
	}
}

// Result is a delivered preview. Preview is nil when Err is set, e.g. a
// PATH_MISSING error for an image deleted since it was queued.
type Result struct {
	Seq     uint64
	Request Request
	Preview *pipeline.Preview
	Err     error
}

// Option configures a Controller.
type Option func(*Controller)

// WithDelay sets the debounce interval.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller coalesces preview triggers into renders. At most one render
// runs at a time and results are delivered in trigger order; a result
// superseded by a newer trigger is dropped.
type Controller struct {
	render   RenderFunc
	onResult func(Result)
	delay    time.Duration
	logger   *log.Logger

	mu        sync.Mutex
	wg        sync.WaitGroup
	state     State
	seq       uint64
	delivered uint64
	timer     *time.Timer
	cancel    context.CancelFunc
	running   bool
	pending   *job
	closed    bool
}

type job struct {
	seq uint64
	req Request
	ctx context.Context
}

// New creates an idle controller. onResult is called from a background
// goroutine, never concurrently with itself.
func New(render RenderFunc, onResult func(Result), opts ...Option) *Controller {
	c := &Controller{
		render:   render,
		onResult: onResult,
		delay:    DefaultDelay,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Trigger schedules req after the debounce delay, superseding any earlier
// request. It returns the request's sequence number.
func (c *Controller) Trigger(req Request) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}

	c.stopLocked()
	c.seq++
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = Debouncing

	j := job{seq: c.seq, req: req, ctx: ctx}
	c.timer = time.AfterFunc(c.delay, func() { c.fire(j) })
	return j.seq
}

// Close cancels pending work and waits for an in-flight render to return.
// No results are delivered after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopLocked()
	c.pending = nil
	c.state = Idle
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) fire(j job) {
	c.mu.Lock()
	if c.closed || j.seq != c.seq {
		c.mu.Unlock()
		return
	}
	if c.running {
		// Started once the superseded render returns.
		c.pending = &j
		c.mu.Unlock()
		return
	}
	c.running = true
	c.state = Rendering
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()
	c.run(j)
}

func (c *Controller) run(j job) {
	for {
		p, err := c.render(j.ctx, j.req)

		c.mu.Lock()
		c.running = false
		deliver := !c.closed && j.seq == c.seq && j.seq > c.delivered && j.ctx.Err() == nil
		if deliver {
			c.delivered = j.seq
			c.state = Displayed
		}
		var next *job
		if c.pending != nil && !c.closed && c.pending.seq == c.seq {
			next = c.pending
			c.running = true
			c.state = Rendering
		}
		c.pending = nil
		c.mu.Unlock()

		switch {
		case deliver:
			if err != nil {
				c.logger.Debug("preview failed", "image", j.req.ImagePath, "seq", j.seq, "err", err)
				p = nil
			}
			c.onResult(Result{Seq: j.seq, Request: j.req, Preview: p, Err: err})
		case err != nil && !errors.Is(err, context.Canceled):
			c.logger.Debug("dropped stale preview", "image", j.req.ImagePath, "seq", j.seq, "err", err)
		}

		if next == nil {
			return
		}
		j = *next
	}
}
