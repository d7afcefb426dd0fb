package preview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/pipeline"
)

type recorder struct {
	mu      sync.Mutex
	calls   []string
	results chan Result
}

func newRecorder() *recorder {
	return &recorder{results: make(chan Result, 16)}
}

func (r *recorder) render(ctx context.Context, req Request) (*pipeline.Preview, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req.ImagePath)
	r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &pipeline.Preview{Data: []byte(req.ImagePath), Width: 1, Height: 1}, nil
}

func (r *recorder) deliver(res Result) { r.results <- res }

func (r *recorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no preview delivered")
	}
	return Result{}
}

func assertNoResult(t *testing.T, ch <-chan Result, wait time.Duration) {
	t.Helper()
	select {
	case res := <-ch:
		t.Errorf("unexpected result %+v", res)
	case <-time.After(wait):
	}
}

func TestTriggerDebounces(t *testing.T) {
	rec := newRecorder()
	c := New(rec.render, rec.deliver, WithDelay(30*time.Millisecond))
	defer c.Close()

	if c.State() != Idle {
		t.Errorf("initial state = %v", c.State())
	}
	c.Trigger(Request{ImagePath: "a.png"})
	c.Trigger(Request{ImagePath: "b.png"})
	last := c.Trigger(Request{ImagePath: "c.png"})
	if c.State() != Debouncing {
		t.Errorf("state after trigger = %v, want debouncing", c.State())
	}

	res := waitResult(t, rec.results)
	if res.Seq != last || res.Request.ImagePath != "c.png" || string(res.Preview.Data) != "c.png" {
		t.Errorf("result = %+v", res)
	}
	assertNoResult(t, rec.results, 80*time.Millisecond)

	if n := rec.callCount(); n != 1 {
		t.Errorf("render called %d times, want 1", n)
	}
	if c.State() != Displayed {
		t.Errorf("state = %v, want displayed", c.State())
	}
}

func TestTriggerCancelsRunningRender(t *testing.T) {
	started := make(chan struct{}, 4)
	results := make(chan Result, 4)
	var mu sync.Mutex
	var cancelled []string

	render := func(ctx context.Context, req Request) (*pipeline.Preview, error) {
		started <- struct{}{}
		if req.ImagePath == "slow.png" {
			<-ctx.Done()
			mu.Lock()
			cancelled = append(cancelled, req.ImagePath)
			mu.Unlock()
			return nil, ctx.Err()
		}
		return &pipeline.Preview{Data: []byte(req.ImagePath)}, nil
	}
	c := New(render, func(r Result) { results <- r }, WithDelay(time.Millisecond))
	defer c.Close()

	c.Trigger(Request{ImagePath: "slow.png"})
	<-started
	if c.State() != Rendering {
		t.Errorf("state during render = %v", c.State())
	}
	c.Trigger(Request{ImagePath: "fast.png"})

	res := waitResult(t, results)
	if res.Request.ImagePath != "fast.png" || res.Err != nil {
		t.Errorf("result = %+v", res)
	}
	assertNoResult(t, results, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(cancelled) != 1 {
		t.Errorf("cancelled renders = %v", cancelled)
	}
}

func TestMissingImage(t *testing.T) {
	results := make(chan Result, 1)
	render := func(context.Context, Request) (*pipeline.Preview, error) {
		return nil, errors.New(errors.ErrCodePathMissing, "gone.png no longer exists")
	}
	c := New(render, func(r Result) { results <- r }, WithDelay(time.Millisecond))
	defer c.Close()

	c.Trigger(Request{ImagePath: "gone.png"})
	res := waitResult(t, results)
	if res.Preview != nil || !errors.Is(res.Err, errors.ErrCodePathMissing) {
		t.Errorf("result = %+v", res)
	}
	if c.State() != Displayed {
		t.Errorf("state = %v, want displayed", c.State())
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	rec := newRecorder()
	c := New(rec.render, rec.deliver, WithDelay(20*time.Millisecond))

	c.Trigger(Request{ImagePath: "a.png"})
	c.Close()
	assertNoResult(t, rec.results, 60*time.Millisecond)

	if seq := c.Trigger(Request{ImagePath: "b.png"}); seq != 0 {
		t.Errorf("Trigger after Close = %d, want 0", seq)
	}
	if c.State() != Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
	if n := rec.callCount(); n != 0 {
		t.Errorf("render called %d times after Close", n)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Debouncing: "debouncing", Rendering: "rendering", Displayed: "displayed"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q", s, s.String())
		}
	}
}
