package task

import (
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/magnification"
)

// Queue is an ordered list of tasks. It is safe for concurrent use; every
// accessor returns copies so callers never alias queue state.
type Queue struct {
	mu    sync.RWMutex
	tasks []Task
}

// NewQueue creates a queue holding tasks.
func NewQueue(tasks ...Task) (*Queue, error) {
	q := &Queue{}
	if err := q.AddAll(tasks); err != nil {
		return nil, err
	}
	return q, nil
}

// Add appends tasks in order. Tasks without an ID get one. The whole call
// fails, adding nothing, if any task carries a magnification that is not a
// catalog entry.
func (q *Queue) Add(tasks ...Task) error {
	return q.AddAll(tasks)
}

// AddAll appends tasks in order. See Add.
func (q *Queue) AddAll(tasks []Task) error {
	for _, t := range tasks {
		if !magnification.Canonical(t.Magnification) {
			return errors.New(errors.ErrCodeInvalidMagnification,
				"%s: magnification %v is not a catalog entry", t.Name(), t.Magnification)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = NewID()
		}
		q.tasks = append(q.tasks, t)
	}
	return nil
}

// Remove deletes the task with id.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.index(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "no task %q", id)
	}
	q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
	return nil
}

// Clear removes every task.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = nil
}

// Len returns the number of tasks.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

// Tasks returns a copy of the tasks in queue order.
func (q *Queue) Tasks() []Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}

// Get returns the task at index i (zero-based).
func (q *Queue) Get(i int) (Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if i < 0 || i >= len(q.tasks) {
		return Task{}, false
	}
	return q.tasks[i], true
}

// Find returns the task with id.
func (q *Queue) Find(id string) (Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if i := q.index(id); i >= 0 {
		return q.tasks[i], true
	}
	return Task{}, false
}

// Resolve finds a task by reference: a one-based position ("2"), a full
// ID, or an unambiguous ID prefix.
func (q *Queue) Resolve(ref string) (Task, error) {
	ref = strings.TrimSpace(ref)

	q.mu.RLock()
	defer q.mu.RUnlock()

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(q.tasks) {
		return q.tasks[n-1], nil
	}

	var match []Task
	for _, t := range q.tasks {
		if t.ID == ref {
			return t, nil
		}
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			match = append(match, t)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return Task{}, errors.New(errors.ErrCodeNotFound, "no task %q", ref)
	default:
		return Task{}, errors.New(errors.ErrCodeInvalidInput, "task reference %q is ambiguous", ref)
	}
}

// Update applies fn to the task with id. Changes are discarded if fn
// returns an error or leaves a non-catalog magnification behind.
func (q *Queue) Update(id string, fn func(*Task) error) (Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.index(id)
	if i < 0 {
		return Task{}, errors.New(errors.ErrCodeNotFound, "no task %q", id)
	}
	t := q.tasks[i]
	if err := fn(&t); err != nil {
		return Task{}, err
	}
	if !magnification.Canonical(t.Magnification) {
		return Task{}, errors.New(errors.ErrCodeInvalidMagnification,
			"%s: magnification %v is not a catalog entry", t.Name(), t.Magnification)
	}
	t.ID = id
	q.tasks[i] = t
	return t, nil
}

// RemapOutputDirectory rewrites every output path to
// {dir}/{basename}_ScaleBar{ext}, keeping task order.
func (q *Queue) RemapOutputDirectory(dir string) error {
	if err := errors.ValidatePath(dir); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.tasks {
		q.tasks[i].OutputPath = OutputPath(q.tasks[i].ImagePath, dir)
	}
	return nil
}

func (q *Queue) index(id string) int {
	for i, t := range q.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
