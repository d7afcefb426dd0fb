// Package session keeps the CLI's task queue between invocations.
//
// The desktop tool holds its queue in memory for the lifetime of the window.
// A CLI process exits after every command, so the queue is saved to a small
// JSON document after each mutation and loaded again by the next command:
//
//	store, err := session.NewFileStore("")  // ~/.config/scalebar/queue.json
//	q, err := store.Load(ctx)
//	q.Add(tasks...)
//	err = store.Save(ctx, q)
package session

import (
	"context"
	"time"

	"github.com/matzehuels/scalebar/pkg/task"
)

// Store persists a task queue.
type Store interface {
	// Load returns the saved queue, or an empty queue if none was saved.
	Load(ctx context.Context) (*task.Queue, error)

	// Save replaces the saved queue with q.
	Save(ctx context.Context, q *task.Queue) error

	// Clear removes the saved queue.
	Clear(ctx context.Context) error
}

// document is the on-disk form of a queue.
type document struct {
	SavedAt time.Time   `json:"savedAt"`
	Tasks   []task.Task `json:"tasks"`
}

// MemoryStore keeps the queue in process memory. It is used by the HTTP
// server, which lives as long as its queue.
type MemoryStore struct {
	q *task.Queue
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	q, _ := task.NewQueue()
	return &MemoryStore{q: q}
}

func (s *MemoryStore) Load(context.Context) (*task.Queue, error) { return s.q, nil }

func (s *MemoryStore) Save(_ context.Context, q *task.Queue) error {
	s.q = q
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.q.Clear()
	return nil
}

var _ Store = (*MemoryStore)(nil)
