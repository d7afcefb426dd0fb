// Package history records finished batch runs.
//
// Two stores implement [Store]: [FileStore] appends JSON lines to a file in
// the user data directory, and [MongoStore] writes one document per run to a
// MongoDB collection so several workstations can share a log.
package history

import (
	"context"
	"time"
)

// Record summarises one batch run.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	Started   time.Time `json:"started" bson:"started"`
	Finished  time.Time `json:"finished" bson:"finished"`
	Total     int       `json:"total" bson:"total"`
	Succeeded int       `json:"succeeded" bson:"succeeded"`
	Failed    int       `json:"failed" bson:"failed"`
	Skipped   int       `json:"skipped,omitempty" bson:"skipped,omitempty"`
	OutputDir string    `json:"outputDir,omitempty" bson:"output_dir,omitempty"`
	Failures  []Failure `json:"failures,omitempty" bson:"failures,omitempty"`
}

// Failure is one task that did not produce an output.
type Failure struct {
	ImagePath string `json:"imagePath" bson:"image_path"`
	Code      string `json:"code,omitempty" bson:"code,omitempty"`
	Message   string `json:"message" bson:"message"`
}

// Duration returns how long the run took.
func (r Record) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Store persists run records.
type Store interface {
	// Add appends a record.
	Add(ctx context.Context, r Record) error

	// List returns up to limit records, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Record, error)

	// Close releases the store.
	Close() error
}

// NullStore discards records.
type NullStore struct{}

func (NullStore) Add(context.Context, Record) error           { return nil }
func (NullStore) List(context.Context, int) ([]Record, error) { return nil, nil }
func (NullStore) Close() error                                { return nil }

var _ Store = NullStore{}
