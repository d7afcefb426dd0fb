package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/magnification"
	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/task"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "queue.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	q, err := s.Load(ctx)
	if err != nil || q.Len() != 0 {
		t.Fatalf("Load() on fresh store = %v, %v", q, err)
	}

	o, _ := magnification.Lookup(150)
	want := []task.Task{
		task.New("/img/a.png", o, overlay.AlignCenter, ""),
		task.New("/img/a.png", magnification.Default(), overlay.AlignRight, "/out"),
	}
	if err := q.Add(want...); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, q); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	tasks := got.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("loaded %d tasks", len(tasks))
	}
	for i := range want {
		if tasks[i] != want[i] {
			t.Errorf("task %d = %+v, want %+v", i, tasks[i], want[i])
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Clear() left the queue file")
	}
	if err := s.Clear(ctx); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileStore(path)
	if _, err := s.Load(context.Background()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load() error = %v, want INVALID_INPUT", err)
	}
}

func TestFileStoreRejectsUncalibratedTask(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	doc := `{"tasks": [{"id": "x", "imagePath": "/a.png", "magnification": {"ratio": 11, "pixelsPerUnit": 1, "scaleBarNanometers": 5}}]}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileStore(path)
	if _, err := s.Load(context.Background()); !errors.Is(err, errors.ErrCodeInvalidMagnification) {
		t.Errorf("Load() error = %v, want INVALID_MAGNIFICATION", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	q, _ := s.Load(ctx)
	_ = q.Add(task.New("/a.png", magnification.Default(), overlay.AlignLeft, ""))

	again, _ := s.Load(ctx)
	if again.Len() != 1 {
		t.Errorf("Len() = %d, want 1", again.Len())
	}
	_ = s.Clear(ctx)
	if q.Len() != 0 {
		t.Error("Clear() left tasks")
	}
}
