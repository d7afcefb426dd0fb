package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "sub", "history.jsonl"))
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	runs := []Record{
		{ID: "a", Started: base, Finished: base.Add(time.Second), Total: 2, Succeeded: 2, OutputDir: "/out"},
		{ID: "b", Started: base.Add(time.Hour), Finished: base.Add(time.Hour + 3*time.Second), Total: 3, Succeeded: 2, Failed: 1,
			Failures: []Failure{{ImagePath: "/data/2.png", Code: "PATH_MISSING", Message: "2.png no longer exists"}}},
		{ID: "c", Started: base.Add(30 * time.Minute), Total: 1, Succeeded: 1},
	}
	for _, r := range runs {
		if err := s.Add(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].ID != "b" || got[1].ID != "c" || got[2].ID != "a" {
		t.Fatalf("List() order = %v", ids(got))
	}
	if len(got[0].Failures) != 1 || got[0].Failures[0].Code != "PATH_MISSING" {
		t.Errorf("failures = %+v", got[0].Failures)
	}
	if got[0].Duration() != 3*time.Second {
		t.Errorf("Duration() = %v", got[0].Duration())
	}

	if got, _ := s.List(ctx, 2); len(got) != 2 {
		t.Errorf("List(2) returned %d", len(got))
	}
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	doc := `{"id":"ok","total":1}` + "\n" + "garbage\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileStore(path)
	got, err := s.List(context.Background(), 0)
	if err != nil || len(got) != 1 || got[0].ID != "ok" {
		t.Errorf("List() = %v, %v", got, err)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	s, _ := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	got, err := s.List(context.Background(), 10)
	if err != nil || got != nil {
		t.Errorf("List() = %v, %v", got, err)
	}
}

func ids(rs []Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
