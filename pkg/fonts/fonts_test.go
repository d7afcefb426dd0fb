package fonts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gobold"

	"github.com/matzehuels/scalebar/pkg/errors"
)

func notFound(name string) (string, error) {
	return "", fmt.Errorf("cannot find font %q", name)
}

func TestCandidates(t *testing.T) {
	got := Candidates("Arial")
	want := []string{"Arial Bold.ttf", "Arial_Bold.ttf", "Arial-Bold.ttf", "arialbd.ttf", "LiberationSans-Bold.ttf", "Arimo-Bold.ttf"}
	if len(got) != len(want) {
		t.Fatalf("Candidates(Arial) = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := Candidates("Open Sans"); got[1] != "OpenSans_Bold.ttf" || len(got) != 4 {
		t.Errorf("Candidates(Open Sans) = %v", got)
	}
}

func TestResolveUnavailable(t *testing.T) {
	r := &Resolver{faces: map[Spec]*Face{}, find: notFound}

	_, err := r.Resolve(DefaultSpec())
	if !errors.Is(err, errors.ErrCodeFontUnavailable) {
		t.Fatalf("Resolve() error = %v, want FONT_UNAVAILABLE", err)
	}
}

func TestResolveFallback(t *testing.T) {
	r := &Resolver{faces: map[Spec]*Face{}, find: notFound}

	f, err := r.Resolve(Spec{AllowFallback: true})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !f.Fallback || f.Name != FallbackName || !bytes.Equal(f.Data, gobold.TTF) {
		t.Errorf("Resolve() = %+v, want embedded fallback", f.Name)
	}
}

func TestResolveSystemFont(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arialbd.ttf")
	if err := os.WriteFile(path, gobold.TTF, 0o644); err != nil {
		t.Fatal(err)
	}

	var asked []string
	r := &Resolver{faces: map[Spec]*Face{}, find: func(name string) (string, error) {
		asked = append(asked, name)
		if name == "arialbd.ttf" {
			return path, nil
		}
		return notFound(name)
	}}

	f, err := r.Resolve(DefaultSpec())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if f.Name != path || f.Fallback {
		t.Errorf("Resolve() = %q (fallback=%v)", f.Name, f.Fallback)
	}

	// Second call is served from the cache.
	n := len(asked)
	if _, err := r.Resolve(DefaultSpec()); err != nil {
		t.Fatal(err)
	}
	if len(asked) != n {
		t.Errorf("second Resolve() searched again (%d lookups)", len(asked)-n)
	}
}

func TestResolveExplicitPath(t *testing.T) {
	r := &Resolver{faces: map[Spec]*Face{}, find: notFound}

	if _, err := r.Resolve(Spec{Path: filepath.Join(t.TempDir(), "missing.ttf")}); !errors.Is(err, errors.ErrCodeFontUnavailable) {
		t.Errorf("missing explicit path error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "label.ttf")
	if err := os.WriteFile(path, gobold.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := r.Resolve(Spec{Path: path})
	if err != nil || f.Name != path {
		t.Errorf("Resolve(path) = %v, %v", f, err)
	}
}
