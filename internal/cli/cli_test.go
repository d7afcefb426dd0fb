package cli

import (
	"context"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/session"
	"github.com/matzehuels/scalebar/pkg/task"
)

type workspace struct {
	dir    string
	config string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv(envRedisAddr, "")
	t.Setenv(envMongoURI, "")
	return workspace{dir: dir, config: filepath.Join(dir, "settings.json")}
}

func (w workspace) image(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(w.dir, name)
	if err := imaging.Save(imaging.New(320, 240, color.Black), path); err != nil {
		t.Fatal(err)
	}
	return path
}

func (w workspace) exec(args ...string) error {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append(args, "--config", w.config))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func (w workspace) queue(t *testing.T) []task.Task {
	t.Helper()
	s, err := session.NewFileStore(filepath.Join(w.dir, "queue.json"))
	if err != nil {
		t.Fatal(err)
	}
	q, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return q.Tasks()
}

func TestQueueCommands(t *testing.T) {
	w := newWorkspace(t)
	a := w.image(t, "a.png")
	b := w.image(t, "b.png")

	if err := w.exec("add", a, b, "-m", "57"); err != nil {
		t.Fatalf("add error = %v", err)
	}
	tasks := w.queue(t)
	if len(tasks) != 2 || tasks[0].Magnification.Ratio != 57 || tasks[1].ImagePath != b {
		t.Fatalf("queue after add = %+v", tasks)
	}

	// One bad extension rejects the whole drop.
	if err := w.exec("add", a, filepath.Join(w.dir, "notes.txt")); err == nil {
		t.Error("add with a .txt file succeeded")
	}
	if got := len(w.queue(t)); got != 2 {
		t.Errorf("queue length after rejected add = %d, want 2", got)
	}

	if err := w.exec("set", "2", "-a", "right"); err != nil {
		t.Fatalf("set error = %v", err)
	}
	if got := w.queue(t)[1].Alignment; got != overlay.AlignRight {
		t.Errorf("alignment after set = %v, want right", got)
	}

	if err := w.exec("set", "1", "-m", "58"); err == nil {
		t.Error("set to a non-catalog magnification succeeded")
	}

	if err := w.exec("remove", "1"); err != nil {
		t.Fatalf("remove error = %v", err)
	}
	tasks = w.queue(t)
	if len(tasks) != 1 || tasks[0].ImagePath != b {
		t.Errorf("queue after remove = %+v", tasks)
	}

	if err := w.exec("clear"); err != nil {
		t.Fatalf("clear error = %v", err)
	}
	if got := len(w.queue(t)); got != 0 {
		t.Errorf("queue length after clear = %d", got)
	}
}

func TestRunCommand(t *testing.T) {
	w := newWorkspace(t)
	a := w.image(t, "a.png")
	out := filepath.Join(w.dir, "out")

	if err := w.exec("config", "set", "font.allowFallback", "true"); err != nil {
		t.Fatalf("config set error = %v", err)
	}
	if err := w.exec("add", a, "-o", out); err != nil {
		t.Fatalf("add error = %v", err)
	}
	report := filepath.Join(w.dir, "report.yaml")
	if err := w.exec("run", "--no-cache", "--report", report); err != nil {
		t.Fatalf("run error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(out, "a_ScaleBar.png")); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if _, err := os.Stat(report); err != nil {
		t.Errorf("report not written: %v", err)
	}
	if got := len(w.queue(t)); got != 0 {
		t.Errorf("queue length after successful run = %d, want 0", got)
	}
}

func TestPreviewCommand(t *testing.T) {
	w := newWorkspace(t)
	a := w.image(t, "a.png")

	if err := w.exec("config", "set", "font.allowFallback", "true"); err != nil {
		t.Fatal(err)
	}
	if err := w.exec("add", a); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(w.dir, "check.png")
	if err := w.exec("preview", "--out", out, "--no-cache"); err != nil {
		t.Fatalf("preview error = %v", err)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 320 {
		t.Errorf("preview width = %d, want 320", img.Bounds().Dx())
	}

	if err := w.exec("preview", "--mode", "sketch"); err == nil {
		t.Error("preview with an unknown mode succeeded")
	}
	if err := w.exec("preview", "--task", "5"); err == nil {
		t.Error("preview of a missing task succeeded")
	}
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	w := newWorkspace(t)
	if err := w.exec("config", "set", "colour", "red"); err == nil {
		t.Error("config set with an unknown key succeeded")
	}
}
