package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/pipeline"
	"github.com/matzehuels/scalebar/pkg/preview"
	"github.com/matzehuels/scalebar/pkg/session"
	"github.com/matzehuels/scalebar/pkg/settings"
	"github.com/matzehuels/scalebar/pkg/task"
)

type previewOptions struct {
	task        string
	mode        string
	out         string
	interactive bool
	watch       bool
}

func (c *CLI) previewCommand() *cobra.Command {
	var opts previewOptions

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a reduced-size preview of a queued image",
		Long: `Render one queued image at preview size, with its scale bar (processed)
or without (original), and write it as PNG.

With -i, browse the queue in the terminal: the preview is drawn with block
characters and re-rendered as you change magnification, alignment or
margins. With --watch, the preview is re-rendered whenever the image file
changes on disk.`,
		Example: `  scalebar preview --task 2 --out check.png
  scalebar preview --mode original
  scalebar preview -i --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.task, "task", "t", "1", "task position or ID")
	cmd.Flags().StringVar(&opts.mode, "mode", string(pipeline.ModeProcessed), "original or processed")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output PNG (default <name>_preview.png in the current directory)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse the queue in a terminal UI")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "re-render when the image changes")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, opts previewOptions) error {
	mode, err := pipeline.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	cfg, settingsStore, err := c.loadSettings()
	if err != nil {
		return err
	}
	q, store, err := c.loadQueue(ctx)
	if err != nil {
		return err
	}
	if q.Len() == 0 {
		printInfo("Queue is empty")
		printNextStep("Add images with", "scalebar add <image>...")
		return nil
	}
	t, err := q.Resolve(opts.task)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	if opts.interactive {
		return c.runPreviewTUI(ctx, runner, cfg, settingsStore, q, store, t, mode, opts)
	}

	out := opts.out
	if out == "" {
		out = previewPath(t)
	}
	req := pipeline.NewPreviewRequest(t, cfg.ScaleBarLeftMargin, cfg.ScaleBarBottomMargin, mode, cfg.PreviewWidth)

	if !opts.watch {
		p, err := runner.Preview(ctx, req)
		if err != nil {
			return err
		}
		return writePreview(out, t, mode, p)
	}
	return c.watchPreview(ctx, runner, t, req, out)
}

func previewPath(t task.Task) string {
	name := t.Name()
	return strings.TrimSuffix(name, filepath.Ext(name)) + "_preview.png"
}

func writePreview(out string, t task.Task, mode pipeline.Mode, p *pipeline.Preview) error {
	if err := os.WriteFile(out, p.Data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "write %s", out)
	}
	status := "fresh"
	if p.Cached {
		status = "cached"
	}
	printSuccess("%s preview of %s %s", mode, t.Name(), StyleDim.Render(fmt.Sprintf("%dx%d · %s", p.Width, p.Height, status)))
	printFile(out)
	return nil
}

// watchPreview re-renders req whenever its image changes, until ctx ends.
func (c *CLI) watchPreview(ctx context.Context, runner *pipeline.Runner, t task.Task, req pipeline.PreviewRequest, out string) error {
	w, err := watchImages(t.ImagePath)
	if err != nil {
		return err
	}
	defer w.Close()

	ctrl := preview.New(runner.Preview, func(r preview.Result) {
		if r.Err != nil {
			printError("%s", errors.UserMessage(r.Err))
			return
		}
		if err := writePreview(out, t, r.Request.Mode, r.Preview); err != nil {
			printError("%s", errors.UserMessage(err))
		}
	}, preview.WithLogger(c.Logger))
	defer ctrl.Close()

	ctrl.Trigger(req)
	printInfo("Watching %s %s", t.ImagePath, StyleDim.Render("(Ctrl+C to stop)"))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if sameFile(ev.Name, t.ImagePath) && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				c.Logger.Debug("image changed", "path", ev.Name, "op", ev.Op)
				ctrl.Trigger(req)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watch error", "err", err)
		}
	}
}

// watchImages watches the directories holding paths. Directories are
// watched rather than files so that editors replacing a file on save are
// still seen.
func watchImages(paths ...string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start watcher: %w", err)
	}
	seen := make(map[string]bool)
	for _, p := range paths {
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, errors.Wrap(errors.ErrCodePathMissing, err, "watch %s", dir)
		}
	}
	return w, nil
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// saveMargins returns a callback that stores scale-bar margins in the
// settings document, keeping every other field as currently stored.
func saveMargins(s *settings.Store) func(left, bottom int) error {
	return func(left, bottom int) error {
		cfg := s.Load()
		cfg.ScaleBarLeftMargin = left
		cfg.ScaleBarBottomMargin = bottom
		return s.Save(cfg)
	}
}

func (c *CLI) runPreviewTUI(ctx context.Context, runner *pipeline.Runner, cfg settings.AppConfig, settingsStore *settings.Store, q *task.Queue, store session.Store, current task.Task, mode pipeline.Mode, opts previewOptions) error {
	// The alternate screen owns the terminal; log lines would corrupt it.
	c.Logger.SetOutput(io.Discard)
	defer c.Logger.SetOutput(os.Stderr)

	var prog *tea.Program
	ctrl := preview.New(runner.Preview, func(r preview.Result) {
		prog.Send(previewMsg(r))
	}, preview.WithLogger(c.Logger))
	defer ctrl.Close()

	m := newPreviewModel(previewModelConfig{
		Tasks:        q.Tasks(),
		Current:      current.ID,
		Mode:         mode,
		MarginLeft:   cfg.ScaleBarLeftMargin,
		MarginBottom: cfg.ScaleBarBottomMargin,
		Width:        cfg.PreviewWidth,
		Out:          opts.out,
		Controller:   ctrl,
		Save: func(tasks []task.Task) error {
			for _, t := range tasks {
				if _, err := q.Update(t.ID, func(dst *task.Task) error {
					dst.Magnification = t.Magnification
					dst.Alignment = t.Alignment
					return nil
				}); err != nil {
					return err
				}
			}
			return store.Save(ctx, q)
		},
		SaveMargins: saveMargins(settingsStore),
	})

	if opts.watch {
		paths := make([]string, 0, q.Len())
		for _, t := range q.Tasks() {
			paths = append(paths, t.ImagePath)
		}
		w, err := watchImages(paths...)
		if err != nil {
			return err
		}
		defer w.Close()
		m.watcher = w
	}

	prog = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if fm, ok := final.(previewModel); ok && (fm.dirty || fm.marginsDirty) {
		printWarning("Unsaved changes were discarded (press s in the browser to save)")
	}
	return nil
}
