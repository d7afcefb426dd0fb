package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/history"
	"github.com/matzehuels/scalebar/pkg/observability"
	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/task"
)

// =============================================================================
// Batch Types
// =============================================================================

// BatchOptions configures a batch run. Margins are in full-resolution
// pixels.
type BatchOptions struct {
	MarginLeft   int
	MarginBottom int

	// Workers > 1 processes tasks in parallel when every output path is
	// unique. Otherwise tasks run one at a time in queue order.
	Workers int
}

// TaskOutcome is a task that produced its output.
type TaskOutcome struct {
	TaskID     string        `json:"taskId" yaml:"task_id"`
	ImagePath  string        `json:"imagePath" yaml:"image_path"`
	OutputPath string        `json:"outputPath" yaml:"output_path"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// TaskFailure is a task that did not produce its output.
type TaskFailure struct {
	TaskID     string `json:"taskId" yaml:"task_id"`
	ImagePath  string `json:"imagePath" yaml:"image_path"`
	OutputPath string `json:"outputPath" yaml:"output_path"`
	Code       string `json:"code,omitempty" yaml:"code,omitempty"`
	Message    string `json:"message" yaml:"message"`

	err error
}

// Err returns the underlying error.
func (f TaskFailure) Err() error { return f.err }

// BatchReport is the aggregate result of a batch run.
type BatchReport struct {
	ID        string        `json:"id" yaml:"id"`
	Started   time.Time     `json:"started" yaml:"started"`
	Finished  time.Time     `json:"finished" yaml:"finished"`
	Succeeded []TaskOutcome `json:"succeeded" yaml:"succeeded"`
	Failed    []TaskFailure `json:"failed" yaml:"failed"`

	// Skipped counts tasks never started because the run was cancelled.
	Skipped int `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// OutputDir is set on full success when every output shares one
	// directory.
	OutputDir string `json:"outputDir,omitempty" yaml:"output_dir,omitempty"`
}

// Total returns the number of tasks in the run.
func (r *BatchReport) Total() int {
	return len(r.Succeeded) + len(r.Failed) + r.Skipped
}

// OK reports whether every task succeeded.
func (r *BatchReport) OK() bool {
	return len(r.Failed) == 0 && r.Skipped == 0
}

// Err summarises failures as one error, or nil when every task succeeded.
func (r *BatchReport) Err() error {
	switch {
	case len(r.Failed) > 0:
		return fmt.Errorf("%d of %d tasks failed", len(r.Failed), r.Total())
	case r.Skipped > 0:
		return fmt.Errorf("run cancelled, %d of %d tasks not processed", r.Skipped, r.Total())
	}
	return nil
}

// Duration returns the wall time of the run.
func (r *BatchReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Record converts the report for the history store.
func (r *BatchReport) Record() history.Record {
	rec := history.Record{
		ID:        r.ID,
		Started:   r.Started,
		Finished:  r.Finished,
		Total:     r.Total(),
		Succeeded: len(r.Succeeded),
		Failed:    len(r.Failed),
		Skipped:   r.Skipped,
		OutputDir: r.OutputDir,
	}
	for _, f := range r.Failed {
		rec.Failures = append(rec.Failures, history.Failure{
			ImagePath: f.ImagePath,
			Code:      f.Code,
			Message:   f.Message,
		})
	}
	return rec
}

// =============================================================================
// RunBatch
// =============================================================================

// RunBatch renders every task in q to its output path.
//
// A failing task is logged and reported; the remaining tasks still run.
// Cancelling ctx stops the run before the next task starts; a task already
// in progress always finishes, so no output is left half-written. On full
// success the processed tasks are removed from q. Otherwise q is left as
// it was.
func (r *Runner) RunBatch(ctx context.Context, q *task.Queue, opts BatchOptions) (*BatchReport, error) {
	tasks := q.Tasks()
	if len(tasks) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "queue is empty")
	}

	report := &BatchReport{ID: uuid.NewString(), Started: time.Now()}
	hooks := observability.Batch()
	hooks.OnBatchStart(ctx, len(tasks))

	workers := opts.Workers
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	if workers > 1 {
		if dup := duplicateOutput(tasks); dup != "" {
			r.Logger.Warn("duplicate output path, running sequentially", "path", dup)
			workers = 1
		}
	}

	results := make([]*taskResult, len(tasks))
	if workers <= 1 {
		for i, t := range tasks {
			if ctx.Err() != nil {
				break
			}
			results[i] = r.runTask(ctx, i, len(tasks), t, opts)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, t := range tasks {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				results[i] = r.runTask(ctx, i, len(tasks), t, opts)
				return nil
			})
		}
		_ = g.Wait()
	}

	// Collect in queue order regardless of completion order.
	for i, res := range results {
		switch {
		case res == nil:
			report.Skipped++
		case res.err != nil:
			report.Failed = append(report.Failed, TaskFailure{
				TaskID:     tasks[i].ID,
				ImagePath:  tasks[i].ImagePath,
				OutputPath: tasks[i].OutputPath,
				Code:       string(errors.GetCode(res.err)),
				Message:    errors.UserMessage(res.err),
				err:        res.err,
			})
		default:
			report.Succeeded = append(report.Succeeded, TaskOutcome{
				TaskID:     tasks[i].ID,
				ImagePath:  tasks[i].ImagePath,
				OutputPath: tasks[i].OutputPath,
				Duration:   res.duration,
			})
		}
	}
	report.Finished = time.Now()

	if report.OK() {
		for _, t := range tasks {
			_ = q.Remove(t.ID)
		}
		report.OutputDir = commonDir(report.Succeeded)
	}

	r.Logger.Info("batch finished",
		"succeeded", len(report.Succeeded),
		"failed", len(report.Failed),
		"skipped", report.Skipped,
		"duration", report.Duration())
	hooks.OnBatchComplete(ctx, len(report.Succeeded), len(report.Failed), report.Duration())
	r.recordHistory(ctx, report.Record())

	return report, nil
}

type taskResult struct {
	duration time.Duration
	err      error
}

func (r *Runner) runTask(ctx context.Context, i, total int, t task.Task, opts BatchOptions) *taskResult {
	hooks := observability.Batch()
	hooks.OnTaskStart(ctx, i, total, t.ImagePath)

	start := time.Now()
	err := r.processTask(context.WithoutCancel(ctx), t, opts)
	d := time.Since(start)

	if err != nil {
		r.Logger.Error("task failed", "image", t.Name(), "code", errors.GetCode(err), "err", err)
	} else {
		r.Logger.Debug("task done", "image", t.Name(), "output", t.OutputPath, "duration", d)
	}
	hooks.OnTaskComplete(ctx, i, total, t.ImagePath, d, err)
	return &taskResult{duration: d, err: err}
}

func (r *Runner) processTask(ctx context.Context, t task.Task, opts BatchOptions) error {
	if filepath.Clean(t.OutputPath) == filepath.Clean(t.ImagePath) {
		return errors.New(errors.ErrCodeInvalidPath, "%s: output would overwrite the source", t.Name())
	}

	out, err := r.Renderer.RenderFile(ctx, t.ImagePath, overlay.Params{
		Option:       t.Magnification,
		Alignment:    t.Alignment,
		MarginLeft:   opts.MarginLeft,
		MarginBottom: opts.MarginBottom,
	}, 0)
	if err != nil {
		return err
	}
	defer out.Close()

	return overlay.EncodeFile(t.OutputPath, out)
}

// duplicateOutput returns the first output path used by more than one task.
func duplicateOutput(tasks []task.Task) string {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		p := filepath.Clean(t.OutputPath)
		if seen[p] {
			return t.OutputPath
		}
		seen[p] = true
	}
	return ""
}

// commonDir returns the directory shared by every output, or "".
func commonDir(outcomes []TaskOutcome) string {
	if len(outcomes) == 0 {
		return ""
	}
	dir := filepath.Dir(outcomes[0].OutputPath)
	for _, o := range outcomes[1:] {
		if filepath.Dir(o.OutputPath) != dir {
			return ""
		}
	}
	return dir
}
