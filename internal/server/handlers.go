package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/scalebar/pkg/buildinfo"
	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/magnification"
	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/pipeline"
	"github.com/matzehuels/scalebar/pkg/task"
)

// =============================================================================
// Meta
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

type catalogEntry struct {
	magnification.Option
	DisplayText string  `json:"displayText"`
	Label       string  `json:"label"`
	BarLength   float64 `json:"barLength"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	all := magnification.All()
	out := make([]catalogEntry, len(all))
	for i, o := range all {
		out[i] = catalogEntry{Option: o, DisplayText: o.DisplayText(), Label: o.Label(), BarLength: o.BarLength()}
	}
	s.writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// Settings
// =============================================================================

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, cfg)
}

// handlePutSettings applies {"key": value} pairs using the same keys as
// `scalebar config set`. Either every pair applies or none does.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	for k, v := range body {
		if err := cfg.Set(k, fmt.Sprint(v)); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if err := s.settings.Save(cfg); err != nil {
		s.writeError(w, err)
		return
	}
	s.cfg = cfg
	s.writeJSON(w, http.StatusOK, cfg)
}

// =============================================================================
// Tasks
// =============================================================================

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.queue.Tasks())
}

type importRequest struct {
	Paths []string `json:"paths"`
}

// handleImportTasks is the drop target: the whole list is rejected if any
// path has an unsupported extension or does not exist.
func (s *Server) handleImportTasks(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := task.ValidateDrop(req.Paths); err != nil {
		s.writeError(w, err)
		return
	}
	paths := make([]string, len(req.Paths))
	for i, p := range req.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", p))
			return
		}
		info, err := os.Stat(abs)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodePathMissing, err, "%s does not exist", p))
			return
		}
		if info.IsDir() {
			s.writeError(w, errors.New(errors.ErrCodeInvalidPath, "%s is a directory", p))
			return
		}
		paths[i] = abs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busyLocked(w) {
		return
	}

	tasks := task.NewTasks(paths, s.cfg.ImportDefaults.TaskDefaults())
	if err := s.queue.Add(tasks...); err != nil {
		s.writeError(w, err)
		return
	}
	s.saveQueueLocked(r.Context())
	s.logger.Info("imported images", "count", len(tasks))
	s.writeJSON(w, http.StatusCreated, tasks)
}

func (s *Server) handleClearTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busyLocked(w) {
		return
	}
	s.queue.Clear()
	s.saveQueueLocked(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type updateRequest struct {
	Magnification *int    `json:"magnification"`
	Alignment     *string `json:"alignment"`
	Output        *string `json:"output"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busyLocked(w) {
		return
	}

	t, err := s.queue.Update(chi.URLParam(r, "id"), func(t *task.Task) error {
		if req.Magnification != nil {
			if err := t.SetMagnification(*req.Magnification); err != nil {
				return err
			}
		}
		if req.Alignment != nil {
			a, err := overlay.ParseAlignment(*req.Alignment)
			if err != nil {
				return err
			}
			t.Alignment = a
		}
		if req.Output != nil {
			if err := errors.ValidatePath(*req.Output); err != nil {
				return err
			}
			t.OutputPath = *req.Output
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.saveQueueLocked(r.Context())
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busyLocked(w) {
		return
	}

	if err := s.queue.Remove(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.saveQueueLocked(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type outputDirRequest struct {
	Dir string `json:"dir"`
}

func (s *Server) handleOutputDir(w http.ResponseWriter, r *http.Request) {
	var req outputDirRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busyLocked(w) {
		return
	}

	if err := s.queue.RemapOutputDirectory(req.Dir); err != nil {
		s.writeError(w, err)
		return
	}
	s.saveQueueLocked(r.Context())
	s.writeJSON(w, http.StatusOK, s.queue.Tasks())
}

// =============================================================================
// Preview
// =============================================================================

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	t, ok := s.queue.Find(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no task %q", chi.URLParam(r, "id")))
		return
	}

	q := r.URL.Query()
	mode, err := pipeline.ParseMode(q.Get("mode"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	mL, err := intParam(q.Get("marginLeft"), cfg.ScaleBarLeftMargin)
	if err != nil {
		s.writeError(w, err)
		return
	}
	mB, err := intParam(q.Get("marginBottom"), cfg.ScaleBarBottomMargin)
	if err != nil {
		s.writeError(w, err)
		return
	}
	width, err := intParam(q.Get("width"), cfg.PreviewWidth)
	if err != nil {
		s.writeError(w, err)
		return
	}

	p, err := s.runner.Preview(r.Context(), pipeline.NewPreviewRequest(t, mL, mB, mode, width))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Preview-Cached", strconv.FormatBool(p.Cached))
	w.Header().Set("X-Preview-Size", fmt.Sprintf("%dx%d", p.Width, p.Height))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(p.Data)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%q is not a non-negative integer", v)
	}
	return n, nil
}

// =============================================================================
// Batch
// =============================================================================

type runRequest struct {
	Workers int `json:"workers"`
}

// handleRun processes the queue. The run outlives the request: a client
// disconnecting does not abandon a half-finished batch.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}

	s.mu.Lock()
	if s.busyLocked(w) {
		s.mu.Unlock()
		return
	}
	s.running = true
	cfg := s.cfg
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx := context.WithoutCancel(r.Context())
	report, err := s.runner.RunBatch(ctx, s.queue, pipeline.BatchOptions{
		MarginLeft:   cfg.ScaleBarLeftMargin,
		MarginBottom: cfg.ScaleBarBottomMargin,
		Workers:      req.Workers,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	s.saveQueueLocked(ctx)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), 20)
	if err != nil {
		s.writeError(w, err)
		return
	}
	recs, err := s.runner.History.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recs == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}
	s.writeJSON(w, http.StatusOK, recs)
}

// busyLocked answers 409 while a batch owns the queue. The batch is the
// queue's only writer until it finishes.
func (s *Server) busyLocked(w http.ResponseWriter) bool {
	if !s.running {
		return false
	}
	s.writeJSON(w, http.StatusConflict, errorBody{Code: string(errors.ErrCodeInvalidInput), Message: "a batch is running"})
	return true
}
