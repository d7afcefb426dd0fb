// Package server exposes the scale-bar workflow over HTTP.
//
// The server owns one workspace: the task queue, the settings document and
// a pipeline.Runner. All handlers share it under a mutex, the same way the
// desktop tool funnels every mutation through its UI thread.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/scalebar/pkg/pipeline"
	"github.com/matzehuels/scalebar/pkg/session"
	"github.com/matzehuels/scalebar/pkg/settings"
	"github.com/matzehuels/scalebar/pkg/task"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Server is the HTTP front end.
type Server struct {
	runner   *pipeline.Runner
	settings *settings.Store
	sessions session.Store
	logger   *log.Logger

	mu      sync.Mutex
	cfg     settings.AppConfig
	queue   *task.Queue
	running bool

	router chi.Router
}

// New creates a server. The queue is loaded from sessions and saved back
// after every change.
func New(ctx context.Context, runner *pipeline.Runner, store *settings.Store, sessions session.Store, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	q, err := sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	s := &Server{
		runner:   runner,
		settings: store,
		sessions: sessions,
		logger:   logger,
		cfg:      store.Load(),
		queue:    q,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Get("/history", s.handleHistory)
		r.Post("/run", s.handleRun)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleImportTasks)
			r.Delete("/", s.handleClearTasks)
			r.Post("/output-dir", s.handleOutputDir)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateTask)
				r.Delete("/", s.handleRemoveTask)
				r.Get("/preview", s.handlePreview)
			})
		})
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// saveQueueLocked persists the queue. Callers hold s.mu.
func (s *Server) saveQueueLocked(ctx context.Context) {
	if err := s.sessions.Save(context.WithoutCancel(ctx), s.queue); err != nil {
		s.logger.Warn("could not save queue", "err", err)
	}
}
