// Package server exposes the analysis session, the watcher and the pick journal over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Vodeneev/easepick/internal/pkg/config"
	"github.com/Vodeneev/easepick/internal/pkg/metrics"
	"github.com/Vodeneev/easepick/internal/pkg/storage"
	"github.com/Vodeneev/easepick/internal/session"
	"github.com/Vodeneev/easepick/internal/watcher"
)

// requestTimeout bounds every API call, including a full fixture load.
const requestTimeout = 2 * time.Minute

type Options struct {
	// Watcher and Journal are optional; their endpoints answer 503 when unset.
	Watcher     *watcher.Watcher
	Journal     storage.PickStorage
	Metrics     *metrics.Metrics
	Diagnostics []config.Diagnostic
}

type Server struct {
	cfg         *config.Config
	session     *session.Session
	watcher     *watcher.Watcher
	journal     storage.PickStorage
	metrics     *metrics.Metrics
	diagnostics []config.Diagnostic
	now         func() time.Time
}

func New(cfg *config.Config, sess *session.Session, opts Options) *Server {
	if opts.Diagnostics == nil {
		opts.Diagnostics = []config.Diagnostic{}
	}
	return &Server{
		cfg:         cfg,
		session:     sess,
		watcher:     opts.Watcher,
		journal:     opts.Journal,
		metrics:     opts.Metrics,
		diagnostics: opts.Diagnostics,
		now:         time.Now,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	origins := s.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		respondText(w, "text/plain; charset=utf-8", "pong\n")
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondText(w, "text/plain; charset=utf-8", "ok\n")
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/load", s.handleLoad)
		r.Get("/fixtures", s.handleFixtures)
		r.Put("/filters", s.handleFilters)
		r.Get("/analysis", s.handleAnalysis)
		r.Get("/analysis/export.csv", s.handleExportCSV)
		r.Get("/analysis/summary", s.handleAnalysisSummary)
		r.Get("/summary", s.handleSummary)
		r.Get("/config/diagnostics", s.handleDiagnostics)

		r.Get("/watcher", s.handleWatcherStatus)
		r.Post("/watcher/start", s.handleWatcherStart)
		r.Post("/watcher/stop", s.handleWatcherStop)
		r.Post("/watcher/run", s.handleWatcherRun)

		r.Get("/journal", s.handleJournal)
	})

	return r
}

// instrument counts requests per route pattern and status.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(route, strconv.Itoa(status))
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		log.Printf("analyzer: http server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
