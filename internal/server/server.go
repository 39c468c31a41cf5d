// Package server exposes the sheet pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz           liveness and build version
//	POST /api/v1/decklist   decklist text to structured entries
//	POST /api/v1/sheets     deck to a zip of sheet JPEGs plus diagnostics.json
//
// Custom card images travel inline as data URLs; the server never reads
// paths from the local filesystem.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/proxysheet/pkg/config"
	"github.com/matzehuels/proxysheet/pkg/pipeline"
)

const (
	// backlogTimeout is how long a sheet request waits for a free slot.
	backlogTimeout = 30 * time.Second

	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// Options configures a [Server].
type Options struct {
	// Config supplies export defaults and server limits.
	Config config.Config

	Logger *log.Logger
}

// Server serves the HTTP API over one shared pipeline runner.
type Server struct {
	runner *pipeline.Runner
	cfg    config.Config
	logger *log.Logger
	router chi.Router
}

// New creates a server. The runner's resolver should reject file paths
// (see [pipeline.ResolverOptions.InlineOnly]).
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Config.Server.MaxBodyBytes <= 0 {
		opts.Config.Server.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	if opts.Config.Server.MaxConcurrent <= 0 {
		opts.Config.Server.MaxConcurrent = config.DefaultMaxConcurrent
	}
	s := &Server{
		runner: runner,
		cfg:    opts.Config,
		logger: opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limitBody(s.cfg.Server.MaxBodyBytes))
		r.Post("/decklist", s.handleDecklist)
		r.With(middleware.ThrottleBacklog(s.cfg.Server.MaxConcurrent, 4*s.cfg.Server.MaxConcurrent, backlogTimeout)).
			Post("/sheets", s.handleSheets)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
