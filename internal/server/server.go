// Package server exposes the flowview pipeline over HTTP.
//
// Every endpoint takes a definitions document as the request body and view
// options as query parameters:
//
//	POST /api/v1/render?format=svg|json|png|pdf   rendered view
//	POST /api/v1/layout                           positioned graph as JSON
//	POST /api/v1/connectivity?member=ID           highlight state as JSON
//	GET  /healthz
//
// Shared view parameters are root, width, height, scale, highlight,
// hide_disconnected, title and refresh.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowview/pkg/observability"
	"github.com/matzehuels/flowview/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes bounds request bodies when Config leaves it zero.
	DefaultMaxBodyBytes = 4 << 20
	// DefaultRequestTimeout bounds API requests when Config leaves it zero.
	DefaultRequestTimeout = 60 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64

	// RequestTimeout cancels the layout and render of one API request.
	RequestTimeout time.Duration
}

// Server serves the HTTP API.
type Server struct {
	runner     *pipeline.Runner
	logger     *log.Logger
	maxBody    int64
	timeout    time.Duration
	httpServer *http.Server
}

// New creates a server rendering through runner.
func New(runner *pipeline.Runner, cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	s := &Server{
		runner:  runner,
		logger:  logger,
		maxBody: cfg.MaxBodyBytes,
		timeout: cfg.RequestTimeout,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Post("/render", s.handleRender)
		r.Post("/layout", s.handleLayout)
		r.Post("/connectivity", s.handleConnectivity)
	})
	return r
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.Server()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed)
	})
}
