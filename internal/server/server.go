// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ppiankov/docstruct/internal/analyze"
	"github.com/ppiankov/docstruct/internal/enrich"
	"github.com/ppiankov/docstruct/internal/model"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server
type Options struct {
	Analyzer *analyze.Analyzer // Required
	Enricher *enrich.Enricher  // nil disables ?enrich=true
	Config   model.ServerConfig
	Logger   *slog.Logger
}

// Server is the HTTP API
type Server struct {
	analyzer *analyze.Analyzer
	enricher *enrich.Enricher
	config   model.ServerConfig
	logger   *slog.Logger
	router   *chi.Mux
}

// New creates a server with its routes registered
func New(opts Options) *Server {
	s := &Server{
		analyzer: opts.Analyzer,
		enricher: opts.Enricher,
		config:   opts.Config,
		logger:   opts.Logger,
	}
	if s.analyzer == nil {
		s.analyzer = analyze.New(analyze.Options{Logger: opts.Logger})
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	s.router = r

	s.RegisterHTTP(r)
	return s
}

// RegisterHTTP registers the API endpoints on r
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/split", s.handleSplit)
		r.Post("/classify", s.handleClassify)
		r.Post("/transcript", s.handleTranscript)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestLogger logs one line per request with slog
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
