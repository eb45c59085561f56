// Package web serves the generated documentation over HTTP.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pbxtools/pbxdoc/adapters/metrics"
	"github.com/pbxtools/pbxdoc/app"
)

// Server holds the most recent rendered document and serves it. Regenerate
// swaps the document atomically, so readers never see a half-written run.
type Server struct {
	svc     *app.Service
	metrics *metrics.Collector
	logger  zerolog.Logger

	mu          sync.RWMutex
	doc         string
	generatedAt time.Time
	lastErr     error
}

// New creates a server around a generation service. The metrics collector
// may be nil, in which case /metrics is not mounted.
func New(svc *app.Service, m *metrics.Collector, logger zerolog.Logger) *Server {
	return &Server{svc: svc, metrics: m, logger: logger}
}

// Regenerate runs a documentation pass and publishes the result. On failure
// the previous document stays up and the error is reported on /healthz.
func (s *Server) Regenerate(ctx context.Context) error {
	doc, err := s.svc.Generate(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.logger.Error().Err(err).Msg("regeneration failed, keeping previous document")
		return err
	}
	s.doc = doc
	s.generatedAt = time.Now()
	s.lastErr = nil
	return nil
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleDocument)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	doc := s.doc
	generatedAt := s.generatedAt
	s.mu.RUnlock()

	if doc == "" {
		http.Error(w, "documentation not generated yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Last-Modified", generatedAt.UTC().Format(http.TimeFormat))
	w.Write([]byte(doc))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	lastErr := s.lastErr
	haveDoc := s.doc != ""
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	switch {
	case lastErr != nil:
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("last generation failed: " + lastErr.Error() + "\n"))
	case !haveDoc:
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("no document yet\n"))
	default:
		w.Write([]byte("ok\n"))
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
