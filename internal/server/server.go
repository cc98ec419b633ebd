// Package server exposes RepoMind sessions over an HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/repomind/repomind/core"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/logger"
	"github.com/repomind/repomind/internal/ollama"
	"golang.org/x/time/rate"
)

// Inference is what the HTTP API needs from the inference server.
type Inference interface {
	contract.InferenceClient
	Heartbeat(ctx context.Context) error
}

var _ Inference = &ollama.Client{} // Compile-time check

// shutdownTimeout bounds graceful shutdown; streaming chats may be cut short.
const shutdownTimeout = 10 * time.Second

// Server holds the dependencies shared by all handlers.
type Server struct {
	analyzer *core.Analyzer
	client   Inference
	sessions *sessionRegistry
	limiter  *rate.Limiter
	metrics  *Metrics
}

// New creates a Server. ratePerSecond limits analyze requests; its burst is the rounded-up rate.
func New(analyzer *core.Analyzer, client Inference, ratePerSecond float64) *Server {
	burst := max(1, int(math.Ceil(ratePerSecond)))
	return &Server{
		analyzer: analyzer,
		client:   client,
		sessions: newSessionRegistry(),
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		metrics:  NewMetrics(),
	}
}

// Router returns the chi router with every route mounted.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Get("/messages", s.handleMessages)
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/chat", s.handleChat)
		})
	})
	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debugf("HTTP %s %s %d %s %s",
			r.Method,
			r.URL.Path,
			ww.Status(),
			time.Since(start),
			middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Infof("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}

// Serve builds the API from the validated config and serves it until ctx is cancelled.
// It serves as the main entry point for the 'serve' command.
func Serve(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	client, err := ollama.FromConfig(cfg)
	if err != nil {
		return err
	}
	analyzer := core.NewAnalyzer(cfg, core.NewGitClient(cfg), mgr)
	return New(analyzer, client, cfg.RateLimit).ListenAndServe(ctx, cfg.ListenAddr)
}
