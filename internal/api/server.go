// Package api serves a read-only JSON view of runs, ticker states and
// transitions.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	handler "github.com/kalletarpila/swingmaster/internal/api/handler/api"
	"github.com/kalletarpila/swingmaster/internal/api/middleware"
	"github.com/kalletarpila/swingmaster/internal/metrics"
	"github.com/kalletarpila/swingmaster/internal/storage/state"
)

// Config holds server configuration
type Config struct {
	Addr   string
	APIKey string
}

// Server represents the query API server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// NewServer creates a new query server. reg may be nil.
func NewServer(cfg Config, states state.Store, reg *metrics.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(states, cfg.APIKey)

	var h http.Handler = mux
	if reg != nil {
		h = metrics.HTTPMiddleware(reg)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(states state.Store, apiKey string) {
	auth := middleware.APIKeyAuth(apiKey)
	runs := handler.NewRunsHandler(states)
	tickers := handler.NewTickersHandler(states)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /api/v1/runs", auth(http.HandlerFunc(runs.List)))
	s.mux.Handle("GET /api/v1/tickers/{ticker}", auth(http.HandlerFunc(tickers.Current)))
	s.mux.Handle("GET /api/v1/tickers/{ticker}/days", auth(http.HandlerFunc(tickers.Days)))
	s.mux.Handle("GET /api/v1/tickers/{ticker}/transitions", auth(http.HandlerFunc(tickers.Transitions)))
}

// Handler returns the full middleware chain
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
