// Package api serves the task graph over HTTP with JSON bodies.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aristath/todograph/internal/config"
	"github.com/aristath/todograph/internal/logging"
	"github.com/aristath/todograph/internal/service"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second

	// maxBodyBytes bounds request bodies; payloads are a handful of fields.
	maxBodyBytes = 64 << 10
)

// Server exposes a Service over HTTP.
type Server struct {
	svc        *service.Service
	cfg        config.ServerConfig
	httpServer *http.Server
}

// NewServer creates a server for the service.
func NewServer(svc *service.Service, cfg config.ServerConfig) *Server {
	return &Server{svc: svc, cfg: cfg}
}

// Handler returns the routed handler wrapped in request-id, logging and
// recovery middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/todos", s.listTodos)
	mux.HandleFunc("POST /api/todos", s.createTodo)
	mux.HandleFunc("GET /api/todos/critical-path", s.criticalPath)
	mux.HandleFunc("GET /api/todos/{id}", s.getTodo)
	mux.HandleFunc("DELETE /api/todos/{id}", s.deleteTodo)
	mux.HandleFunc("POST /api/todos/{id}/image", s.refreshImage)
	mux.HandleFunc("POST /api/todos/{id}/dependencies", s.addDependency)
	mux.HandleFunc("DELETE /api/todos/{id}/dependencies", s.removeDependency)
	mux.HandleFunc("GET /api/graph/check", s.checkGraph)

	return withRequestID(withAccessLog(withRecover(mux)))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: config.Duration(s.cfg.ReadHeaderTimeout, DefaultReadHeaderTimeout),
		IdleTimeout:       DefaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("HTTP", "listening on %s", ln.Addr())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logging.Info("HTTP", "shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
