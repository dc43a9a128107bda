package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"grimm.is/directroute/internal/logging"
)

// StatusFunc returns a JSON-serializable snapshot for /status.
type StatusFunc func() any

// Server exposes /metrics and, when a StatusFunc is set, /status.
type Server struct {
	Addr   string
	Path   string
	Status StatusFunc

	registry *Registry
	logger   *logging.Logger
}

// NewServer creates a metrics server for r.
func NewServer(r *Registry, addr, path string) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{
		Addr:     addr,
		Path:     path,
		registry: r,
		logger:   logging.WithComponent("metrics"),
	}
}

// Mux builds the handler tree.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(s.Path, s.registry.Handler())
	if s.Status != nil {
		mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
				s.logger.Warn("status encode failed", "error", err)
			}
		})
	}
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("metrics endpoint listening", "addr", ln.Addr().String(), "path", s.Path)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
