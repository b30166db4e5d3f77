// Package graceful serves HTTP until a context ends and then drains it.
package graceful

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server drains in-flight requests, such as webhook deliveries, before returning.
type Server struct {
	httpServer   *http.Server
	log          *slog.Logger
	drainTimeout time.Duration
}

// NewServer wraps srv. drainTimeout bounds how long Shutdown waits for open requests.
func NewServer(log *slog.Logger, srv *http.Server, drainTimeout time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		httpServer:   srv,
		log:          log.With(slog.String("component", "http")),
		drainTimeout: drainTimeout,
	}
}

// ListenAndServe listens on the server address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or serving fails.
// A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	served := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", slog.String("addr", ln.Addr().String()))
		served <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	s.log.Info("draining http server", slog.Duration("timeout", s.drainTimeout))
	if err := s.httpServer.Shutdown(drainCtx); err != nil {
		return err
	}

	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
