// Package app wires the sync server: storage, the WebSocket hub, middleware
// and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/opsync/internal/clock"
	"github.com/iudanet/opsync/internal/config"
	"github.com/iudanet/opsync/internal/server/handlers"
	"github.com/iudanet/opsync/internal/server/middleware"
	"github.com/iudanet/opsync/internal/server/storage/sqlite"
	"github.com/iudanet/opsync/internal/server/ws"
)

const shutdownTimeout = 10 * time.Second

// Server owns every long-lived server component.
type Server struct {
	logger  *slog.Logger
	store   *sqlite.Storage
	hub     *ws.Hub
	limiter *middleware.RateLimiter // nil если лимит отключен
	http    *http.Server
}

// New opens the database and builds the HTTP stack for cfg.
func New(ctx context.Context, cfg config.ServerConfig, version string, logger *slog.Logger) (*Server, error) {
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	clk := clock.New()
	s := &Server{
		logger: logger,
		store:  store,
		hub:    ws.NewHub(logger, store, clk),
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, clk, logger)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:  logger,
		Health:  handlers.NewHealthHandler(logger, version, store, s.hub),
		Hub:     s.hub,
		Limiter: s.limiter,
	})
	s.http = handlers.NewHTTPServer(cfg.Addr, router)

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe listens on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully: WebSocket clients are closed first, in-flight requests get
// shutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server", "clients", s.hub.ClientCount())
	// upgraded соединения Shutdown не отслеживает
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	<-errCh

	s.logger.Info("Server stopped")
	return nil
}

// Close releases the hub, the rate limiter and the database.
func (s *Server) Close() error {
	s.hub.Close()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
