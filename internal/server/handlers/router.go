package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/opsync/internal/server/middleware"
	"github.com/iudanet/opsync/pkg/api"
)

// RouterConfig собирает зависимости HTTP слоя сервера
type RouterConfig struct {
	Logger  *slog.Logger
	Health  *HealthHandler
	Hub     http.Handler
	Limiter *middleware.RateLimiter
}

// NewRouter создает chi router:
//
//	GET /api/v1/health — health check (не логируется)
//	GET /ws            — WebSocket endpoint, ограничен по IP
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RecoveryMiddleware(cfg.Logger))
	r.Use(middleware.LoggingWithSkip(cfg.Logger, []string{api.HealthPath}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", cfg.Health.Health)
	})

	r.Group(func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(middleware.RateLimitMiddleware(cfg.Limiter, cfg.Logger))
		}
		r.Get("/ws", cfg.Hub.ServeHTTP)
	})

	return r
}

// NewHTTPServer wraps the router with the server timeouts. WriteTimeout stays
// zero: upgraded WebSocket connections outlive any single request.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
