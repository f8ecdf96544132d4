package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/opsync/pkg/api"
)

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	db      Pinger
	clients ClientCounter
	version string
}

// NewHealthHandler создает handler для health check. db и clients могут быть nil.
func NewHealthHandler(logger *slog.Logger, version string, db Pinger, clients ClientCounter) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{
		logger:  logger,
		db:      db,
		clients: clients,
		version: version,
	}
}

// Health обрабатывает GET /api/v1/health.
// 503, если база данных недоступна.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:  api.HealthOK,
		Version: h.version,
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp.Database = "ok"
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error("Health check: database unavailable", "error", err)
			resp.Status = api.HealthDegraded
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	if h.clients != nil {
		resp.Clients = h.clients.ClientCount()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
