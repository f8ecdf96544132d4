// Package ws implements the reference remote peer: a WebSocket hub that
// applies entity operations to the store, confirms or rejects them to the
// sender and broadcasts applied operations to every other connection.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/iudanet/opsync/internal/clock"
	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/pkg/api"
)

//go:generate moq -out store_mock.go . Store

const (
	// sendBuffer размер исходящей очереди одного клиента
	sendBuffer = 256

	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// ErrHubClosed is reported to connections attempted after Close.
var ErrHubClosed = errors.New("hub is closed")

// Store is the entity persistence the hub needs.
type Store interface {
	CreateEntity(ctx context.Context, entity *models.Entity) error
	UpdateEntity(ctx context.Context, entity *models.Entity) error
	DeleteEntity(ctx context.Context, entityType, id, modifiedBy string, at time.Time) error
	ListEntities(ctx context.Context, entityType string) ([]*models.Entity, error)
}

// Hub tracks connected clients and routes their messages.
type Hub struct {
	store    Store
	clock    clock.Clock
	logger   *slog.Logger
	clients  map[string]*client
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	closed   bool
}

// NewHub creates a hub backed by store. A nil clk uses the wall clock.
func NewHub(logger *slog.Logger, store Store, clk clock.Clock) *Hub {
	if clk == nil {
		clk = clock.New()
	}
	return &Hub{
		store:   store,
		clock:   clk,
		logger:  logger,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin не проверяется: аутентификация вне рамок reference-сервера
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and starts the client pumps.
// The optional client_id query parameter names the connection in logs.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		h.logger.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	id := r.URL.Query().Get("client_id")
	if id == "" {
		id = uuid.NewString()
	}

	c := &client{
		id:   id,
		hub:  h,
		conn: conn,
		send: make(chan *api.Envelope, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	if old, ok := h.clients[id]; ok {
		// тот же client_id переподключился: старое соединение больше не нужно
		h.removeLocked(old)
	}
	h.clients[id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Client connected", "client_id", id, "clients", total)

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] != c {
		return
	}
	h.removeLocked(c)
	h.logger.Info("Client disconnected", "client_id", c.id, "clients", len(h.clients))
}

// removeLocked closes the send channel; writePump then closes the connection.
func (h *Hub) removeLocked(c *client) {
	delete(h.clients, c.id)
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// broadcast delivers env to every client except the sender. Clients whose
// buffer is full are disconnected; they resync on reconnect.
func (h *Hub) broadcast(sender *client, env *api.Envelope) {
	var slow []*client

	h.mu.RLock()
	for _, c := range h.clients {
		if c == sender {
			continue
		}
		if !c.enqueue(env) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range slow {
		if h.clients[c.id] == c {
			h.logger.Warn("Dropping slow client", "client_id", c.id)
			h.removeLocked(c)
		}
	}
	h.mu.Unlock()
}
