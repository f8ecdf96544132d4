package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/opsync/pkg/api"
)

// client is one WebSocket connection of the hub.
type client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan *api.Envelope
	id        string
	closeOnce sync.Once
}

// enqueue puts env into the send buffer without blocking.
// Must be called with hub.mu held (read or write).
func (c *client) enqueue(env *api.Envelope) bool {
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// reply sends a message back to this client only.
func (c *client) reply(event string, payload any) {
	env, err := api.NewEnvelope(event, payload)
	if err != nil {
		c.hub.logger.Error("Failed to encode reply", "client_id", c.id, "event", event, "error", err)
		return
	}

	c.hub.mu.RLock()
	registered := c.hub.clients[c.id] == c
	ok := registered && c.enqueue(env)
	c.hub.mu.RUnlock()

	if registered && !ok {
		c.hub.logger.Warn("Send buffer full, dropping client", "client_id", c.id)
		c.hub.unregister(c)
	}
}

// readPump reads envelopes until the connection fails, then unregisters the client.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var env api.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("WebSocket read failed", "client_id", c.id, "error", err)
			}
			return
		}
		c.hub.handle(c, &env)
	}
}

// writePump drains the send buffer. It owns all writes to the connection.
func (c *client) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for env := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(env); err != nil {
			c.hub.logger.Debug("WebSocket write failed", "client_id", c.id, "error", err)
			c.hub.unregister(c)
			return
		}
	}

	// канал закрыт hub'ом: вежливо закрываем соединение
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
