// Package wstransport implements transport.Transport over a gorilla/websocket
// connection carrying api.Envelope frames.
package wstransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/opsync/internal/client/transport"
	"github.com/iudanet/opsync/pkg/api"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	writeWait               = 10 * time.Second
)

// Client is a WebSocket transport. It never reconnects on its own: the
// reconnection controller decides when Connect is called again.
type Client struct {
	dispatcher *transport.Dispatcher
	dialer     *websocket.Dialer
	conn       *websocket.Conn
	logger     *slog.Logger
	url        string
	status     transport.Status
	failures   int
	mu         sync.Mutex
	writeMu    sync.Mutex
}

// Compile-time check that Client implements transport.Transport
var _ transport.Transport = (*Client)(nil)

// New creates a WebSocket transport for url (ws:// or wss://).
func New(url string, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		logger:     logger,
		dispatcher: transport.NewDispatcher(logger),
		dialer: &websocket.Dialer{
			HandshakeTimeout: defaultHandshakeTimeout,
		},
		status: transport.StatusDisconnected,
	}
}

// Connect dials the server and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.status = transport.StatusConnecting
	c.mu.Unlock()
	c.dispatcher.EmitStatus(transport.StatusConnecting)

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.mu.Lock()
		c.failures++
		c.status = transport.StatusError
		failures := c.failures
		c.mu.Unlock()

		c.logger.Warn("WebSocket dial failed", "url", c.url, "failures", failures, "error", err)
		c.dispatcher.EmitStatus(transport.StatusError)
		return fmt.Errorf("failed to dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.failures = 0
	c.status = transport.StatusConnected
	c.mu.Unlock()

	c.logger.Info("WebSocket connected", "url", c.url)
	go c.readLoop(conn)
	c.dispatcher.EmitStatus(transport.StatusConnected)

	return nil
}

// Disconnect closes the current connection, if any.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	wasOpen := conn != nil || c.status != transport.StatusDisconnected
	c.status = transport.StatusDisconnected
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		_ = conn.Close()
	}

	if wasOpen {
		c.logger.Info("WebSocket disconnected", "url", c.url)
		c.dispatcher.EmitStatus(transport.StatusDisconnected)
	}
}

// Send writes one envelope. Returns transport.ErrNotConnected if the channel is down.
func (c *Client) Send(event string, payload any) error {
	env, err := api.NewEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return transport.ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to write %s: %w", event, err)
	}

	c.logger.Debug("Message sent", "event", event)
	return nil
}

func (c *Client) Subscribe(event string, handler transport.Handler) func() {
	return c.dispatcher.Subscribe(event, handler)
}

func (c *Client) OnStatusChange(handler transport.StatusHandler) func() {
	return c.dispatcher.OnStatusChange(handler)
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status == transport.StatusConnected
}

func (c *Client) Status() transport.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

func (c *Client) ReconnectAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.failures
}

// readLoop dispatches inbound envelopes until the connection fails.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(conn, err)
			return
		}

		var env api.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("Dropping malformed frame", "error", err)
			continue
		}
		c.logger.Debug("Message received", "event", env.Event)
		c.dispatcher.Dispatch(env.Event, env.Payload)
	}
}

func (c *Client) handleReadError(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// соединение уже закрыто через Disconnect
		c.mu.Unlock()
		return
	}
	c.conn = nil
	status := transport.StatusDisconnected
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.CloseNormalClosure {
		status = transport.StatusError
	}
	c.status = status
	c.mu.Unlock()

	_ = conn.Close()
	c.logger.Warn("WebSocket connection lost", "url", c.url, "status", status, "error", err)
	c.dispatcher.EmitStatus(status)
}
