package transport

import (
	"context"
	"encoding/json"
	"errors"
)

//go:generate moq -out transport_mock.go . Transport

// Status состояние транспортного канала
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// ErrNotConnected is returned by Send when the channel is down. Callers treat
// it as the trigger for offline queueing, not as a failure.
var ErrNotConnected = errors.New("transport is not connected")

// Handler receives the raw payload of a named inbound message.
type Handler func(payload json.RawMessage)

// StatusHandler receives every status transition of the transport.
type StatusHandler func(status Status)

// Transport opens/closes a bidirectional channel, emits status transitions,
// delivers named messages and accepts named sends. No business logic.
type Transport interface {
	// Connect opens the channel and blocks until it is established or fails
	Connect(ctx context.Context) error

	// Disconnect closes the channel; the transport reports StatusDisconnected
	Disconnect()

	// Send writes a named message. Returns ErrNotConnected if the channel is down
	Send(event string, payload any) error

	// Subscribe registers handler for inbound messages named event
	Subscribe(event string, handler Handler) (unsubscribe func())

	// OnStatusChange registers handler for status transitions
	OnStatusChange(handler StatusHandler) (unsubscribe func())

	IsConnected() bool
	Status() Status

	// ReconnectAttempts returns failed connects since the last successful one
	ReconnectAttempts() int
}
