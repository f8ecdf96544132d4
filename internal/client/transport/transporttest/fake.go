// Package transporttest provides an in-memory Transport for tests of the
// components that sit on top of the transport.
package transporttest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/iudanet/opsync/internal/client/transport"
)

// Sent is one recorded outbound message.
type Sent struct {
	Payload any
	Event   string
}

// Fake is a TransportMock wired to an in-memory channel state. Status changes,
// inbound deliveries and connect outcomes are driven by the test.
type Fake struct {
	*transport.TransportMock

	dispatcher *transport.Dispatcher
	connectErr error
	status     transport.Status
	sent       []Sent
	failures   int
	mu         sync.Mutex
}

// New creates a disconnected fake transport.
func New() *Fake {
	f := &Fake{
		dispatcher: transport.NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil))),
		status:     transport.StatusDisconnected,
	}

	f.TransportMock = &transport.TransportMock{
		ConnectFunc: f.connect,
		DisconnectFunc: func() {
			f.SetStatus(transport.StatusDisconnected)
		},
		SendFunc: f.send,
		SubscribeFunc: func(event string, handler transport.Handler) func() {
			return f.dispatcher.Subscribe(event, handler)
		},
		OnStatusChangeFunc: func(handler transport.StatusHandler) func() {
			return f.dispatcher.OnStatusChange(handler)
		},
		IsConnectedFunc: func() bool {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.status == transport.StatusConnected
		},
		StatusFunc: func() transport.Status {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.status
		},
		ReconnectAttemptsFunc: func() int {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.failures
		},
	}

	return f
}

// FailConnect makes every following Connect fail with err. nil restores success.
func (f *Fake) FailConnect(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connectErr = err
}

// SetStatus changes the status and notifies observers.
func (f *Fake) SetStatus(status transport.Status) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()

	f.dispatcher.EmitStatus(status)
}

// Deliver simulates an inbound message from the remote peer.
func (f *Fake) Deliver(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	f.dispatcher.Dispatch(event, raw)
}

// Sent returns every message accepted by Send while connected.
func (f *Fake) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Sent, len(f.sent))
	copy(out, f.sent)
	return out
}

// SentEvents returns the event names of accepted messages in send order.
func (f *Fake) SentEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.Event)
	}
	return out
}

// ResetSent forgets recorded messages.
func (f *Fake) ResetSent() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = nil
}

// HandlerCount returns the number of handlers subscribed to event.
func (f *Fake) HandlerCount(event string) int {
	return f.dispatcher.HandlerCount(event)
}

func (f *Fake) connect(ctx context.Context) error {
	f.mu.Lock()
	err := f.connectErr
	if err != nil {
		f.failures++
		f.status = transport.StatusError
	} else {
		f.failures = 0
		f.status = transport.StatusConnected
	}
	status := f.status
	f.mu.Unlock()

	f.dispatcher.EmitStatus(status)
	return err
}

func (f *Fake) send(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != transport.StatusConnected {
		return transport.ErrNotConnected
	}
	f.sent = append(f.sent, Sent{Event: event, Payload: payload})
	return nil
}
