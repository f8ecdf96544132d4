package transport

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
)

// Dispatcher keeps the per-event handler sets and status observers shared by
// Transport implementations. Empty handler sets are removed on unsubscribe.
type Dispatcher struct {
	handlers map[string]map[uint64]Handler
	status   map[uint64]StatusHandler
	logger   *slog.Logger
	nextID   uint64
	mu       sync.RWMutex
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]map[uint64]Handler),
		status:   make(map[uint64]StatusHandler),
		logger:   logger,
	}
}

// Subscribe registers handler for event. The returned func is idempotent.
func (d *Dispatcher) Subscribe(event string, handler Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID

	set, ok := d.handlers[event]
	if !ok {
		set = make(map[uint64]Handler)
		d.handlers[event] = set
	}
	set[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()

			set, ok := d.handlers[event]
			if !ok {
				return
			}
			delete(set, id)
			if len(set) == 0 {
				delete(d.handlers, event)
			}
		})
	}
}

// OnStatusChange registers a status observer. The returned func is idempotent.
func (d *Dispatcher) OnStatusChange(handler StatusHandler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.status[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.status, id)
		})
	}
}

// Dispatch invokes every handler of event in subscription order.
// Handlers are called without holding the dispatcher lock.
func (d *Dispatcher) Dispatch(event string, payload json.RawMessage) {
	d.mu.RLock()
	set := d.handlers[event]
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, set[id])
	}
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.logger.Debug("No handlers for inbound message", "event", event)
		return
	}

	for _, h := range handlers {
		d.safeCall(event, func() { h(payload) })
	}
}

// EmitStatus notifies every status observer.
func (d *Dispatcher) EmitStatus(status Status) {
	d.mu.RLock()
	ids := make([]uint64, 0, len(d.status))
	for id := range d.status {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]StatusHandler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, d.status[id])
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		d.safeCall("status", func() { h(status) })
	}
}

// HandlerCount returns the number of handlers registered for event.
func (d *Dispatcher) HandlerCount(event string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.handlers[event])
}

// EventCount returns the number of events with at least one handler.
func (d *Dispatcher) EventCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.handlers)
}

func (d *Dispatcher) safeCall(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Handler panicked", "event", event, "panic", r)
		}
	}()
	fn()
}
