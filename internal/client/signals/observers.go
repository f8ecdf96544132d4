// Package signals provides environment signal sources for the reconnection
// controller: network reachability, foreground visibility and user activity.
package signals

import (
	"sort"
	"sync"
)

// observers is a set of handlers keyed by registration order.
type observers[T any] struct {
	handlers map[uint64]func(T)
	nextID   uint64
	mu       sync.Mutex
}

func (o *observers[T]) add(h func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.handlers == nil {
		o.handlers = make(map[uint64]func(T))
	}
	o.nextID++
	id := o.nextID
	o.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.handlers, id)
		})
	}
}

// emit calls handlers in registration order without holding the lock.
func (o *observers[T]) emit(v T) {
	o.mu.Lock()
	ids := make([]uint64, 0, len(o.handlers))
	for id := range o.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	hs := make([]func(T), 0, len(ids))
	for _, id := range ids {
		hs = append(hs, o.handlers[id])
	}
	o.mu.Unlock()

	for _, h := range hs {
		h(v)
	}
}

func (o *observers[T]) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.handlers)
}
