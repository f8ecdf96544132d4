package sync

import (
	"context"

	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/pkg/api"
)

// enqueueLocked appends op to the offline queue. When the queue is full the
// oldest operation is dropped and counted.
func (e *Engine) enqueueLocked(ctx context.Context, op *models.SyncOperation) {
	if len(e.queue) >= e.opts.QueueCapacity {
		oldest := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.dropped++
		e.logger.Warn("Offline queue full, dropping oldest operation",
			"capacity", e.opts.QueueCapacity,
			"entity_type", oldest.Entity.Type,
			"entity_id", oldest.Entity.ID,
			"operation", oldest.Operation)
	}
	e.queue = append(e.queue, op.Clone())
	e.persistQueueLocked(ctx)
}

func (e *Engine) persistQueueLocked(ctx context.Context) {
	if e.opts.Queue == nil {
		return
	}
	if err := e.opts.Queue.SaveQueue(ctx, e.queue); err != nil {
		e.logger.Error("Failed to persist offline queue", "operations", len(e.queue), "error", err)
	}
}

// QueueLen returns the number of operations waiting for the transport.
func (e *Engine) QueueLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// QueuedOperations returns copies of the queued operations in replay order.
func (e *Engine) QueuedOperations() []*models.SyncOperation {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*models.SyncOperation, 0, len(e.queue))
	for _, op := range e.queue {
		out = append(out, op.Clone())
	}
	return out
}

// Dropped returns how many queued operations were discarded on overflow.
func (e *Engine) Dropped() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// startDrain begins replaying the offline queue. The first operation goes out
// immediately, the rest one per drain delay.
func (e *Engine) startDrain() {
	e.mu.Lock()
	if e.closed || e.draining || len(e.queue) == 0 {
		e.mu.Unlock()
		return
	}
	e.draining = true
	n := len(e.queue)
	e.mu.Unlock()

	e.logger.Info("Draining offline queue", "operations", n)
	e.drainStep()
}

// drainStep sends the head of the queue. The operation leaves the queue only
// after a successful send; a disconnect stops the drain with order preserved.
func (e *Engine) drainStep() {
	ctx := context.Background()

	e.mu.Lock()
	e.drainTimer = nil
	if e.closed || !e.draining {
		e.mu.Unlock()
		return
	}
	if !e.transport.IsConnected() || !e.online() {
		e.draining = false
		e.mu.Unlock()
		e.logger.Info("Drain interrupted, transport unavailable")
		return
	}
	if len(e.queue) == 0 {
		e.draining = false
		e.mu.Unlock()
		return
	}
	op := e.queue[0]
	payload := op.Clone()
	e.mu.Unlock()

	err := e.transport.Send(api.EventForOperation(payload.Operation), payload)

	e.mu.Lock()
	if err != nil {
		e.draining = false
		remaining := len(e.queue)
		e.mu.Unlock()
		e.logger.Info("Drain interrupted", "remaining", remaining, "error", err)
		return
	}
	// голова могла быть вытеснена переполнением, пока шла отправка
	if len(e.queue) > 0 && e.queue[0] == op {
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.persistQueueLocked(ctx)
	}
	if e.closed {
		e.mu.Unlock()
		return
	}
	if len(e.queue) == 0 {
		e.draining = false
		e.mu.Unlock()
		e.logger.Info("Offline queue drained")
		return
	}
	e.drainTimer = e.opts.Clock.AfterFunc(e.opts.DrainDelay, e.drainStep)
	e.mu.Unlock()
}

// rekeyQueueLocked rewrites queued operations that still reference tempID.
func (e *Engine) rekeyQueueLocked(ctx context.Context, entityType, tempID, realID string) {
	changed := false
	for _, op := range e.queue {
		if op.Entity != nil && op.Entity.Type == entityType && op.Entity.ID == tempID {
			op.Entity.ID = realID
			changed = true
		}
	}
	if changed {
		e.persistQueueLocked(ctx)
	}
}
