package sync

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/pkg/api"
)

// TempIDPrefix marks ids generated on the client before the peer assigns a real one.
const TempIDPrefix = "tmp_"

// NewTempID returns a fresh temporary entity id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was generated by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// CreateEntity builds a new entity under a temporary id and sends or queues
// the create operation. With optimistic set the entity is visible in the
// cache before anything goes over the wire. The returned entity is a copy.
func (e *Engine) CreateEntity(ctx context.Context, entityType string, data map[string]any, optimistic bool) (*models.Entity, error) {
	userID := e.userID(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	st, ok := e.states[entityType]
	if !ok {
		e.mu.Unlock()
		return nil, ErrNotInitialized
	}

	now := e.opts.Clock.Now()
	ent := &models.Entity{
		ID:           NewTempID(),
		Type:         entityType,
		Version:      1,
		LastModified: now,
		ModifiedBy:   userID,
		Data:         models.CloneData(data),
	}
	op := &models.SyncOperation{
		Operation: models.OperationCreate,
		Entity:    ent.Clone(),
		Timestamp: now,
		UserID:    userID,
	}
	if optimistic {
		st.applyOptimistic(ent.ID, ent, op)
	}
	send := e.trackLocked(ctx, st, op)
	e.mu.Unlock()

	e.logger.Debug("Entity created",
		"entity_type", entityType,
		"entity_id", ent.ID,
		"optimistic", optimistic,
		"queued", !send)

	if send {
		e.send(ctx, op)
	}
	return ent, nil
}

// UpdateEntity merges partial over the cached value of id, bumps its version
// and sends or queues the update. Fails with *NotFoundError if id is not cached.
func (e *Engine) UpdateEntity(ctx context.Context, entityType, id string, partial map[string]any, optimistic bool) (*models.Entity, error) {
	userID := e.userID(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	st, ok := e.states[entityType]
	if !ok {
		e.mu.Unlock()
		return nil, ErrNotInitialized
	}
	cur, ok := st.data[id]
	if !ok {
		e.mu.Unlock()
		return nil, &NotFoundError{Type: entityType, ID: id}
	}

	now := e.opts.Clock.Now()
	ent := cur.Clone()
	ent.Data = models.MergeData(cur.Data, partial)
	ent.Version++
	ent.LastModified = now
	ent.ModifiedBy = userID
	op := &models.SyncOperation{
		Operation: models.OperationUpdate,
		Entity:    ent.Clone(),
		Timestamp: now,
		UserID:    userID,
	}
	if optimistic {
		st.applyOptimistic(id, ent, op)
	}
	send := e.trackLocked(ctx, st, op)
	e.mu.Unlock()

	e.logger.Debug("Entity updated",
		"entity_type", entityType,
		"entity_id", id,
		"version", ent.Version,
		"optimistic", optimistic,
		"queued", !send)

	if send {
		e.send(ctx, op)
	}
	return ent, nil
}

// DeleteEntity sends or queues the removal of id. With optimistic set the id
// disappears from the cache immediately. Fails with *NotFoundError if id is not cached.
func (e *Engine) DeleteEntity(ctx context.Context, entityType, id string, optimistic bool) error {
	userID := e.userID(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	st, ok := e.states[entityType]
	if !ok {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	cur, ok := st.data[id]
	if !ok {
		e.mu.Unlock()
		return &NotFoundError{Type: entityType, ID: id}
	}

	now := e.opts.Clock.Now()
	ent := cur.Clone()
	ent.LastModified = now
	ent.ModifiedBy = userID
	op := &models.SyncOperation{
		Operation: models.OperationDelete,
		Entity:    ent,
		Timestamp: now,
		UserID:    userID,
	}
	if optimistic {
		st.applyOptimistic(id, nil, op)
	}
	send := e.trackLocked(ctx, st, op)
	e.mu.Unlock()

	e.logger.Debug("Entity deleted",
		"entity_type", entityType,
		"entity_id", id,
		"optimistic", optimistic,
		"queued", !send)

	if send {
		e.send(ctx, op)
	}
	return nil
}

// trackLocked records op as pending and decides whether it goes out now.
// Operations that cannot be sent are appended to the offline queue, and so is
// everything issued while the queue is non-empty, to keep submission order.
func (e *Engine) trackLocked(ctx context.Context, st *entityState, op *models.SyncOperation) bool {
	st.pending = append(st.pending, op.Clone())

	if e.canSendLocked() {
		return true
	}
	e.enqueueLocked(ctx, op)
	return false
}

func (e *Engine) canSendLocked() bool {
	return e.transport.IsConnected() && e.online() && len(e.queue) == 0 && !e.draining
}

// send writes op to the transport. A failed send is a connectivity condition:
// the operation goes to the offline queue instead of surfacing an error.
func (e *Engine) send(ctx context.Context, op *models.SyncOperation) {
	if err := e.transport.Send(api.EventForOperation(op.Operation), op); err != nil {
		e.logger.Debug("Send failed, queueing operation",
			"entity_type", op.Entity.Type,
			"entity_id", op.Entity.ID,
			"error", err)

		e.mu.Lock()
		e.enqueueLocked(ctx, op)
		e.mu.Unlock()
	}
}
