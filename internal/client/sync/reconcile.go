package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/pkg/api"
)

// handleRemoteOperation applies a created/updated/deleted broadcast. If the
// id has an unconfirmed local change the registered resolver decides the
// value; without one the remote value wins. The optimistic record is
// discarded, never rolled back, on this path.
func (e *Engine) handleRemoteOperation(payload json.RawMessage) {
	op, ok := decode[models.SyncOperation](e, "remote operation", payload)
	if !ok {
		return
	}
	if op.Entity == nil || op.Entity.ID == "" || !op.Operation.Valid() {
		e.logger.Warn("Dropping incomplete remote operation", "operation", op.Operation)
		return
	}
	entityType := op.Entity.Type
	id := op.Entity.ID

	e.mu.Lock()
	st, ok := e.states[entityType]
	if !ok {
		e.mu.Unlock()
		return
	}

	upd, conflict := st.optimistic[id]
	if !conflict {
		applyRemote(st, op)
	} else {
		resolver, hasResolver := e.resolvers[entityType]
		if !hasResolver {
			resolver = RemoteWins
		}
		resolved, err := resolve(resolver, upd.Data, op.Entity, op)
		if err != nil {
			e.logger.Warn("Conflict resolver failed, remote value wins",
				"entity_type", entityType,
				"entity_id", id,
				"error", err)
			st.err = err
			applyRemote(st, op)
		} else if resolved == nil {
			delete(st.data, id)
		} else {
			resolved = resolved.Clone()
			resolved.ID = id
			resolved.Type = entityType
			st.data[id] = resolved
		}
		delete(st.optimistic, id)

		e.logger.Debug("Conflict resolved",
			"entity_type", entityType,
			"entity_id", id,
			"custom_resolver", hasResolver,
			"local_operation", upd.Operation,
			"remote_operation", op.Operation)
	}
	e.mu.Unlock()

	e.notify(entityType, op)
}

func applyRemote(st *entityState, op *models.SyncOperation) {
	if op.Operation == models.OperationDelete {
		delete(st.data, op.Entity.ID)
		return
	}
	st.data[op.Entity.ID] = op.Entity.Clone()
}

// handleSyncResponse replaces the cache of a type with the snapshot.
// Unconfirmed local changes are laid back over the snapshot so the cache keeps
// showing the last applied operation per id.
func (e *Engine) handleSyncResponse(payload json.RawMessage) {
	resp, ok := decode[api.SyncResponse](e, api.EventSyncResponse, payload)
	if !ok {
		return
	}

	e.mu.Lock()
	st, ok := e.states[resp.EntityType]
	if !ok {
		e.mu.Unlock()
		return
	}

	data := make(map[string]*models.Entity, len(resp.Entities))
	for _, ent := range resp.Entities {
		if ent == nil || ent.ID == "" {
			continue
		}
		c := ent.Clone()
		c.Type = resp.EntityType
		data[c.ID] = c
	}
	for id, upd := range st.optimistic {
		if upd.Data == nil {
			delete(data, id)
			continue
		}
		data[id] = upd.Data.Clone()
	}
	st.data = data

	ts := resp.Timestamp
	if ts.IsZero() {
		ts = e.opts.Clock.Now()
	}
	st.lastSync = &ts
	st.loading = false
	st.synced = true
	st.baseline = true
	e.mu.Unlock()

	e.logger.Debug("Full sync applied",
		"entity_type", resp.EntityType,
		"entities", len(resp.Entities),
		"last_sync", ts)

	e.saveLastSync(resp.EntityType, ts)
}

func (e *Engine) saveLastSync(entityType string, ts time.Time) {
	if e.opts.Metadata == nil {
		return
	}
	if err := e.opts.Metadata.SaveLastSync(context.Background(), entityType, ts); err != nil {
		e.logger.Error("Failed to persist last sync", "entity_type", entityType, "error", err)
	}
}

// handleConfirmed settles a local operation. A temporary id is moved to the
// real one in a single step, together with in-flight and queued operations
// that still reference it. If more operations on the id are in flight, the
// confirmed value becomes their rollback point.
func (e *Engine) handleConfirmed(payload json.RawMessage) {
	conf, ok := decode[api.OperationConfirmed](e, api.EventOperationConfirmed, payload)
	if !ok {
		return
	}
	id := conf.RealID
	if id == "" {
		id = conf.TempID
	}
	if id == "" {
		e.logger.Warn("Dropping confirmation without entity id", "entity_type", conf.EntityType)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if conf.TempID != "" && conf.RealID != "" && conf.TempID != conf.RealID {
		e.rekeyQueueLocked(context.Background(), conf.EntityType, conf.TempID, conf.RealID)
	}

	st, ok := e.states[conf.EntityType]
	if !ok {
		return
	}
	if conf.TempID == "" {
		// операция могла уйти под временным ID до подтверждения create
		id = st.resolveID(id)
	}

	if conf.TempID != "" && conf.TempID != id {
		st.aliases[conf.TempID] = id
		if ent, ok := st.data[conf.TempID]; ok {
			delete(st.data, conf.TempID)
			ent.ID = id
			st.data[id] = ent
		}
		if upd, ok := st.optimistic[conf.TempID]; ok {
			delete(st.optimistic, conf.TempID)
			upd.ID = id
			if upd.Data != nil {
				upd.Data.ID = id
			}
			st.optimistic[id] = upd
		}
		st.rekeyPending(conf.TempID, id)
	}

	confirmed := st.removePending(id)
	if st.hasPending(id) {
		st.settle(id, confirmed)
	} else {
		delete(st.optimistic, id)
	}
	st.forgetAliases(id)

	e.logger.Debug("Operation confirmed",
		"entity_type", conf.EntityType,
		"entity_id", id,
		"temp_id", conf.TempID,
		"operation", conf.Operation)
}

// handleOperationError rolls back the rejected change and records the error
// on the Sync State of the type.
func (e *Engine) handleOperationError(payload json.RawMessage) {
	rej, ok := decode[api.OperationError](e, api.EventOperationError, payload)
	if !ok {
		return
	}
	id := rej.TempID
	if id == "" {
		id = rej.EntityID
	}

	opErr := &OperationError{
		Type:      rej.EntityType,
		EntityID:  rej.EntityID,
		TempID:    rej.TempID,
		Operation: rej.Operation,
		Message:   rej.Error,
	}

	e.mu.Lock()
	st, ok := e.states[rej.EntityType]
	if !ok {
		e.mu.Unlock()
		return
	}
	id = st.resolveID(id)
	if upd, ok := st.optimistic[id]; ok {
		upd.rollback(st.data)
		delete(st.optimistic, id)
	}
	st.removePending(id)
	st.forgetAliases(id)
	st.err = opErr
	e.mu.Unlock()

	e.logger.Warn("Operation rejected by peer",
		"entity_type", rej.EntityType,
		"entity_id", id,
		"operation", rej.Operation,
		"error", rej.Error)
}
