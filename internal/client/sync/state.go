package sync

import (
	"time"

	"github.com/iudanet/opsync/internal/clock"
	"github.com/iudanet/opsync/internal/models"
)

// SyncState is a point-in-time copy of the cache of one entity type.
type SyncState struct {
	Data              map[string]*models.Entity
	LastSync          *time.Time
	Error             string
	PendingOperations []*models.SyncOperation
	Loading           bool
}

// OptimisticUpdate is a local change not yet confirmed by the peer.
// Rollback is per id: it restores only this entity, to its last value
// acknowledged by the peer, and leaves every other id of the type as is.
// While several mutations of the id are in flight the snapshot advances
// with each confirmation.
type OptimisticUpdate struct {
	Timestamp time.Time
	Data      *models.Entity // nil для delete
	snapshot  *models.Entity // последнее подтверждённое значение
	ID        string
	Operation models.OperationType
	existed   bool
}

// rollback restores the pre-mutation value of the entity in data.
// Calling it more than once leaves data in the same state.
func (u *OptimisticUpdate) rollback(data map[string]*models.Entity) {
	if u.existed {
		data[u.ID] = u.snapshot.Clone()
		return
	}
	delete(data, u.ID)
}

// entityState is the live Sync State of one entity type. Guarded by Engine.mu.
type entityState struct {
	data       map[string]*models.Entity
	optimistic map[string]*OptimisticUpdate
	// aliases maps confirmed temporary ids to real ones while operations
	// sent under the temporary id may still be answered.
	aliases  map[string]string
	lastSync *time.Time
	timer    clock.Timer
	err      error
	pending  []*models.SyncOperation
	interval time.Duration
	loading  bool
	// synced is set once a snapshot arrived in this process.
	synced bool
	// baseline: data holds a known state the peer may send a delta against.
	baseline bool
}

func newEntityState(entityType string, initial []*models.Entity) *entityState {
	st := &entityState{
		data:       make(map[string]*models.Entity, len(initial)),
		optimistic: make(map[string]*OptimisticUpdate),
		aliases:    make(map[string]string),
	}
	for _, e := range initial {
		if e == nil || e.ID == "" {
			continue
		}
		c := e.Clone()
		c.Type = entityType
		st.data[c.ID] = c
	}
	st.baseline = len(st.data) > 0
	return st
}

func (st *entityState) snapshot() SyncState {
	out := SyncState{
		Data:              make(map[string]*models.Entity, len(st.data)),
		PendingOperations: make([]*models.SyncOperation, 0, len(st.pending)),
		Loading:           st.loading,
	}
	for id, e := range st.data {
		out.Data[id] = e.Clone()
	}
	for _, op := range st.pending {
		out.PendingOperations = append(out.PendingOperations, op.Clone())
	}
	if st.lastSync != nil {
		ts := *st.lastSync
		out.LastSync = &ts
	}
	if st.err != nil {
		out.Error = st.err.Error()
	}
	return out
}

// applyOptimistic writes value (nil = delete) and records the optimistic update.
// A newer local mutation on the same id supersedes the prior record but keeps
// its snapshot, so rollback always returns to the last confirmed value.
func (st *entityState) applyOptimistic(id string, value *models.Entity, op *models.SyncOperation) {
	upd := &OptimisticUpdate{
		ID:        id,
		Data:      value.Clone(),
		Operation: op.Operation,
		Timestamp: op.Timestamp,
	}
	if prev, ok := st.optimistic[id]; ok {
		upd.snapshot = prev.snapshot
		upd.existed = prev.existed
	} else {
		cur, ok := st.data[id]
		upd.snapshot = cur.Clone()
		upd.existed = ok
	}
	st.optimistic[id] = upd

	if value == nil {
		delete(st.data, id)
		return
	}
	st.data[id] = value.Clone()
}

// removePending drops and returns the oldest in-flight operation for id. The
// peer answers operations in the order they were sent, so the oldest one is
// being answered.
func (st *entityState) removePending(id string) *models.SyncOperation {
	for i, op := range st.pending {
		if op.Entity != nil && op.Entity.ID == id {
			copy(st.pending[i:], st.pending[i+1:])
			st.pending[len(st.pending)-1] = nil
			st.pending = st.pending[:len(st.pending)-1]
			return op
		}
	}
	return nil
}

// settle moves the rollback point of id to the value of a confirmed
// operation, so a later rejection does not undo an acknowledged write.
func (st *entityState) settle(id string, confirmed *models.SyncOperation) {
	upd, ok := st.optimistic[id]
	if !ok || confirmed == nil {
		return
	}
	if confirmed.Operation == models.OperationDelete {
		upd.snapshot = nil
		upd.existed = false
		return
	}
	upd.snapshot = confirmed.Entity.Clone()
	upd.snapshot.ID = id
	upd.existed = true
}

// resolveID maps a confirmed temporary id to its real id.
func (st *entityState) resolveID(id string) string {
	if realID, ok := st.aliases[id]; ok {
		return realID
	}
	return id
}

// forgetAliases drops aliases of realID once nothing is in flight for it.
func (st *entityState) forgetAliases(realID string) {
	if st.hasPending(realID) {
		return
	}
	for tmp, to := range st.aliases {
		if to == realID {
			delete(st.aliases, tmp)
		}
	}
}

func (st *entityState) hasPending(id string) bool {
	for _, op := range st.pending {
		if op.Entity != nil && op.Entity.ID == id {
			return true
		}
	}
	return false
}

// rekeyPending rewrites in-flight operations from a temporary id to the real one.
func (st *entityState) rekeyPending(tempID, realID string) {
	for _, op := range st.pending {
		if op.Entity != nil && op.Entity.ID == tempID {
			op.Entity.ID = realID
		}
	}
}
