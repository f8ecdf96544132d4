package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	gosync "sync"
	"time"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/client/transport"
	"github.com/iudanet/opsync/internal/clock"
	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/internal/validation"
	"github.com/iudanet/opsync/pkg/api"
)

const (
	// DefaultQueueCapacity bounds the offline queue; the oldest operation is dropped on overflow
	DefaultQueueCapacity = 1000

	// DefaultDrainDelay spaces replayed operations so a reconnect does not burst the peer
	DefaultDrainDelay = 50 * time.Millisecond
)

//go:generate moq -out identity_mock.go . IdentityProvider

// IdentityProvider resolves the acting user for provenance fields.
type IdentityProvider interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// NetworkStatus reports whether the runtime believes it is online.
type NetworkStatus interface {
	IsOnline() bool
	// OnChange registers handler for online/offline transitions.
	OnChange(handler func(online bool)) func()
}

// Handler is called once per reconciled remote operation.
type Handler func(op *models.SyncOperation)

// Options configures the engine. Zero values select defaults.
type Options struct {
	Clock         clock.Clock
	Metadata      storage.MetadataStorage
	Queue         storage.QueueStorage
	Network       NetworkStatus
	QueueCapacity int
	DrainDelay    time.Duration
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Clock:         clock.New(),
		QueueCapacity: DefaultQueueCapacity,
		DrainDelay:    DefaultDrainDelay,
	}
}

// Engine keeps a per-entity-type replica of server-owned entities, applies
// optimistic local mutations, reconciles them against the remote feed and
// queues operations while the transport is down.
//
// All state is guarded by a single mutex: a reconciliation step completes
// before the next inbound message is processed. Subscriber handlers and
// transport sends run outside the lock.
type Engine struct {
	transport   transport.Transport
	identity    IdentityProvider
	logger      *slog.Logger
	opts        Options
	states      map[string]*entityState
	resolvers   map[string]ConflictResolver
	subscribers map[string]map[uint64]Handler
	drainTimer  clock.Timer
	queue       []*models.SyncOperation
	unsubs      []func()
	nextSubID   uint64
	dropped     int
	mu          gosync.Mutex
	draining    bool
	closed      bool
}

// New creates an engine bound to t. The durable queue, if configured, is
// restored before the engine starts listening to the transport.
func New(ctx context.Context, t transport.Transport, identity IdentityProvider, logger *slog.Logger, opts Options) (*Engine, error) {
	defaults := DefaultOptions()
	if opts.Clock == nil {
		opts.Clock = defaults.Clock
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = defaults.QueueCapacity
	}
	if opts.DrainDelay <= 0 {
		opts.DrainDelay = defaults.DrainDelay
	}

	e := &Engine{
		transport:   t,
		identity:    identity,
		logger:      logger,
		opts:        opts,
		states:      make(map[string]*entityState),
		resolvers:   make(map[string]ConflictResolver),
		subscribers: make(map[string]map[uint64]Handler),
	}

	if opts.Queue != nil {
		ops, err := opts.Queue.LoadQueue(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to restore offline queue: %w", err)
		}
		if len(ops) > opts.QueueCapacity {
			ops = ops[len(ops)-opts.QueueCapacity:]
		}
		e.queue = ops
		if len(ops) > 0 {
			logger.Info("Restored offline queue", "operations", len(ops))
		}
	}

	inbound := map[string]transport.Handler{
		api.EventEntityCreated:      e.handleRemoteOperation,
		api.EventEntityUpdated:      e.handleRemoteOperation,
		api.EventEntityDeleted:      e.handleRemoteOperation,
		api.EventSyncResponse:       e.handleSyncResponse,
		api.EventOperationConfirmed: e.handleConfirmed,
		api.EventOperationError:     e.handleOperationError,
	}
	for event, h := range inbound {
		e.unsubs = append(e.unsubs, t.Subscribe(event, h))
	}
	e.unsubs = append(e.unsubs, t.OnStatusChange(e.handleStatus))
	if opts.Network != nil {
		e.unsubs = append(e.unsubs, opts.Network.OnChange(e.handleNetwork))
	}

	// Транспорт мог подключиться до создания движка
	if t.IsConnected() {
		e.startDrain()
	}

	return e, nil
}

// Close cancels every timer owned by the engine and detaches it from the transport.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, st := range e.states {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
	}
	if e.drainTimer != nil {
		e.drainTimer.Stop()
		e.drainTimer = nil
	}
	e.draining = false
	unsubs := e.unsubs
	e.unsubs = nil
	e.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// InitializeEntity registers a Sync State for entityType. If syncInterval > 0
// a periodic full sync is scheduled. One full sync is requested immediately.
// A second call for a registered type is a no-op.
func (e *Engine) InitializeEntity(ctx context.Context, entityType string, initial []*models.Entity, syncInterval time.Duration) error {
	if err := validation.ValidateEntityType(entityType); err != nil {
		return err
	}

	e.mu.Lock()
	_, exists := e.states[entityType]
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrEngineClosed
	}
	if exists {
		return nil
	}

	var lastSync *time.Time
	if e.opts.Metadata != nil {
		ts, err := e.opts.Metadata.GetLastSync(ctx, entityType)
		if err != nil {
			e.logger.Warn("Failed to read last sync, starting from scratch", "entity_type", entityType, "error", err)
		} else if !ts.IsZero() {
			lastSync = &ts
		}
	}

	e.mu.Lock()
	if _, exists := e.states[entityType]; exists {
		// параллельный InitializeEntity успел первым
		e.mu.Unlock()
		return nil
	}
	st := newEntityState(entityType, initial)
	st.lastSync = lastSync
	st.interval = syncInterval
	e.states[entityType] = st
	if syncInterval > 0 {
		e.schedulePeriodicSyncLocked(entityType, st)
	}
	n := len(st.data)
	e.mu.Unlock()

	e.logger.Info("Entity type initialized",
		"entity_type", entityType,
		"initial_entities", n,
		"sync_interval", syncInterval)

	e.RequestFullSync(entityType)
	return nil
}

// ClearEntity discards the Sync State of entityType and cancels its periodic
// sync. Pending optimistic updates are dropped without rollback.
// Clearing an unknown type is a no-op.
func (e *Engine) ClearEntity(entityType string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[entityType]
	if !ok {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	delete(e.states, entityType)

	e.logger.Info("Entity type cleared", "entity_type", entityType, "dropped_optimistic", len(st.optimistic))
}

// SubscribeToEntity registers handler for reconciled remote operations of
// entityType. The returned func is idempotent.
func (e *Engine) SubscribeToEntity(entityType string, handler Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextSubID++
	id := e.nextSubID
	set, ok := e.subscribers[entityType]
	if !ok {
		set = make(map[uint64]Handler)
		e.subscribers[entityType] = set
	}
	set[id] = handler

	var once gosync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()

			set, ok := e.subscribers[entityType]
			if !ok {
				return
			}
			delete(set, id)
			if len(set) == 0 {
				delete(e.subscribers, entityType)
			}
		})
	}
}

// SetConflictResolver registers resolver for entityType, replacing any
// earlier one. A nil resolver restores the default remote-wins policy.
func (e *Engine) SetConflictResolver(entityType string, resolver ConflictResolver) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if resolver == nil {
		delete(e.resolvers, entityType)
		return
	}
	e.resolvers[entityType] = resolver
}

// RequestFullSync asks the peer for a snapshot of entityType. The last sync
// time is passed only when the cache holds the data it refers to: initial
// data or an earlier snapshot. No-op while disconnected or for an unknown type.
func (e *Engine) RequestFullSync(entityType string) {
	e.mu.Lock()
	st, ok := e.states[entityType]
	if !ok || e.closed || !e.transport.IsConnected() {
		e.mu.Unlock()
		return
	}
	st.loading = true
	req := api.SyncRequest{
		EntityType: entityType,
		Timestamp:  e.opts.Clock.Now(),
	}
	if st.lastSync != nil && st.baseline {
		ts := *st.lastSync
		req.LastSync = &ts
	}
	e.mu.Unlock()

	if err := e.transport.Send(api.EventEntitySync, req); err != nil {
		e.logger.Debug("Full sync request not sent", "entity_type", entityType, "error", err)
		e.mu.Lock()
		if cur, ok := e.states[entityType]; ok && cur == st {
			st.loading = false
		}
		e.mu.Unlock()
		return
	}

	e.logger.Debug("Full sync requested", "entity_type", entityType, "last_sync", req.LastSync)
}

// State returns a deep copy of the Sync State of entityType.
func (e *Engine) State(entityType string) (SyncState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[entityType]
	if !ok {
		return SyncState{}, false
	}
	return st.snapshot(), true
}

// Entity returns a copy of one cached entity.
func (e *Engine) Entity(entityType, id string) (*models.Entity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[entityType]
	if !ok {
		return nil, false
	}
	ent, ok := st.data[id]
	if !ok {
		return nil, false
	}
	return ent.Clone(), true
}

// HasOptimistic reports whether id has an unconfirmed optimistic update.
func (e *Engine) HasOptimistic(entityType, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[entityType]
	if !ok {
		return false
	}
	_, ok = st.optimistic[id]
	return ok
}

// Types returns the initialized entity types in lexical order.
func (e *Engine) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.states))
	for t := range e.states {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// LastError returns the last operation error recorded for entityType.
func (e *Engine) LastError(entityType string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st, ok := e.states[entityType]; ok {
		return st.err
	}
	return nil
}

// schedulePeriodicSyncLocked arms the next periodic full sync of st.
func (e *Engine) schedulePeriodicSyncLocked(entityType string, st *entityState) {
	st.timer = e.opts.Clock.AfterFunc(st.interval, func() {
		e.mu.Lock()
		// тип мог быть очищен или переинициализирован
		if e.closed || e.states[entityType] != st {
			e.mu.Unlock()
			return
		}
		e.schedulePeriodicSyncLocked(entityType, st)
		e.mu.Unlock()

		e.RequestFullSync(entityType)
	})
}

// handleStatus drains the offline queue and catches up types that have not
// received a snapshot in this process once the transport is connected.
func (e *Engine) handleStatus(status transport.Status) {
	if status != transport.StatusConnected {
		return
	}

	e.mu.Lock()
	var stale []string
	for t, st := range e.states {
		if !st.synced {
			stale = append(stale, t)
		}
	}
	e.mu.Unlock()

	e.startDrain()

	sort.Strings(stale)
	for _, t := range stale {
		e.RequestFullSync(t)
	}
}

// handleNetwork resumes the offline queue when the network returns while
// the transport stayed up.
func (e *Engine) handleNetwork(online bool) {
	if !online || !e.transport.IsConnected() {
		return
	}
	e.startDrain()
}

func (e *Engine) userID(ctx context.Context) string {
	if e.identity == nil {
		return "anonymous"
	}
	id, err := e.identity.CurrentUserID(ctx)
	if err != nil {
		e.logger.Warn("Failed to resolve acting user", "error", err)
		return "anonymous"
	}
	return id
}

func (e *Engine) online() bool {
	return e.opts.Network == nil || e.opts.Network.IsOnline()
}

func (e *Engine) notify(entityType string, op *models.SyncOperation) {
	e.mu.Lock()
	set := e.subscribers[entityType]
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, set[id])
	}
	e.mu.Unlock()

	for _, h := range handlers {
		e.safeNotify(entityType, h, op.Clone())
	}
}

func (e *Engine) safeNotify(entityType string, h Handler, op *models.SyncOperation) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Subscriber panicked", "entity_type", entityType, "panic", r)
		}
	}()
	h(op)
}

func decode[T any](e *Engine, event string, payload json.RawMessage) (*T, bool) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		e.logger.Warn("Dropping malformed inbound message", "event", event, "error", err)
		return nil, false
	}
	return &v, true
}
