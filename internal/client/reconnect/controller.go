// Package reconnect decides whether and when the transport should be
// (re)connected under a changing environment.
package reconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/iudanet/opsync/internal/client/transport"
	"github.com/iudanet/opsync/internal/clock"
	"github.com/iudanet/opsync/pkg/api"
)

// Options carries the collaborators of a Controller. Nil signals are treated
// as always online, always visible and never idle.
type Options struct {
	Clock      clock.Clock
	Network    NetworkSignal
	Visibility VisibilitySignal
	Activity   ActivitySignal
	// Rand источник jitter в [0, 1)
	Rand func() float64
}

// StateHandler observes controller state changes.
type StateHandler func(State)

// Controller drives the transport lifecycle.
//
// Every timer class (deferred connect, countdown, inactivity, health ping,
// pong wait) is held separately and cancelled on its own. The attempt counter
// is read and written only under mu, so the value that gates retrying is the
// value used to compute the next delay.
type Controller struct {
	lastAttempt    time.Time
	lastActivity   time.Time
	disconnectedAt time.Time
	transport      transport.Transport
	clock          clock.Clock
	ctx            context.Context
	opts           Options
	retryTimer     clock.Timer
	countdownTimer clock.Timer
	idleTimer      clock.Timer
	healthTimer    clock.Timer
	pongTimer      clock.Timer
	logger         *slog.Logger
	backoff        *Backoff
	cancel         context.CancelFunc
	observers      map[uint64]StateHandler
	reason         string
	unsubs         []func()
	cfg            Config
	nextRetryIn    time.Duration
	totalDowntime  time.Duration
	phase          Phase
	attempts       int
	nextObserverID uint64
	mu             sync.Mutex
	inFlight       bool
	paused         bool
	idleDropped    bool
	everConnected  bool
	closed         bool
}

// New creates a controller for t. It starts observing the transport and the
// environment signals immediately but does not connect until Start.
func New(t transport.Transport, cfg Config, logger *slog.Logger, opts Options) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		transport:    t,
		cfg:          cfg,
		clock:        opts.Clock,
		opts:         opts,
		logger:       logger,
		backoff:      NewBackoff(cfg, opts.Rand),
		ctx:          ctx,
		cancel:       cancel,
		observers:    make(map[uint64]StateHandler),
		lastActivity: opts.Clock.Now(),
	}

	c.unsubs = append(c.unsubs,
		t.OnStatusChange(c.handleStatus),
		t.Subscribe(api.EventPong, c.handlePong),
	)
	if opts.Network != nil {
		c.unsubs = append(c.unsubs, opts.Network.OnChange(c.handleNetwork))
	}
	if opts.Visibility != nil {
		c.unsubs = append(c.unsubs, opts.Visibility.OnChange(c.handleVisibility))
	}
	if opts.Activity != nil {
		if last := opts.Activity.LastActivity(); last.After(c.lastActivity) {
			c.lastActivity = last
		}
		c.unsubs = append(c.unsubs, opts.Activity.OnActivity(c.handleActivity))
	}

	return c, nil
}

// Start makes the first connection attempt, subject to the gate.
func (c *Controller) Start() {
	c.attempt("initial connect")
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// OnStateChange registers handler for state changes. The returned func is idempotent.
func (c *Controller) OnStateChange(handler StateHandler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextObserverID++
	id := c.nextObserverID
	c.observers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.observers, id)
		})
	}
}

// Pause cancels pending reconnection and keeps the controller from
// reconnecting until Resume.
func (c *Controller) Pause(reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopRetryLocked()
	c.paused = true
	if reason == "" {
		reason = ReasonPaused
	}
	c.reason = reason
	if c.phase != PhaseConnected {
		c.phase = PhasePaused
	}
	c.logger.Info("Reconnect paused", "reason", reason)
	c.unlockAndNotify()
}

// Resume lifts a Pause. If the transport is down an attempt is made at once.
func (c *Controller) Resume() {
	c.mu.Lock()
	if c.closed || !c.paused {
		c.mu.Unlock()
		return
	}
	c.paused = false
	if c.phase == PhasePaused {
		c.phase = PhaseIdle
	}
	c.reason = ""
	connected := c.transport.IsConnected()
	c.logger.Info("Reconnect resumed")
	c.unlockAndNotify()

	if !connected {
		c.attempt("resumed")
	}
}

// ForceReconnect attempts a connection now, bypassing any countdown.
// An exhausted controller gets a fresh attempt budget.
func (c *Controller) ForceReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.phase == PhaseExhausted {
		c.attempts = 0
		c.phase = PhaseIdle
	}
	c.idleDropped = false
	c.mu.Unlock()

	c.attempt("forced")
}

// ResetAttempts zeroes the attempt counter. An exhausted controller
// schedules a new attempt with the initial delay.
func (c *Controller) ResetAttempts() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.attempts = 0
	if c.phase == PhaseExhausted {
		c.phase = PhaseIdle
		c.reason = ""
		if !c.transport.IsConnected() {
			c.scheduleLocked(ReasonTransportLost)
		}
	}
	c.unlockAndNotify()
}

// Close cancels every timer and detaches from the transport and the signals.
// The transport itself is left as is.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopRetryLocked()
	c.stopMonitorsLocked()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	c.cancel()
	for _, unsub := range unsubs {
		unsub()
	}
}

func (c *Controller) handleStatus(status transport.Status) {
	c.mu.Lock()
	if c.closed || c.inFlight {
		// исход попытки обрабатывает attempt
		c.mu.Unlock()
		return
	}

	switch status {
	case transport.StatusConnected:
		if c.phase == PhaseConnected {
			c.mu.Unlock()
			return
		}
		c.markConnectedLocked()
		c.unlockAndNotify()
	case transport.StatusDisconnected, transport.StatusError:
		reason := ReasonTransportLost
		if c.phase == PhaseConnected && c.reason == ReasonHealthCheck {
			reason = ReasonHealthCheck
		}
		if !c.handleLossLocked(reason) {
			c.mu.Unlock()
			return
		}
		c.unlockAndNotify()
	default:
		c.mu.Unlock()
	}
}

// handleLossLocked reacts to the transport going away. Returns false if the
// event changed nothing.
func (c *Controller) handleLossLocked(reason string) bool {
	c.stopMonitorsLocked()
	if c.everConnected && c.disconnectedAt.IsZero() {
		c.disconnectedAt = c.clock.Now()
	}

	switch {
	case c.idleDropped:
		// простаивающий клиент не переподключается сам
		return false
	case c.paused:
		c.phase = PhasePaused
		return true
	case c.phase == PhaseExhausted:
		return false
	case c.phase == PhaseReconnecting && c.retryTimer != nil:
		return false
	case !c.cfg.Enabled:
		c.phase = PhaseIdle
		c.reason = ReasonDisabled
		return true
	case c.attempts >= c.cfg.MaxAttempts:
		c.exhaustLocked()
		return true
	}

	c.logger.Info("Transport lost", "reason", reason, "attempt", c.attempts)
	c.scheduleLocked(reason)
	return true
}

// scheduleLocked arms a single deferred attempt after the backoff delay for
// the current attempt count, plus the display countdown.
func (c *Controller) scheduleLocked(reason string) {
	c.stopRetryLocked()

	delay := c.backoff.Delay(c.attempts)
	c.phase = PhaseReconnecting
	c.reason = reason
	c.nextRetryIn = delay

	c.retryTimer = c.clock.AfterFunc(delay, c.fire)
	c.countdownTimer = c.clock.AfterFunc(min(c.cfg.CountdownTick, delay), c.tick)

	c.logger.Info("Reconnect scheduled",
		"attempt", c.attempts+1,
		"delay_ms", delay.Milliseconds(),
		"reason", reason)
}

func (c *Controller) fire() {
	c.mu.Lock()
	c.retryTimer = nil
	c.mu.Unlock()

	c.attempt("scheduled")
}

func (c *Controller) tick() {
	c.mu.Lock()
	c.countdownTimer = nil
	if c.closed || c.retryTimer == nil {
		c.mu.Unlock()
		return
	}
	c.nextRetryIn -= c.cfg.CountdownTick
	if c.nextRetryIn < 0 {
		c.nextRetryIn = 0
	}
	if c.nextRetryIn > 0 {
		c.countdownTimer = c.clock.AfterFunc(min(c.cfg.CountdownTick, c.nextRetryIn), c.tick)
	}
	c.unlockAndNotify()
}

// gateLocked reports whether an attempt may be made now and why not.
func (c *Controller) gateLocked() (bool, string) {
	switch {
	case !c.cfg.Enabled:
		return false, ReasonDisabled
	case c.paused:
		return false, ReasonPaused
	case c.attempts >= c.cfg.MaxAttempts:
		return false, ReasonExhausted
	case c.opts.Network != nil && !c.opts.Network.IsOnline():
		return false, ReasonOffline
	case c.cfg.ReconnectOnVisibilityChange && c.opts.Visibility != nil && !c.opts.Visibility.IsVisible():
		return false, ReasonHidden
	case c.idleLocked():
		return false, ReasonInactive
	}
	return true, ""
}

// attempt makes one gated connection attempt. On failure the next attempt is
// scheduled or the controller gives up.
func (c *Controller) attempt(trigger string) {
	c.mu.Lock()
	if c.closed || c.inFlight || c.phase == PhaseConnected && c.transport.IsConnected() {
		c.mu.Unlock()
		return
	}
	c.stopRetryLocked()

	if ok, reason := c.gateLocked(); !ok {
		c.reason = reason
		c.nextRetryIn = 0
		switch reason {
		case ReasonExhausted:
			c.exhaustLocked()
		case ReasonPaused:
			c.phase = PhasePaused
		default:
			c.phase = PhaseIdle
		}
		c.logger.Info("Reconnect gated", "trigger", trigger, "reason", reason)
		c.unlockAndNotify()
		return
	}

	c.attempts++
	c.inFlight = true
	c.phase = PhaseReconnecting
	c.lastAttempt = c.clock.Now()
	c.nextRetryIn = 0
	n := c.attempts
	ctx, cancel := c.connectContext()
	c.logger.Info("Reconnect attempt", "attempt", n, "max_attempts", c.cfg.MaxAttempts, "trigger", trigger)
	c.unlockAndNotify()

	err := c.transport.Connect(ctx)
	cancel()
	if err == nil && !c.transport.IsConnected() {
		err = transport.ErrNotConnected
	}

	c.mu.Lock()
	c.inFlight = false
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err == nil {
		c.markConnectedLocked()
		c.unlockAndNotify()
		return
	}

	c.logger.Warn("Reconnect attempt failed", "attempt", n, "error", err)
	if c.paused {
		c.phase = PhasePaused
	} else if c.attempts >= c.cfg.MaxAttempts {
		c.exhaustLocked()
	} else {
		c.scheduleLocked(fmt.Sprintf("%s: %v", ReasonConnectFailed, err))
	}
	c.unlockAndNotify()
}

func (c *Controller) connectContext() (context.Context, context.CancelFunc) {
	if c.cfg.ConnectTimeout > 0 {
		return context.WithTimeout(c.ctx, c.cfg.ConnectTimeout)
	}
	return context.WithCancel(c.ctx)
}

func (c *Controller) markConnectedLocked() {
	c.stopRetryLocked()
	if !c.disconnectedAt.IsZero() {
		c.totalDowntime += c.clock.Now().Sub(c.disconnectedAt)
		c.disconnectedAt = time.Time{}
	}
	if c.cfg.ResetOnSuccess {
		c.attempts = 0
		c.reason = ""
		c.nextRetryIn = 0
	}
	c.phase = PhaseConnected
	c.everConnected = true
	c.idleDropped = false
	c.startMonitorsLocked()

	c.logger.Info("Connected", "total_downtime", c.totalDowntime)
}

func (c *Controller) exhaustLocked() {
	c.stopRetryLocked()
	c.phase = PhaseExhausted
	c.reason = ReasonExhausted
	c.nextRetryIn = 0
	c.logger.Warn("Reconnect attempts exhausted", "attempts", c.attempts)
}

func (c *Controller) stopRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.countdownTimer != nil {
		c.countdownTimer.Stop()
		c.countdownTimer = nil
	}
}

func (c *Controller) handleNetwork(online bool) {
	if !online {
		c.logger.Info("Network went offline")
		return
	}
	if !c.cfg.ReconnectOnNetworkRestore || !c.needsConnection() {
		return
	}
	c.attempt("network restored")
}

func (c *Controller) handleVisibility(visible bool) {
	if !visible || !c.cfg.ReconnectOnVisibilityChange || !c.needsConnection() {
		return
	}
	c.attempt("became visible")
}

func (c *Controller) handleActivity() {
	c.mu.Lock()
	c.lastActivity = c.clock.Now()
	wake := c.idleDropped || c.phase == PhaseIdle && c.reason == ReasonInactive
	c.idleDropped = false
	c.mu.Unlock()

	if wake {
		c.attempt("user activity")
	}
}

// needsConnection reports whether an environment signal should trigger an attempt.
func (c *Controller) needsConnection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.phase == PhaseExhausted {
		return false
	}
	return c.phase != PhaseConnected || !c.transport.IsConnected()
}

func (c *Controller) snapshotLocked() State {
	ok, _ := c.gateLocked()
	return State{
		Phase:           c.phase,
		AttemptCount:    c.attempts,
		IsReconnecting:  c.phase == PhaseReconnecting,
		CanReconnect:    ok,
		LastAttemptTime: c.lastAttempt,
		NextRetryIn:     c.nextRetryIn,
		Reason:          c.reason,
		TotalDowntime:   c.totalDowntime,
	}
}

// unlockAndNotify releases mu and delivers the current state to observers.
func (c *Controller) unlockAndNotify() {
	st := c.snapshotLocked()
	ids := make([]uint64, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]StateHandler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, c.observers[id])
	}
	c.mu.Unlock()

	for _, h := range handlers {
		c.safeNotify(h, st)
	}
}

func (c *Controller) safeNotify(h StateHandler, st State) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("State observer panicked", "panic", r)
		}
	}()
	h(st)
}

func (c *Controller) handlePong(payload json.RawMessage) {
	var pong api.Pong
	if err := json.Unmarshal(payload, &pong); err != nil {
		c.logger.Debug("Malformed pong", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pongTimer != nil {
		c.pongTimer.Stop()
		c.pongTimer = nil
	}
}
