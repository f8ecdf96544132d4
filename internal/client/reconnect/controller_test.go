package reconnect_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/client/reconnect"
	"github.com/iudanet/opsync/internal/client/signals"
	"github.com/iudanet/opsync/internal/client/transport"
	"github.com/iudanet/opsync/internal/client/transport/transporttest"
	"github.com/iudanet/opsync/internal/clock"
	"github.com/iudanet/opsync/pkg/api"
)

var errRefused = errors.New("connection refused")

func testConfig() reconnect.Config {
	cfg := reconnect.DefaultConfig()
	cfg.InitialDelay = time.Second
	cfg.Multiplier = 2
	cfg.MaxDelay = 10 * time.Second
	cfg.MaxAttempts = 3
	cfg.Jitter = false
	return cfg
}

type harness struct {
	ctrl *reconnect.Controller
	tr   *transporttest.Fake
	clk  *clock.Fake
}

// newConnected creates a controller whose first connect succeeded.
func newConnected(t *testing.T, cfg reconnect.Config, opts reconnect.Options) *harness {
	t.Helper()

	tr := transporttest.New()
	clk := clock.NewFake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	opts.Clock = clk

	ctrl, err := reconnect.New(tr, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	ctrl.Start()
	require.Equal(t, reconnect.PhaseConnected, ctrl.State().Phase)
	require.Len(t, tr.ConnectCalls(), 1)

	return &harness{ctrl: ctrl, tr: tr, clk: clk}
}

func (h *harness) connects() int {
	return len(h.tr.ConnectCalls())
}

func TestController_BackoffScenario(t *testing.T) {
	h := newConnected(t, testConfig(), reconnect.Options{})
	h.tr.FailConnect(errRefused)

	h.tr.SetStatus(transport.StatusDisconnected)

	st := h.ctrl.State()
	assert.Equal(t, reconnect.PhaseReconnecting, st.Phase)
	assert.True(t, st.IsReconnecting)
	assert.Equal(t, time.Second, st.NextRetryIn)

	h.clk.Advance(999 * time.Millisecond)
	assert.Equal(t, 1, h.connects())
	h.clk.Advance(time.Millisecond)
	assert.Equal(t, 2, h.connects(), "attempt 1 at +1s")

	h.clk.Advance(2*time.Second - time.Millisecond)
	assert.Equal(t, 2, h.connects())
	h.clk.Advance(time.Millisecond)
	assert.Equal(t, 3, h.connects(), "attempt 2 at +2s after failure")

	h.clk.Advance(4 * time.Second)
	assert.Equal(t, 4, h.connects(), "attempt 3 at +4s after failure")

	st = h.ctrl.State()
	assert.Equal(t, reconnect.PhaseExhausted, st.Phase)
	assert.Equal(t, 3, st.AttemptCount)
	assert.Equal(t, reconnect.ReasonExhausted, st.Reason)
	assert.ErrorIs(t, st.Err(), reconnect.ErrExhausted)
	assert.False(t, st.CanReconnect)
	assert.Zero(t, h.clk.Pending())

	h.clk.Advance(time.Hour)
	h.tr.SetStatus(transport.StatusError)
	assert.Equal(t, 4, h.connects(), "no automatic attempts after exhaustion")
}

func TestController_SuccessResetsAndAccumulatesDowntime(t *testing.T) {
	h := newConnected(t, testConfig(), reconnect.Options{})
	h.tr.FailConnect(errRefused)

	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Second)
	require.Equal(t, 1, h.ctrl.State().AttemptCount)
	assert.Equal(t, 0*time.Second, h.ctrl.State().TotalDowntime, "outage in progress is not counted")

	h.tr.FailConnect(nil)
	h.clk.Advance(2 * time.Second)

	st := h.ctrl.State()
	assert.Equal(t, reconnect.PhaseConnected, st.Phase)
	assert.Zero(t, st.AttemptCount)
	assert.Empty(t, st.Reason)
	assert.Zero(t, st.NextRetryIn)
	assert.Equal(t, 3*time.Second, st.TotalDowntime)
	assert.Equal(t, h.clk.Now(), st.LastAttemptTime)

	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Second)
	assert.Equal(t, 4*time.Second, h.ctrl.State().TotalDowntime)
}

func TestController_WithoutResetOnSuccess(t *testing.T) {
	cfg := testConfig()
	cfg.ResetOnSuccess = false
	h := newConnected(t, cfg, reconnect.Options{})

	h.tr.SetStatus(transport.StatusDisconnected)
	assert.Equal(t, 2*time.Second, h.ctrl.State().NextRetryIn, "count kept from the first connect")
	h.clk.Advance(2 * time.Second)

	st := h.ctrl.State()
	assert.Equal(t, reconnect.PhaseConnected, st.Phase)
	assert.Equal(t, 2, st.AttemptCount)
}

func TestController_DuplicateLossEventsScheduleOnce(t *testing.T) {
	h := newConnected(t, testConfig(), reconnect.Options{})

	h.tr.SetStatus(transport.StatusError)
	h.tr.SetStatus(transport.StatusDisconnected)
	assert.Equal(t, 2, h.clk.Pending(), "one deferred connect and one countdown tick")

	h.clk.Advance(time.Second)
	assert.Equal(t, 2, h.connects())
	assert.Equal(t, reconnect.PhaseConnected, h.ctrl.State().Phase)
}

func TestController_Countdown(t *testing.T) {
	cfg := testConfig()
	cfg.InitialDelay = 3 * time.Second
	h := newConnected(t, cfg, reconnect.Options{})
	h.tr.FailConnect(errRefused)

	var seen []time.Duration
	h.ctrl.OnStateChange(func(st reconnect.State) {
		if st.Phase == reconnect.PhaseReconnecting {
			seen = append(seen, st.NextRetryIn)
		}
	})

	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Second)
	assert.Equal(t, 2*time.Second, h.ctrl.State().NextRetryIn)
	h.clk.Advance(time.Second)
	assert.Equal(t, time.Second, h.ctrl.State().NextRetryIn)
	assert.Equal(t, 1, h.connects(), "display ticks never connect")

	h.clk.Advance(time.Second)
	assert.Equal(t, 2, h.connects())
	assert.Equal(t, []time.Duration{3 * time.Second, 2 * time.Second, time.Second}, seen[:3])
}

func TestController_ForceReconnectAfterExhaustion(t *testing.T) {
	h := newConnected(t, testConfig(), reconnect.Options{})
	h.tr.FailConnect(errRefused)
	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Minute)
	require.Equal(t, reconnect.PhaseExhausted, h.ctrl.State().Phase)
	require.Equal(t, 4, h.connects())

	h.ctrl.ForceReconnect()

	assert.Equal(t, 5, h.connects(), "forced attempt fires immediately")
	st := h.ctrl.State()
	assert.Equal(t, 1, st.AttemptCount)
	assert.Equal(t, reconnect.PhaseReconnecting, st.Phase)

	h.tr.FailConnect(nil)
	h.clk.Advance(2 * time.Second)
	assert.Equal(t, reconnect.PhaseConnected, h.ctrl.State().Phase)
}

func TestController_ResetAttemptsAfterExhaustion(t *testing.T) {
	h := newConnected(t, testConfig(), reconnect.Options{})
	h.tr.FailConnect(errRefused)
	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Minute)
	require.Equal(t, reconnect.PhaseExhausted, h.ctrl.State().Phase)

	h.tr.FailConnect(nil)
	h.ctrl.ResetAttempts()

	st := h.ctrl.State()
	assert.Equal(t, reconnect.PhaseReconnecting, st.Phase)
	assert.Zero(t, st.AttemptCount)
	assert.Equal(t, time.Second, st.NextRetryIn)

	h.clk.Advance(time.Second)
	assert.Equal(t, reconnect.PhaseConnected, h.ctrl.State().Phase)
	assert.Equal(t, 5, h.connects())
}

func TestController_OfflineGate(t *testing.T) {
	network := signals.NewNetwork(true)
	h := newConnected(t, testConfig(), reconnect.Options{Network: network})

	network.Set(false)
	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Hour)

	assert.Equal(t, 1, h.connects(), "no attempts while offline")
	st := h.ctrl.State()
	assert.Equal(t, reconnect.PhaseIdle, st.Phase)
	assert.Equal(t, reconnect.ReasonOffline, st.Reason)
	assert.False(t, st.CanReconnect)
	assert.Zero(t, h.clk.Pending())

	network.Set(true)
	assert.Equal(t, 2, h.connects(), "exactly one immediate attempt on restore")
	assert.Equal(t, reconnect.PhaseConnected, h.ctrl.State().Phase)

	h.clk.Advance(time.Hour)
	assert.Equal(t, 2, h.connects())
}

func TestController_NetworkRestoreDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.ReconnectOnNetworkRestore = false
	network := signals.NewNetwork(true)
	h := newConnected(t, cfg, reconnect.Options{Network: network})

	network.Set(false)
	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Hour)
	network.Set(true)

	assert.Equal(t, 1, h.connects())

	h.ctrl.ForceReconnect()
	assert.Equal(t, 2, h.connects())
}

func TestController_NetworkRestoreBypassesCountdown(t *testing.T) {
	network := signals.NewNetwork(true)
	h := newConnected(t, testConfig(), reconnect.Options{Network: network})
	h.tr.FailConnect(errRefused)

	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Second)
	require.Equal(t, 2, h.connects())
	require.Equal(t, 2*time.Second, h.ctrl.State().NextRetryIn)

	h.tr.FailConnect(nil)
	network.Set(false)
	network.Set(true)

	assert.Equal(t, 3, h.connects())
	assert.Equal(t, reconnect.PhaseConnected, h.ctrl.State().Phase)
	assert.Zero(t, h.clk.Pending(), "pending countdown was cancelled")
}

func TestController_VisibilityGate(t *testing.T) {
	visibility := signals.NewVisibility(true)
	h := newConnected(t, testConfig(), reconnect.Options{Visibility: visibility})

	visibility.Set(false)
	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Minute)

	assert.Equal(t, 1, h.connects())
	assert.Equal(t, reconnect.ReasonHidden, h.ctrl.State().Reason)

	visibility.Set(true)
	assert.Equal(t, 2, h.connects())
	assert.Equal(t, reconnect.PhaseConnected, h.ctrl.State().Phase)
}

func TestController_PauseResume(t *testing.T) {
	h := newConnected(t, testConfig(), reconnect.Options{})
	h.tr.FailConnect(errRefused)
	h.tr.SetStatus(transport.StatusDisconnected)

	h.ctrl.Pause("maintenance")

	st := h.ctrl.State()
	assert.Equal(t, reconnect.PhasePaused, st.Phase)
	assert.Equal(t, "maintenance", st.Reason)
	assert.Zero(t, h.clk.Pending())

	h.clk.Advance(time.Hour)
	h.ctrl.ForceReconnect()
	assert.Equal(t, 1, h.connects(), "gate holds while paused")

	h.tr.FailConnect(nil)
	h.ctrl.Resume()
	assert.Equal(t, 2, h.connects())
	assert.Equal(t, reconnect.PhaseConnected, h.ctrl.State().Phase)

	h.ctrl.Resume()
	assert.Equal(t, 2, h.connects(), "resume without pause is a no-op")
}

func TestController_PauseWhileConnected(t *testing.T) {
	h := newConnected(t, testConfig(), reconnect.Options{})

	h.ctrl.Pause("")
	assert.Equal(t, reconnect.PhaseConnected, h.ctrl.State().Phase)

	h.tr.SetStatus(transport.StatusDisconnected)
	assert.Equal(t, reconnect.PhasePaused, h.ctrl.State().Phase)
	assert.Equal(t, reconnect.ReasonPaused, h.ctrl.State().Reason)
	assert.Zero(t, h.clk.Pending())
}

func TestController_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	tr := transporttest.New()
	clk := clock.NewFake(time.Now())
	ctrl, err := reconnect.New(tr, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), reconnect.Options{Clock: clk})
	require.NoError(t, err)
	defer ctrl.Close()

	ctrl.Start()
	assert.Empty(t, tr.ConnectCalls())
	assert.Equal(t, reconnect.ReasonDisabled, ctrl.State().Reason)

	tr.SetStatus(transport.StatusError)
	assert.Zero(t, clk.Pending())
}

func TestController_InactivityTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.InactivityTimeout = 5 * time.Minute

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	activity := signals.NewActivity(clk)

	tr := transporttest.New()
	ctrl, err := reconnect.New(tr, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), reconnect.Options{
		Clock:    clk,
		Activity: activity,
	})
	require.NoError(t, err)
	defer ctrl.Close()
	ctrl.Start()
	require.Equal(t, reconnect.PhaseConnected, ctrl.State().Phase)

	clk.Advance(2 * time.Minute)
	activity.Touch()
	clk.Advance(3 * time.Minute)
	assert.Empty(t, tr.DisconnectCalls(), "activity pushed the deadline")

	clk.Advance(2 * time.Minute)
	require.Len(t, tr.DisconnectCalls(), 1)
	st := ctrl.State()
	assert.Equal(t, reconnect.PhaseIdle, st.Phase)
	assert.Equal(t, reconnect.ReasonInactivityTimeout, st.Reason)
	assert.Zero(t, clk.Pending())

	clk.Advance(time.Hour)
	assert.Len(t, tr.ConnectCalls(), 1, "idle client stays disconnected")

	activity.Touch()
	assert.Len(t, tr.ConnectCalls(), 2)
	assert.Equal(t, reconnect.PhaseConnected, ctrl.State().Phase)
	assert.Equal(t, time.Hour, ctrl.State().TotalDowntime)
}

func TestController_InactivityBlocksScheduledAttempt(t *testing.T) {
	cfg := testConfig()
	cfg.InactivityTimeout = time.Minute

	clk := clock.NewFake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	activity := signals.NewActivity(clk)
	tr := transporttest.New()
	ctrl, err := reconnect.New(tr, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), reconnect.Options{
		Clock:    clk,
		Activity: activity,
	})
	require.NoError(t, err)
	defer ctrl.Close()
	ctrl.Start()

	clk.Advance(59 * time.Second)
	tr.SetStatus(transport.StatusDisconnected)
	clk.Advance(time.Hour)

	assert.Len(t, tr.ConnectCalls(), 1, "deferred attempt is gated by inactivity")
	assert.Equal(t, reconnect.ReasonInactive, ctrl.State().Reason)
	assert.Equal(t, reconnect.PhaseIdle, ctrl.State().Phase)

	activity.Touch()
	assert.Len(t, tr.ConnectCalls(), 2)
	assert.Equal(t, reconnect.PhaseConnected, ctrl.State().Phase)
}

func TestController_HealthCheck(t *testing.T) {
	cfg := testConfig()
	cfg.HealthCheckInterval = 10 * time.Second
	cfg.HealthCheckTimeout = 3 * time.Second
	h := newConnected(t, cfg, reconnect.Options{})

	h.clk.Advance(10 * time.Second)
	assert.Equal(t, []string{api.EventPing}, h.tr.SentEvents())

	h.tr.Deliver(api.EventPong, api.Pong{Timestamp: h.clk.Now()})
	h.clk.Advance(3 * time.Second)
	assert.Empty(t, h.tr.DisconnectCalls())

	h.clk.Advance(7 * time.Second)
	assert.Len(t, h.tr.SentEvents(), 2)

	h.clk.Advance(3 * time.Second)
	require.Len(t, h.tr.DisconnectCalls(), 1, "missing pong drops the connection")

	st := h.ctrl.State()
	assert.Equal(t, reconnect.PhaseReconnecting, st.Phase)
	assert.Equal(t, reconnect.ReasonHealthCheck, st.Reason)

	h.clk.Advance(time.Second)
	assert.Equal(t, reconnect.PhaseConnected, h.ctrl.State().Phase)
}

func TestController_ObserversAndClose(t *testing.T) {
	h := newConnected(t, testConfig(), reconnect.Options{})

	var phases []reconnect.Phase
	unsub := h.ctrl.OnStateChange(func(st reconnect.State) { phases = append(phases, st.Phase) })
	h.ctrl.OnStateChange(func(reconnect.State) { panic("observer bug") })

	h.tr.SetStatus(transport.StatusDisconnected)
	h.clk.Advance(time.Second)

	require.NotEmpty(t, phases)
	assert.Equal(t, reconnect.PhaseReconnecting, phases[0])
	assert.Equal(t, reconnect.PhaseConnected, phases[len(phases)-1])

	unsub()
	unsub()
	n := len(phases)
	h.tr.SetStatus(transport.StatusDisconnected)
	assert.Len(t, phases, n)

	h.ctrl.Close()
	h.ctrl.Close()
	assert.Zero(t, h.clk.Pending())

	h.tr.SetStatus(transport.StatusError)
	h.clk.Advance(time.Hour)
	assert.Equal(t, 2, h.connects())
}

func TestController_New_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 0

	_, err := reconnect.New(transporttest.New(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), reconnect.Options{})
	assert.ErrorIs(t, err, reconnect.ErrInvalidConfig)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", reconnect.PhaseIdle.String())
	assert.Equal(t, "connected", reconnect.PhaseConnected.String())
	assert.Equal(t, "reconnecting", reconnect.PhaseReconnecting.String())
	assert.Equal(t, "paused", reconnect.PhasePaused.String())
	assert.Equal(t, "exhausted", reconnect.PhaseExhausted.String())
}
