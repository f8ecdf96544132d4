package reconnect

import (
	"errors"
	"time"
)

// Phase is the position of the controller in its state machine.
type Phase int

const (
	// PhaseIdle никогда не подключались, сброшены или ждём сигнала окружения
	PhaseIdle Phase = iota
	PhaseConnected
	// PhaseReconnecting идёт обратный отсчёт или попытка в процессе
	PhaseReconnecting
	PhasePaused
	PhaseExhausted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnected:
		return "connected"
	case PhaseReconnecting:
		return "reconnecting"
	case PhasePaused:
		return "paused"
	case PhaseExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ErrExhausted is reported by State.Err once the attempt cap is reached.
var ErrExhausted = errors.New("reconnect attempts exhausted")

// Reasons reported in State.Reason.
const (
	ReasonDisabled          = "reconnect disabled"
	ReasonPaused            = "paused"
	ReasonExhausted         = "max attempts reached"
	ReasonOffline           = "network offline"
	ReasonHidden            = "page hidden"
	ReasonInactive          = "user inactive"
	ReasonInactivityTimeout = "inactivity timeout"
	ReasonHealthCheck       = "health check timeout"
	ReasonTransportLost     = "transport disconnected"
	ReasonConnectFailed     = "connect failed"
)

// State is a snapshot of the controller.
type State struct {
	LastAttemptTime time.Time
	Reason          string
	Phase           Phase
	AttemptCount    int
	NextRetryIn     time.Duration
	// TotalDowntime сумма завершённых простоев, текущий не учитывается
	TotalDowntime  time.Duration
	IsReconnecting bool
	CanReconnect   bool
}

// Err returns ErrExhausted when the controller has given up.
func (s State) Err() error {
	if s.Phase == PhaseExhausted {
		return ErrExhausted
	}
	return nil
}
