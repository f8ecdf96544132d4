package reconnect

import "time"

// NetworkSignal reports whether the runtime has network connectivity.
type NetworkSignal interface {
	IsOnline() bool
	// OnChange registers handler for online/offline transitions.
	OnChange(handler func(online bool)) func()
}

// VisibilitySignal reports whether the consumer is in the foreground.
type VisibilitySignal interface {
	IsVisible() bool
	OnChange(handler func(visible bool)) func()
}

// ActivitySignal reports user activity.
type ActivitySignal interface {
	LastActivity() time.Time
	OnActivity(handler func()) func()
}
