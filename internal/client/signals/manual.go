package signals

import (
	"sync"
	"time"

	"github.com/iudanet/opsync/internal/clock"
)

// Network is a network signal driven by Set.
type Network struct {
	obs    observers[bool]
	mu     sync.Mutex
	online bool
}

// NewNetwork creates a network signal with the given initial state.
func NewNetwork(online bool) *Network {
	return &Network{online: online}
}

// Set updates the state. Observers are notified only on a transition.
func (n *Network) Set(online bool) {
	n.mu.Lock()
	changed := n.online != online
	n.online = online
	n.mu.Unlock()

	if changed {
		n.obs.emit(online)
	}
}

func (n *Network) IsOnline() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

func (n *Network) OnChange(handler func(online bool)) func() {
	return n.obs.add(handler)
}

// Visibility is a visibility signal driven by Set.
type Visibility struct {
	obs     observers[bool]
	mu      sync.Mutex
	visible bool
}

func NewVisibility(visible bool) *Visibility {
	return &Visibility{visible: visible}
}

// Set updates the state. Observers are notified only on a transition.
func (v *Visibility) Set(visible bool) {
	v.mu.Lock()
	changed := v.visible != visible
	v.visible = visible
	v.mu.Unlock()

	if changed {
		v.obs.emit(visible)
	}
}

func (v *Visibility) IsVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

func (v *Visibility) OnChange(handler func(visible bool)) func() {
	return v.obs.add(handler)
}

// Activity records user activity reported through Touch.
type Activity struct {
	last  time.Time
	clock clock.Clock
	obs   observers[struct{}]
	mu    sync.Mutex
}

// NewActivity creates an activity signal; the creation time counts as activity.
func NewActivity(c clock.Clock) *Activity {
	return &Activity{clock: c, last: c.Now()}
}

// Touch records activity now and notifies observers.
func (a *Activity) Touch() {
	a.mu.Lock()
	a.last = a.clock.Now()
	a.mu.Unlock()

	a.obs.emit(struct{}{})
}

func (a *Activity) LastActivity() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *Activity) OnActivity(handler func()) func() {
	return a.obs.add(func(struct{}) { handler() })
}
