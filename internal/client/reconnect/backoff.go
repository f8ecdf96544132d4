package reconnect

import (
	"math"
	"math/rand/v2"
	"time"
)

// maxJitter is the largest fraction of the delay added as jitter
const maxJitter = 0.1

// Backoff computes reconnection delays from a Config.
type Backoff struct {
	rand func() float64
	cfg  Config
}

// NewBackoff creates a Backoff. rand must return values in [0, 1); nil selects math/rand/v2.
func NewBackoff(cfg Config, rand func() float64) *Backoff {
	if rand == nil {
		rand = defaultRand
	}
	return &Backoff{cfg: cfg, rand: rand}
}

func defaultRand() float64 {
	return rand.Float64()
}

// Base returns the unjittered delay before the attempt that follows
// attempt failed attempts: min(initial * multiplier^attempt, max) in
// exponential mode, initial otherwise.
func (b *Backoff) Base(attempt int) time.Duration {
	if !b.cfg.Exponential {
		return b.cfg.InitialDelay
	}
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.cfg.InitialDelay) * math.Pow(b.cfg.Multiplier, float64(attempt))
	if math.IsInf(d, 0) || math.IsNaN(d) || d >= float64(b.cfg.MaxDelay) {
		return b.cfg.MaxDelay
	}
	return time.Duration(d)
}

// Delay returns Base plus, with jitter enabled, up to 10% of it.
func (b *Backoff) Delay(attempt int) time.Duration {
	base := b.Base(attempt)
	if !b.cfg.Jitter {
		return base
	}
	return base + time.Duration(float64(base)*maxJitter*b.rand())
}
