package reconnect

import (
	"github.com/iudanet/opsync/internal/clock"
	"github.com/iudanet/opsync/pkg/api"
)

// idleLocked reports whether the user has been inactive for the configured
// timeout. Without an activity signal the user is never idle.
func (c *Controller) idleLocked() bool {
	if c.cfg.InactivityTimeout <= 0 || c.opts.Activity == nil {
		return false
	}
	return c.clock.Now().Sub(c.lastActivity) >= c.cfg.InactivityTimeout
}

// startMonitorsLocked arms the inactivity and health-check timers of a live connection.
func (c *Controller) startMonitorsLocked() {
	c.stopMonitorsLocked()
	if c.cfg.InactivityTimeout > 0 && c.opts.Activity != nil {
		c.armIdleLocked()
	}
	if c.cfg.HealthCheckInterval > 0 {
		c.healthTimer = c.clock.AfterFunc(c.cfg.HealthCheckInterval, c.ping)
	}
}

func (c *Controller) stopMonitorsLocked() {
	for _, t := range []*clock.Timer{&c.idleTimer, &c.healthTimer, &c.pongTimer} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
}

func (c *Controller) armIdleLocked() {
	remaining := c.cfg.InactivityTimeout - c.clock.Now().Sub(c.lastActivity)
	if remaining < 0 {
		remaining = 0
	}
	c.idleTimer = c.clock.AfterFunc(remaining, c.checkIdle)
}

// checkIdle drops an idle connection. The drop is deliberate: the controller
// reconnects only after new activity or another reconnect signal.
func (c *Controller) checkIdle() {
	c.mu.Lock()
	c.idleTimer = nil
	if c.closed || c.phase != PhaseConnected {
		c.mu.Unlock()
		return
	}
	if !c.idleLocked() {
		// активность была после постановки таймера
		c.armIdleLocked()
		c.mu.Unlock()
		return
	}

	c.stopMonitorsLocked()
	c.idleDropped = true
	c.phase = PhaseIdle
	c.reason = ReasonInactivityTimeout
	c.disconnectedAt = c.clock.Now()
	c.logger.Info("Dropping idle connection", "inactivity_timeout", c.cfg.InactivityTimeout)
	c.unlockAndNotify()

	c.transport.Disconnect()
}

// ping sends a health-check ping and waits for a pong.
func (c *Controller) ping() {
	c.mu.Lock()
	c.healthTimer = nil
	if c.closed || c.phase != PhaseConnected {
		c.mu.Unlock()
		return
	}
	c.healthTimer = c.clock.AfterFunc(c.cfg.HealthCheckInterval, c.ping)
	if c.pongTimer == nil {
		c.pongTimer = c.clock.AfterFunc(c.cfg.pongTimeout(), c.pongMissed)
	}
	now := c.clock.Now()
	c.mu.Unlock()

	if err := c.transport.Send(api.EventPing, api.Ping{Timestamp: now}); err != nil {
		c.logger.Debug("Ping not sent", "error", err)
	}
}

// pongMissed treats a silent peer as a lost transport.
func (c *Controller) pongMissed() {
	c.mu.Lock()
	c.pongTimer = nil
	if c.closed || c.phase != PhaseConnected {
		c.mu.Unlock()
		return
	}
	c.reason = ReasonHealthCheck
	c.mu.Unlock()

	c.logger.Warn("Health check failed, dropping connection", "timeout", c.cfg.pongTimeout())
	c.transport.Disconnect()
}
