package signals

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/iudanet/opsync/internal/clock"
)

// Dialer opens a connection; *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// TCPProbe is a network signal that considers the runtime online while a TCP
// connection to Addr can be opened.
type TCPProbe struct {
	*Network

	dialer   Dialer
	clock    clock.Clock
	logger   *slog.Logger
	timer    clock.Timer
	addr     string
	interval time.Duration
	timeout  time.Duration
	mu       sync.Mutex
	stopped  bool
}

// NewTCPProbe creates a probe of addr. The probe starts in the online state
// and begins checking on Start.
func NewTCPProbe(addr string, interval, timeout time.Duration, c clock.Clock, logger *slog.Logger) *TCPProbe {
	return &TCPProbe{
		Network:  NewNetwork(true),
		dialer:   &net.Dialer{},
		clock:    c,
		logger:   logger,
		addr:     addr,
		interval: interval,
		timeout:  timeout,
	}
}

// WithDialer replaces the dialer used by the probe.
func (p *TCPProbe) WithDialer(d Dialer) *TCPProbe {
	p.dialer = d
	return p
}

// Start runs the first check now and then one per interval.
func (p *TCPProbe) Start() {
	p.check()
}

// Stop cancels further checks.
func (p *TCPProbe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *TCPProbe) check() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	cancel()
	if err == nil {
		_ = conn.Close()
	}

	online := err == nil
	if online != p.IsOnline() {
		p.logger.Info("Network reachability changed", "addr", p.addr, "online", online, "error", err)
	}
	p.Set(online)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stopped {
		p.timer = p.clock.AfterFunc(p.interval, p.check)
	}
}
