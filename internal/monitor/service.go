// Package monitor checks that the direct gateway still answers ICMP echo.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"grimm.is/directroute/internal/logging"
	"grimm.is/directroute/internal/metrics"
)

// DefaultTimeout bounds one echo round trip.
const DefaultTimeout = time.Second

// ErrNoGateway is returned when the checker has no gateway to ping.
var ErrNoGateway = errors.New("no gateway to check")

// PingOptions configures a single echo.
type PingOptions struct {
	Timeout    time.Duration
	Privileged bool
}

// CheckPingFunc sends one echo to ip and returns the round trip time.
// Tests replace it.
var CheckPingFunc = func(ctx context.Context, ip string, opts PingOptions) (time.Duration, error) {
	pinger, err := probing.NewPinger(ip)
	if err != nil {
		return 0, fmt.Errorf("failed to create pinger: %w", err)
	}

	pinger.Count = 1
	pinger.Timeout = opts.Timeout
	pinger.SetPrivileged(opts.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return 0, err
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, fmt.Errorf("packet loss")
	}
	return stats.AvgRtt, nil
}

// Checker pings one gateway and reports transitions between up and down.
// It never touches the route table.
type Checker struct {
	gateway netip.Addr
	opts    PingOptions
	logger  *logging.Logger
	metrics *metrics.Registry

	mu    sync.Mutex
	known bool
	up    bool
}

// NewChecker creates a checker for gw.
func NewChecker(gw netip.Addr, opts PingOptions, logger *logging.Logger, m *metrics.Registry) *Checker {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Checker{
		gateway: gw,
		opts:    opts,
		logger:  logger.WithComponent("monitor"),
		metrics: m,
	}
}

// Check sends one echo. A lost echo is returned as an error so the
// scheduler counts it; the up/down state is logged only when it changes.
func (c *Checker) Check(ctx context.Context) error {
	if !c.gateway.IsValid() {
		return ErrNoGateway
	}
	target := c.gateway.String()

	rtt, err := CheckPingFunc(ctx, target, c.opts)
	up := err == nil
	if c.metrics != nil {
		c.metrics.RecordGatewayCheck(up, rtt)
	}

	c.mu.Lock()
	changed := !c.known || c.up != up
	c.known, c.up = true, up
	c.mu.Unlock()

	switch {
	case !up && changed:
		c.logger.Warn("ALERT: gateway is DOWN", "gateway", target, "error", err)
	case up && changed:
		c.logger.Info("gateway is UP", "gateway", target, "rtt", rtt.String())
	}
	if err != nil {
		return fmt.Errorf("ping %s: %w", target, err)
	}
	return nil
}

// Up reports the result of the last check. ok is false before the first one.
func (c *Checker) Up() (up, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up, c.known
}
