package routetable

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"grimm.is/directroute/internal/logging"
)

// DryRunProvider answers queries from Source, if any, and records mutations
// as route command lines without applying them.
type DryRunProvider struct {
	Source Provider

	mu       sync.Mutex
	commands []string
	logger   *logging.Logger
}

// NewDryRunProvider creates a dry-run provider reading from source.
func NewDryRunProvider(source Provider) *DryRunProvider {
	return &DryRunProvider{
		Source: source,
		logger: logging.WithComponent("dry-run"),
	}
}

func (d *DryRunProvider) Print(ctx context.Context, dest netip.Addr) (Result, error) {
	if d.Source == nil {
		return Result{}, nil
	}
	return d.Source.Print(ctx, dest)
}

func (d *DryRunProvider) Add(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error) {
	return d.record(fmt.Sprintf("route add %s mask %s %s metric %d", dest, mask, gateway, metric))
}

func (d *DryRunProvider) Change(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error) {
	return d.record(fmt.Sprintf("route change %s mask %s %s metric %d", dest, mask, gateway, metric))
}

func (d *DryRunProvider) Delete(ctx context.Context, dest netip.Addr) (Result, error) {
	return d.record(fmt.Sprintf("route delete %s", dest))
}

func (d *DryRunProvider) record(cmd string) (Result, error) {
	d.mu.Lock()
	d.commands = append(d.commands, cmd)
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("would run", "command", cmd)
	}
	return Result{Output: " OK!"}, nil
}

// Commands returns the mutations recorded so far.
func (d *DryRunProvider) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}
