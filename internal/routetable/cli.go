package routetable

import (
	"context"
	"net/netip"
	"strconv"

	"grimm.is/directroute/internal/network"
)

// DefaultCommand is the route utility invoked by CLIProvider.
const DefaultCommand = "route"

// CLIProvider drives the `route` command.
type CLIProvider struct {
	exec    network.CommandExecutor
	command string
}

// NewCLIProvider creates a provider on top of exec. A nil exec uses
// network.DefaultCommandExecutor.
func NewCLIProvider(exec network.CommandExecutor) *CLIProvider {
	if exec == nil {
		exec = network.DefaultCommandExecutor
	}
	return &CLIProvider{exec: exec, command: DefaultCommand}
}

func (p *CLIProvider) Print(ctx context.Context, dest netip.Addr) (Result, error) {
	return p.run(ctx, "print", dest.String())
}

func (p *CLIProvider) Add(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error) {
	return p.run(ctx, "add", dest.String(), "mask", mask.String(), gateway.String(), "metric", strconv.Itoa(metric))
}

func (p *CLIProvider) Change(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error) {
	return p.run(ctx, "change", dest.String(), "mask", mask.String(), gateway.String(), "metric", strconv.Itoa(metric))
}

func (p *CLIProvider) Delete(ctx context.Context, dest netip.Addr) (Result, error) {
	return p.run(ctx, "delete", dest.String())
}

func (p *CLIProvider) run(ctx context.Context, args ...string) (Result, error) {
	res, err := p.exec.RunCommand(ctx, p.command, args...)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: res.Stdout, Errors: res.Stderr}, nil
}
