package agent

import (
	"fmt"
	"runtime"

	"grimm.is/directroute/internal/config"
	"grimm.is/directroute/internal/network"
	"grimm.is/directroute/internal/routetable"
)

// newNetlinkProvider is replaced in tests.
var newNetlinkProvider = routetable.NewNetlinkProvider

// NewProvider builds the route table provider named by cfg.Provider.
// "auto" selects netlink on Linux and the route command elsewhere.
// "dry-run" reads through the auto provider and only records mutations.
func NewProvider(cfg *config.Config, exec network.CommandExecutor) (routetable.Provider, error) {
	if exec == nil {
		exec = &network.RealCommandExecutor{Timeout: cfg.CommandDeadline()}
	}

	switch cfg.Provider {
	case config.ProviderRoute:
		return routetable.NewCLIProvider(exec), nil
	case config.ProviderNetlink:
		p, err := newNetlinkProvider()
		if err != nil {
			return nil, fmt.Errorf("netlink provider: %w", err)
		}
		return p, nil
	case config.ProviderDryRun:
		src, err := autoProvider(exec)
		if err != nil {
			return nil, err
		}
		return routetable.NewDryRunProvider(src), nil
	case config.ProviderAuto, "":
		return autoProvider(exec)
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func autoProvider(exec network.CommandExecutor) (routetable.Provider, error) {
	if runtime.GOOS == "linux" {
		p, err := newNetlinkProvider()
		if err != nil {
			return nil, fmt.Errorf("netlink provider: %w", err)
		}
		return p, nil
	}
	return routetable.NewCLIProvider(exec), nil
}
