package cmd

import (
	"context"
	"os"

	"grimm.is/directroute/internal/agent"
	"grimm.is/directroute/internal/network"
)

// RunGateway resolves and prints the direct gateway without touching routes.
func RunGateway(ctx context.Context, opts Options, verbose bool) error {
	cfg, err := loadConfiguration(opts)
	if err != nil {
		return err
	}
	logger, closer, err := initializeLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	insp, err := network.NewInspector(&network.RealCommandExecutor{Timeout: cfg.CommandDeadline()})
	if err != nil {
		return err
	}

	if verbose {
		routes, err := insp.DefaultRoutes(ctx)
		if err != nil {
			return err
		}
		Printer.Println("Default routes:")
		for _, r := range routes {
			desc, err := insp.AdapterDescription(ctx, r.InterfaceName)
			if err != nil {
				desc = "(" + err.Error() + ")"
			}
			Printer.Printf("  %s  %s\n", r, desc)
		}
		Printer.Println()
	}

	a, err := agent.New(cfg, agent.WithInspector(insp), agent.WithLogger(logger))
	if err != nil {
		return err
	}
	gw, err := a.ResolveGateway(ctx)
	if err != nil {
		return err
	}
	Printer.Printf("Direct gateway: %s\n", gw)
	return nil
}
