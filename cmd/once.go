package cmd

import (
	"context"
	"os"

	"grimm.is/directroute/internal/agent"
	"grimm.is/directroute/internal/routetable"
)

// RunOnce runs a single reconciliation cycle and prints its outcome.
// With DryRun set, the commands that would have run are printed too.
func RunOnce(ctx context.Context, opts Options) error {
	cfg, err := loadConfiguration(opts)
	if err != nil {
		return err
	}
	logger, closer, err := initializeLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	var agentOpts []agent.Option
	var dry *routetable.DryRunProvider
	if opts.DryRun {
		p, err := agent.NewProvider(cfg, nil)
		if err != nil {
			return err
		}
		dry, _ = p.(*routetable.DryRunProvider)
		agentOpts = append(agentOpts, agent.WithProvider(p))
	}
	agentOpts = append(agentOpts, agent.WithLogger(logger))

	a, err := agent.New(cfg, agentOpts...)
	if err != nil {
		return err
	}
	defer a.Close()
	out, err := a.RunOnce(ctx)
	if err != nil {
		return err
	}

	Printer.Printf("Cycle:        %s\n", out.ID)
	Printer.Printf("Destinations: %d\n", out.Processed)
	Printer.Printf("Errors:       %d\n", out.Errors)
	Printer.Printf("Outcome:      %s\n", out.Label())
	Printer.Printf("Took:         %s\n", out.Duration)
	if dry != nil {
		cmds := dry.Commands()
		if len(cmds) > 0 {
			Printer.Println("\n[DRY RUN] Route commands:")
			for _, c := range cmds {
				Printer.Println(c)
			}
		}
	}
	return nil
}
