package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"grimm.is/directroute/internal/brand"
	"grimm.is/directroute/internal/config"
	"grimm.is/directroute/internal/targets"
)

// RunCheck validates the configuration file and the address list it names.
func RunCheck(w io.Writer, opts Options, verbose bool) error {
	if len(opts.ConfigFile) == 0 {
		return fmt.Errorf("usage: %s check [-v] <config-file>\nExample: %s check -v %s", brand.BinaryName, brand.BinaryName, brand.DefaultConfigPath())
	}

	cfg, err := loadConfiguration(opts)
	if err != nil {
		return err
	}

	path := targets.ResolvePath(cfg.AddressList)
	dests, err := targets.LoadFile(path)
	if err != nil {
		return fmt.Errorf("address list invalid: %w", err)
	}

	Printer.Fprintf(w, "Configuration valid!\n")
	Printer.Fprintf(w, "Schema Version: %s\n", cfg.SchemaVersion)
	Printer.Fprintf(w, "Address List:   %s\n", path)
	Printer.Fprintf(w, "Destinations:   %d\n", len(dests))

	if verbose {
		Printer.Fprintln(w)
		printSummary(w, cfg, dests)
	}
	return nil
}

func printSummary(out io.Writer, cfg *config.Config, dests []targets.Destination) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	Printer.Fprintln(w, "SETTING\tVALUE")
	Printer.Fprintf(w, "tunnel_marker\t%s\n", cfg.TunnelMarker)
	Printer.Fprintf(w, "exclude_markers\t%v\n", cfg.ExcludeMarkers)
	Printer.Fprintf(w, "provider\t%s\n", cfg.Provider)
	Printer.Fprintf(w, "gateway_selection\t%s\n", cfg.GatewaySelection)
	Printer.Fprintf(w, "steady_interval\t%s\n", cfg.SteadyDelay())
	Printer.Fprintf(w, "retry_interval\t%s\n", cfg.RetryDelay())
	Printer.Fprintf(w, "route_metric\t%d\n", cfg.RouteMetric)
	Printer.Fprintf(w, "deprioritized_metric\t%d\n", cfg.DeprioritizedMetric)
	Printer.Fprintf(w, "remove_stale_routes\t%t\n", cfg.RemoveStale())
	if cfg.Metrics != nil && cfg.Metrics.Listen != "" {
		Printer.Fprintf(w, "metrics\t%s%s\n", cfg.Metrics.Listen, cfg.Metrics.Path)
	}
	if cfg.GatewayCheck != nil && cfg.GatewayCheck.Enabled {
		Printer.Fprintf(w, "gateway_check\tevery %s, timeout %s\n", cfg.CheckInterval(), cfg.CheckTimeout())
	}
	Printer.Fprintln(w)
	w.Flush()

	Printer.Fprintln(w, "DESTINATION")
	for _, d := range dests {
		Printer.Fprintf(w, "%s\n", d)
	}
	w.Flush()
}
