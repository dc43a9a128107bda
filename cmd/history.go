package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"grimm.is/directroute/internal/audit"
	"grimm.is/directroute/internal/clock"
)

// HistoryOptions filter the audit trail.
type HistoryOptions struct {
	Since       time.Duration
	Destination string
	Action      string
	Limit       int
}

// RunHistory prints recorded route changes, newest first.
func RunHistory(ctx context.Context, w io.Writer, opts Options, h HistoryOptions) error {
	cfg, err := loadConfiguration(opts)
	if err != nil {
		return err
	}
	if cfg.Audit == nil || cfg.Audit.Path == "" {
		return fmt.Errorf("audit trail disabled: set audit.path in %s", opts.ConfigFile)
	}

	store, err := audit.NewStore(cfg.Audit.Path, cfg.Audit.RetentionDays)
	if err != nil {
		return err
	}
	defer store.Close()

	f := audit.Filter{Destination: h.Destination, Action: h.Action, Limit: h.Limit}
	if h.Action != "" && !strings.HasPrefix(h.Action, "route.") {
		f.Action = "route." + h.Action
	}
	if h.Since > 0 {
		f.Since = clock.Now().Add(-h.Since)
	}

	events, err := store.Query(ctx, f)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		Printer.Fprintln(w, "No route changes recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	Printer.Fprintln(tw, "TIME\tACTION\tDESTINATION\tRESULT\tDETAILS")
	for _, e := range events {
		details := "-"
		if len(e.Details) > 0 {
			details = fmt.Sprintf("gateway=%v metric=%v", e.Details["gateway"], e.Details["metric"])
			if _, ok := e.Details["gateway"]; !ok {
				details = fmt.Sprintf("%v", e.Details["status"])
			}
		}
		Printer.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Action, e.Destination, e.Result, details)
	}
	return tw.Flush()
}
