package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"grimm.is/directroute/internal/agent"
)

// RunStatus queries a running daemon's /status endpoint and prints it.
func RunStatus(ctx context.Context, w io.Writer, addr string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/status", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s (is metrics.listen set?): %w", addr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status endpoint returned %s", resp.Status)
	}

	var st agent.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	Printer.Fprintf(w, "State:        %s\n", st.Loop.State)
	Printer.Fprintf(w, "Gateway:      %s\n", st.Gateway)
	Printer.Fprintf(w, "Provider:     %s\n", st.Provider)
	Printer.Fprintf(w, "Destinations: %d\n", st.Loop.Destinations)
	Printer.Fprintf(w, "Cycles:       %d\n", st.Loop.Cycles)
	if c := st.Loop.LastCycle; c != nil {
		Printer.Fprintf(w, "Last cycle:   %s (%s, %d errors, took %s)\n", c.ID, c.Label(), c.Errors, c.Duration)
	}
	if !st.Loop.NextWake.IsZero() {
		Printer.Fprintf(w, "Next wake:    %s\n", st.Loop.NextWake.Format(time.RFC3339))
	}
	for _, t := range st.Tasks {
		state := "ok"
		if t.LastError != "" {
			state = t.LastError
		}
		Printer.Fprintf(w, "Task %-14s runs=%d errors=%d %s\n", t.ID, t.RunCount, t.ErrorCount, state)
	}
	return nil
}
