package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

var validSelections = map[string]bool{"last": true, "first": true, "lowest-metric": true}

var validProviders = map[string]bool{
	ProviderAuto: true, ProviderRoute: true, ProviderNetlink: true, ProviderDryRun: true,
}

// Validate checks the configuration for values the reconciler cannot act on.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.SchemaVersion != "" && c.SchemaVersion != CurrentSchemaVersion {
		errs = append(errs, fmt.Errorf("unsupported schema_version %q (want %s)", c.SchemaVersion, CurrentSchemaVersion))
	}
	if strings.TrimSpace(c.TunnelMarker) == "" {
		errs = append(errs, errors.New("tunnel_marker must not be empty"))
	}
	for i, m := range c.ExcludeMarkers {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, fmt.Errorf("exclude_markers[%d] must not be empty", i))
		}
	}
	if !validProviders[c.Provider] {
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if !validSelections[c.GatewaySelection] {
		errs = append(errs, fmt.Errorf("unknown gateway_selection %q", c.GatewaySelection))
	}

	for name, v := range map[string]string{
		"steady_interval": c.SteadyInterval,
		"retry_interval":  c.RetryInterval,
		"command_timeout": c.CommandTimeout,
	} {
		if err := checkDuration(name, v); err != nil {
			errs = append(errs, err)
		}
	}

	if c.RouteMetric < 1 || c.RouteMetric > 9999 {
		errs = append(errs, fmt.Errorf("route_metric %d out of range 1-9999", c.RouteMetric))
	}
	if c.DeprioritizedMetric < 1 || c.DeprioritizedMetric > 9999 {
		errs = append(errs, fmt.Errorf("deprioritized_metric %d out of range 1-9999", c.DeprioritizedMetric))
	}

	if s := c.Syslog; s != nil {
		if s.Host == "" {
			errs = append(errs, errors.New("syslog: host is required"))
		}
		if s.Port < 0 || s.Port > 65535 {
			errs = append(errs, fmt.Errorf("syslog: invalid port %d", s.Port))
		}
		if p := s.Protocol; p != "" && p != "udp" && p != "tcp" {
			errs = append(errs, fmt.Errorf("syslog: invalid protocol %q", p))
		}
	}
	if m := c.Metrics; m != nil && m.Listen != "" {
		if _, _, err := net.SplitHostPort(m.Listen); err != nil {
			errs = append(errs, fmt.Errorf("metrics: invalid listen address %q: %w", m.Listen, err))
		}
	}
	if g := c.GatewayCheck; g != nil {
		if err := checkDuration("gateway_check.timeout", g.Timeout); err != nil {
			errs = append(errs, err)
		}
		if err := checkDuration("gateway_check.interval", g.Interval); err != nil {
			errs = append(errs, err)
		}
	}

	if a := c.Audit; a != nil && a.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("audit: retention_days must not be negative"))
	}

	return errors.Join(errs...)
}

func checkDuration(name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", name, v)
	}
	return nil
}
