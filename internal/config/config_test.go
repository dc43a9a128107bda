package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, CurrentSchemaVersion, cfg.SchemaVersion)
	assert.Equal(t, "forti", cfg.TunnelMarker)
	assert.Equal(t, []string{"vpn", "adapter"}, cfg.ExcludeMarkers)
	assert.Equal(t, "IPLIST.txt", cfg.AddressList)
	assert.Equal(t, ProviderAuto, cfg.Provider)
	assert.Equal(t, "last", cfg.GatewaySelection)
	assert.Equal(t, 90*time.Second, cfg.SteadyDelay())
	assert.Equal(t, 5*time.Second, cfg.RetryDelay())
	assert.Equal(t, 30*time.Second, cfg.CommandDeadline())
	assert.Equal(t, 100, cfg.RouteMetric)
	assert.Equal(t, 1000, cfg.DeprioritizedMetric)
	assert.True(t, cfg.RemoveStale())
	assert.NoError(t, cfg.Validate())
}

func TestDefault_ExcludeMarkersNotShared(t *testing.T) {
	a := Default()
	a.ExcludeMarkers[0] = "changed"
	assert.Equal(t, "vpn", Default().ExcludeMarkers[0])
}

func TestRemoveStale(t *testing.T) {
	off := false
	cfg := Default()
	cfg.RemoveStaleRoutes = &off
	assert.False(t, cfg.RemoveStale())
}

func TestDurations_FallBackOnGarbage(t *testing.T) {
	cfg := Default()
	cfg.SteadyInterval = "soon"
	cfg.RetryInterval = "-1s"
	assert.Equal(t, DefaultSteadyInterval, cfg.SteadyDelay())
	assert.Equal(t, DefaultRetryInterval, cfg.RetryDelay())
	assert.Equal(t, DefaultCheckTimeout, cfg.CheckTimeout())

	cfg.GatewayCheck = &GatewayCheckConfig{Timeout: "250ms"}
	assert.Equal(t, 250*time.Millisecond, cfg.CheckTimeout())
	assert.Equal(t, DefaultCheckInterval, cfg.CheckInterval())
	cfg.GatewayCheck.Interval = "10s"
	assert.Equal(t, 10*time.Second, cfg.CheckInterval())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"schema", func(c *Config) { c.SchemaVersion = "2.0" }, "schema_version"},
		{"empty marker", func(c *Config) { c.TunnelMarker = " " }, "tunnel_marker"},
		{"empty exclude", func(c *Config) { c.ExcludeMarkers = []string{"vpn", ""} }, "exclude_markers[1]"},
		{"provider", func(c *Config) { c.Provider = "ipfw" }, "unknown provider"},
		{"selection", func(c *Config) { c.GatewaySelection = "random" }, "gateway_selection"},
		{"bad interval", func(c *Config) { c.RetryInterval = "fast" }, "retry_interval"},
		{"negative interval", func(c *Config) { c.SteadyInterval = "-5s" }, "steady_interval must be positive"},
		{"metric", func(c *Config) { c.RouteMetric = 10000 }, "route_metric"},
		{"syslog host", func(c *Config) { c.Syslog = &SyslogConfig{} }, "syslog: host is required"},
		{"syslog protocol", func(c *Config) { c.Syslog = &SyslogConfig{Host: "h", Protocol: "sctp"} }, "invalid protocol"},
		{"metrics listen", func(c *Config) { c.Metrics = &MetricsConfig{Listen: "9731"} }, "metrics: invalid listen"},
		{"check interval", func(c *Config) { c.GatewayCheck = &GatewayCheckConfig{Interval: "0s"} }, "gateway_check.interval"},
		{"audit retention", func(c *Config) { c.Audit = &AuditConfig{Path: "a.db", RetentionDays: -1} }, "retention_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Provider = "nope"
	cfg.GatewaySelection = "nope"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
	assert.Contains(t, err.Error(), "gateway_selection")
}
