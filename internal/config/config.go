package config

import (
	"time"

	"grimm.is/directroute/internal/brand"
)

// CurrentSchemaVersion defines the current schema version of the configuration.
const CurrentSchemaVersion = "1.0"

// Provider names accepted by the provider setting.
const (
	ProviderAuto    = "auto"
	ProviderRoute   = "route"
	ProviderNetlink = "netlink"
	ProviderDryRun  = "dry-run"
)

// Defaults for the reconciliation loop and route mutations.
const (
	DefaultTunnelMarker        = "forti"
	DefaultSteadyInterval      = 90 * time.Second
	DefaultRetryInterval       = 5 * time.Second
	DefaultCommandTimeout      = 30 * time.Second
	DefaultRouteMetric         = 100
	DefaultDeprioritizedMetric = 1000
	DefaultGatewaySelection    = "last"
	DefaultCheckTimeout        = time.Second
	DefaultCheckInterval       = 30 * time.Second
	DefaultAuditRetentionDays  = 90
)

// DefaultExcludeMarkers are the adapter-description substrings that disqualify
// a default route from being the direct gateway, in addition to the tunnel marker.
var DefaultExcludeMarkers = []string{"vpn", "adapter"}

// Config is the top-level structure for the reconciler configuration.
type Config struct {
	SchemaVersion string `hcl:"schema_version,optional" yaml:"schema_version,omitempty" json:"schema_version,omitempty"`

	// TunnelMarker identifies the tunneling client's virtual adapter by description.
	TunnelMarker   string   `hcl:"tunnel_marker,optional" yaml:"tunnel_marker,omitempty" json:"tunnel_marker,omitempty"`
	ExcludeMarkers []string `hcl:"exclude_markers,optional" yaml:"exclude_markers,omitempty" json:"exclude_markers,omitempty"`

	// AddressList is the destination list file. Relative paths resolve
	// against the executable's directory.
	AddressList string `hcl:"address_list,optional" yaml:"address_list,omitempty" json:"address_list,omitempty"`

	Provider         string `hcl:"provider,optional" yaml:"provider,omitempty" json:"provider,omitempty"`
	GatewaySelection string `hcl:"gateway_selection,optional" yaml:"gateway_selection,omitempty" json:"gateway_selection,omitempty"`

	SteadyInterval string `hcl:"steady_interval,optional" yaml:"steady_interval,omitempty" json:"steady_interval,omitempty"`
	RetryInterval  string `hcl:"retry_interval,optional" yaml:"retry_interval,omitempty" json:"retry_interval,omitempty"`
	CommandTimeout string `hcl:"command_timeout,optional" yaml:"command_timeout,omitempty" json:"command_timeout,omitempty"`

	RouteMetric         int `hcl:"route_metric,optional" yaml:"route_metric,omitempty" json:"route_metric,omitempty"`
	DeprioritizedMetric int `hcl:"deprioritized_metric,optional" yaml:"deprioritized_metric,omitempty" json:"deprioritized_metric,omitempty"`

	// RemoveStaleRoutes controls whether a lone host route is deleted once the
	// destination is reachable directly again. Nil means true.
	RemoveStaleRoutes *bool `hcl:"remove_stale_routes,optional" yaml:"remove_stale_routes,omitempty" json:"remove_stale_routes,omitempty"`

	LogLevel string `hcl:"log_level,optional" yaml:"log_level,omitempty" json:"log_level,omitempty"`
	LogJSON  bool   `hcl:"log_json,optional" yaml:"log_json,omitempty" json:"log_json,omitempty"`

	Syslog       *SyslogConfig       `hcl:"syslog,block" yaml:"syslog,omitempty" json:"syslog,omitempty"`
	Metrics      *MetricsConfig      `hcl:"metrics,block" yaml:"metrics,omitempty" json:"metrics,omitempty"`
	GatewayCheck *GatewayCheckConfig `hcl:"gateway_check,block" yaml:"gateway_check,omitempty" json:"gateway_check,omitempty"`
	Audit        *AuditConfig        `hcl:"audit,block" yaml:"audit,omitempty" json:"audit,omitempty"`
}

// SyslogConfig configures remote syslog forwarding.
type SyslogConfig struct {
	Host     string `hcl:"host" yaml:"host" json:"host"`
	Port     int    `hcl:"port,optional" yaml:"port,omitempty" json:"port,omitempty"`
	Protocol string `hcl:"protocol,optional" yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Tag      string `hcl:"tag,optional" yaml:"tag,omitempty" json:"tag,omitempty"`
	Facility int    `hcl:"facility,optional" yaml:"facility,omitempty" json:"facility,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `hcl:"listen,optional" yaml:"listen,omitempty" json:"listen,omitempty"`
	Path   string `hcl:"path,optional" yaml:"path,omitempty" json:"path,omitempty"`
}

// GatewayCheckConfig configures the ICMP liveness check of the direct gateway.
type GatewayCheckConfig struct {
	Enabled    bool   `hcl:"enabled,optional" yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Interval   string `hcl:"interval,optional" yaml:"interval,omitempty" json:"interval,omitempty"`
	Timeout    string `hcl:"timeout,optional" yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Privileged bool   `hcl:"privileged,optional" yaml:"privileged,omitempty" json:"privileged,omitempty"`
}

// AuditConfig configures the SQLite trail of route changes. An empty Path
// disables it.
type AuditConfig struct {
	Path          string `hcl:"path,optional" yaml:"path,omitempty" json:"path,omitempty"`
	RetentionDays int    `hcl:"retention_days,optional" yaml:"retention_days,omitempty" json:"retention_days,omitempty"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = CurrentSchemaVersion
	}
	if c.TunnelMarker == "" {
		c.TunnelMarker = DefaultTunnelMarker
	}
	if c.ExcludeMarkers == nil {
		c.ExcludeMarkers = append([]string(nil), DefaultExcludeMarkers...)
	}
	if c.AddressList == "" {
		c.AddressList = brand.AddressListName
	}
	if c.Provider == "" {
		c.Provider = ProviderAuto
	}
	if c.GatewaySelection == "" {
		c.GatewaySelection = DefaultGatewaySelection
	}
	if c.SteadyInterval == "" {
		c.SteadyInterval = DefaultSteadyInterval.String()
	}
	if c.RetryInterval == "" {
		c.RetryInterval = DefaultRetryInterval.String()
	}
	if c.CommandTimeout == "" {
		c.CommandTimeout = DefaultCommandTimeout.String()
	}
	if c.RouteMetric == 0 {
		c.RouteMetric = DefaultRouteMetric
	}
	if c.DeprioritizedMetric == 0 {
		c.DeprioritizedMetric = DefaultDeprioritizedMetric
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Metrics != nil && c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Audit != nil && c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	if c.GatewayCheck != nil {
		if c.GatewayCheck.Interval == "" {
			c.GatewayCheck.Interval = DefaultCheckInterval.String()
		}
		if c.GatewayCheck.Timeout == "" {
			c.GatewayCheck.Timeout = DefaultCheckTimeout.String()
		}
	}
}

// RemoveStale reports whether lone stale host routes should be deleted.
func (c *Config) RemoveStale() bool {
	return c.RemoveStaleRoutes == nil || *c.RemoveStaleRoutes
}

// SteadyDelay is the wait after a cycle that changed nothing.
func (c *Config) SteadyDelay() time.Duration {
	return durationOr(c.SteadyInterval, DefaultSteadyInterval)
}

// RetryDelay is the wait after a cycle that mutated a route or hit an error.
func (c *Config) RetryDelay() time.Duration {
	return durationOr(c.RetryInterval, DefaultRetryInterval)
}

// CommandDeadline bounds every external route command.
func (c *Config) CommandDeadline() time.Duration {
	return durationOr(c.CommandTimeout, DefaultCommandTimeout)
}

// CheckTimeout bounds the gateway liveness probe.
func (c *Config) CheckTimeout() time.Duration {
	if c.GatewayCheck == nil {
		return DefaultCheckTimeout
	}
	return durationOr(c.GatewayCheck.Timeout, DefaultCheckTimeout)
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// CheckInterval is the period of the gateway liveness probe.
func (c *Config) CheckInterval() time.Duration {
	if c.GatewayCheck == nil {
		return DefaultCheckInterval
	}
	return durationOr(c.GatewayCheck.Interval, DefaultCheckInterval)
}
