// Package config handles the reconciler's configuration file.
//
// # Overview
//
// The primary format is HCL. YAML (.yaml, .yml) and JSON (.json) files carry
// the same keys. Every setting has a default, so a missing config file is
// not an error for the daemon; see [Default].
//
// # Environment
//
// HCL files can reference the process environment through the env object:
//
//	address_list = "${env.PROGRAMDATA}/directroute/IPLIST.txt"
//
// # Example
//
//	schema_version      = "1.0"
//	tunnel_marker       = "forti"
//	exclude_markers     = ["vpn", "adapter"]
//	address_list        = "IPLIST.txt"
//	provider            = "auto"      # auto, route, netlink, dry-run
//	gateway_selection   = "last"      # last, first, lowest-metric
//	steady_interval     = "90s"
//	retry_interval      = "5s"
//	command_timeout     = "30s"
//	route_metric        = 100
//	deprioritized_metric = 1000
//	remove_stale_routes = true
//
//	metrics {
//	  listen = "127.0.0.1:9731"
//	}
//
//	gateway_check {
//	  enabled  = true
//	  interval = "30s"
//	  timeout  = "1s"
//	}
//
//	syslog {
//	  host = "10.0.0.5"
//	}
//
//	audit {
//	  path           = "/var/lib/directroute/audit.db"
//	  retention_days = 30
//	}
package config
