// Package network inspects the host's IPv4 routing state.
//
// # Overview
//
// The [Inspector] answers the questions the reconciler asks of the
// operating system:
//
//   - which default routes exist and through which adapter ([Inspector.DefaultRoutes])
//   - which local address the OS would use to reach a destination ([Inspector.RouteSource])
//   - which interface owns a local unicast address ([Inspector.InterfaceByAddress])
//   - what an adapter calls itself ([Inspector.AdapterDescription])
//
// # Platforms
//
// On Linux everything goes through netlink (github.com/vishvananda/netlink)
// and adapter descriptions come from the ethtool driver info
// (github.com/safchain/ethtool) plus the link alias and kind. On Windows the
// IP Helper adapter table (golang.org/x/sys/windows) supplies gateways,
// metrics and product descriptions. Elsewhere the standard library and
// `route -n get default` are used.
//
// External commands run through a [CommandExecutor] so they can be mocked or
// replaced with a [DryRunExecutor].
package network
