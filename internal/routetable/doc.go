// Package routetable reads and mutates the OS IPv4 routing table.
//
// A [Provider] speaks the four operations of the classic `route` command:
// print, add, change and delete. [CLIProvider] runs the command itself,
// [NetlinkProvider] talks to the Linux kernel directly and renders its
// answers in the same column layout, and [DryRunProvider] records
// mutations without applying them.
//
// Query output is turned into entries by [Parse]. Each relevant line carries,
// in order, the destination, mask, gateway, interface address and metric:
//
//	Network Destination        Netmask          Gateway       Interface  Metric
//	          8.8.8.8  255.255.255.255      192.168.1.1    192.168.1.20    100
package routetable
