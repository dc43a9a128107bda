//go:build linux

package network

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/safchain/ethtool"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// DriverLookup returns the kernel driver name and bus info for an interface.
type DriverLookup func(iface string) (driver, bus string, err error)

// EthtoolDriver queries driver info over an ethtool socket.
func EthtoolDriver(iface string) (string, string, error) {
	h, err := ethtool.NewEthtool()
	if err != nil {
		return "", "", fmt.Errorf("failed to open ethtool handle: %w", err)
	}
	defer h.Close()

	info, err := h.DriverInfo(iface)
	if err != nil {
		return "", "", fmt.Errorf("ethtool DriverInfo failed for %s: %w", iface, err)
	}
	return info.Driver, info.BusInfo, nil
}

// LinuxInspector answers routing questions over netlink.
type LinuxInspector struct {
	nl     Netlinker
	driver DriverLookup
}

// NewLinuxInspector creates an inspector. A nil driver lookup skips ethtool.
func NewLinuxInspector(nl Netlinker, driver DriverLookup) *LinuxInspector {
	return &LinuxInspector{nl: nl, driver: driver}
}

func newPlatformInspector(CommandExecutor) (Inspector, error) {
	return NewLinuxInspector(&RealNetlinker{}, EthtoolDriver), nil
}

// DefaultRoutes lists default routes of the main table.
func (l *LinuxInspector) DefaultRoutes(ctx context.Context) ([]DefaultRoute, error) {
	routes, err := l.nl.RouteListFiltered(netlink.FAMILY_V4,
		&netlink.Route{Table: unix.RT_TABLE_MAIN}, netlink.RT_FILTER_TABLE)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	var out []DefaultRoute
	for _, r := range routes {
		if !isDefault(r.Dst) || r.Gw == nil {
			continue
		}
		gw, ok := netip.AddrFromSlice(r.Gw)
		if !ok {
			continue
		}
		dr := DefaultRoute{
			Gateway:        gw.Unmap(),
			InterfaceIndex: r.LinkIndex,
			Metric:         r.Priority,
		}
		if link, err := l.nl.LinkByIndex(r.LinkIndex); err == nil {
			dr.InterfaceName = link.Attrs().Name
		}
		out = append(out, dr)
	}
	return out, nil
}

func isDefault(dst *net.IPNet) bool {
	if dst == nil {
		return true
	}
	ones, _ := dst.Mask.Size()
	return ones == 0 && dst.IP.IsUnspecified()
}

// RouteSource asks the kernel for the preferred source of the route to dst.
func (l *LinuxInspector) RouteSource(ctx context.Context, dst netip.Addr) (netip.Addr, error) {
	routes, err := l.nl.RouteGet(net.IP(dst.AsSlice()))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("routing interface query for %s: %w", dst, err)
	}
	for _, r := range routes {
		if src, ok := netip.AddrFromSlice(r.Src); ok && src.IsValid() {
			return src.Unmap(), nil
		}
	}
	return netip.Addr{}, fmt.Errorf("routing interface query for %s: no source address", dst)
}

// InterfaceByAddress scans the IPv4 addresses of every link.
func (l *LinuxInspector) InterfaceByAddress(ctx context.Context, addr netip.Addr) (string, error) {
	links, err := l.nl.LinkList()
	if err != nil {
		return "", fmt.Errorf("list links: %w", err)
	}
	for _, link := range links {
		addrs, err := l.nl.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if a.IPNet == nil {
				continue
			}
			if got, ok := netip.AddrFromSlice(a.IP); ok && got.Unmap() == addr {
				return link.Attrs().Name, nil
			}
		}
	}
	return "", fmt.Errorf("%w %s", ErrInterfaceNotFound, addr)
}

// AdapterDescription joins the link alias, driver and bus info, and link kind.
// Links without a driver (tun, ppp, wireguard) still report their kind.
func (l *LinuxInspector) AdapterDescription(ctx context.Context, name string) (string, error) {
	link, err := l.nl.LinkByName(name)
	if err != nil {
		return "", fmt.Errorf("link %s: %w", name, err)
	}

	var parts []string
	if alias := strings.TrimSpace(link.Attrs().Alias); alias != "" {
		parts = append(parts, alias)
	}
	if l.driver != nil {
		if drv, bus, err := l.driver(name); err == nil {
			if drv != "" {
				parts = append(parts, drv)
			}
			if bus != "" {
				parts = append(parts, bus)
			}
		}
	}
	if kind := link.Type(); kind != "" {
		parts = append(parts, kind)
	}
	return strings.Join(parts, " "), nil
}
