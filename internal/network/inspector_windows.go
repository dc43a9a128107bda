//go:build windows

package network

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// WindowsInspector reads the IP Helper adapter table.
type WindowsInspector struct{}

func newPlatformInspector(CommandExecutor) (Inspector, error) {
	return &WindowsInspector{}, nil
}

type adapter struct {
	index       int
	name        string
	description string
	metric      int
	unicast     []netip.Addr
	gateways    []netip.Addr
}

// adapters returns the IPv4 adapter table including gateway addresses.
func adapters() ([]adapter, error) {
	var b []byte
	l := uint32(15000) // recommended initial size
	flags := uint32(windows.GAA_FLAG_INCLUDE_GATEWAYS | windows.GAA_FLAG_SKIP_ANYCAST |
		windows.GAA_FLAG_SKIP_MULTICAST | windows.GAA_FLAG_SKIP_DNS_SERVER)
	for {
		b = make([]byte, l)
		first := (*windows.IpAdapterAddresses)(unsafe.Pointer(&b[0]))
		err := windows.GetAdaptersAddresses(windows.AF_INET, flags, 0, first, &l)
		if err == nil {
			if l == 0 {
				return nil, nil
			}
			break
		}
		if !errors.Is(err, windows.ERROR_BUFFER_OVERFLOW) {
			return nil, fmt.Errorf("GetAdaptersAddresses: %w", err)
		}
		if l <= uint32(len(b)) {
			return nil, fmt.Errorf("GetAdaptersAddresses: %w", err)
		}
	}

	var out []adapter
	for aa := (*windows.IpAdapterAddresses)(unsafe.Pointer(&b[0])); aa != nil; aa = aa.Next {
		a := adapter{
			index:       int(aa.IfIndex),
			name:        windows.UTF16PtrToString(aa.FriendlyName),
			description: windows.UTF16PtrToString(aa.Description),
			metric:      int(aa.Ipv4Metric),
		}
		for u := aa.FirstUnicastAddress; u != nil; u = u.Next {
			if ip, ok := netip.AddrFromSlice(u.Address.IP()); ok {
				a.unicast = append(a.unicast, ip.Unmap())
			}
		}
		for g := aa.FirstGatewayAddress; g != nil; g = g.Next {
			if ip, ok := netip.AddrFromSlice(g.Address.IP()); ok && ip.Unmap().Is4() {
				a.gateways = append(a.gateways, ip.Unmap())
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (w *WindowsInspector) DefaultRoutes(ctx context.Context) ([]DefaultRoute, error) {
	table, err := adapters()
	if err != nil {
		return nil, err
	}
	var routes []DefaultRoute
	for _, a := range table {
		for _, gw := range a.gateways {
			if gw.IsUnspecified() {
				continue
			}
			routes = append(routes, DefaultRoute{
				Gateway:        gw,
				InterfaceIndex: a.index,
				InterfaceName:  a.name,
				Metric:         a.metric,
			})
		}
	}
	return routes, nil
}

func (w *WindowsInspector) RouteSource(ctx context.Context, dst netip.Addr) (netip.Addr, error) {
	return udpRouteSource(ctx, dst)
}

func (w *WindowsInspector) InterfaceByAddress(ctx context.Context, addr netip.Addr) (string, error) {
	table, err := adapters()
	if err != nil {
		return "", err
	}
	for _, a := range table {
		for _, u := range a.unicast {
			if u == addr {
				return a.name, nil
			}
		}
	}
	return "", fmt.Errorf("%w %s", ErrInterfaceNotFound, addr)
}

func (w *WindowsInspector) AdapterDescription(ctx context.Context, name string) (string, error) {
	table, err := adapters()
	if err != nil {
		return "", err
	}
	for _, a := range table {
		if strings.EqualFold(a.name, name) {
			return a.description, nil
		}
	}
	return "", fmt.Errorf("adapter %q not found", name)
}
