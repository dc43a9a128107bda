//go:build linux

package routetable

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"grimm.is/directroute/internal/network"
)

const printHeader = "Network Destination        Netmask          Gateway       Interface  Metric\n"

// NetlinkProvider manages routes in the main table over netlink. Kernel
// errors are reported as Result.Errors, like the route command's stderr.
type NetlinkProvider struct {
	nl    network.Netlinker
	table int
}

// NewNetlinkProvider creates a provider backed by the real netlink socket.
func NewNetlinkProvider() (Provider, error) {
	return NewNetlinkProviderWith(&network.RealNetlinker{}), nil
}

// NewNetlinkProviderWith creates a provider on top of nl.
func NewNetlinkProviderWith(nl network.Netlinker) *NetlinkProvider {
	return &NetlinkProvider{nl: nl, table: unix.RT_TABLE_MAIN}
}

// Print renders every route whose destination address is dest, one per line:
// destination, mask, gateway, preferred source, metric.
func (p *NetlinkProvider) Print(ctx context.Context, dest netip.Addr) (Result, error) {
	routes, err := p.routesTo(dest)
	if err != nil {
		return Result{Errors: err.Error()}, nil
	}

	var b strings.Builder
	b.WriteString(printHeader)
	for _, r := range routes {
		fmt.Fprintf(&b, "%17s %16s %16s %15s %6d\n",
			r.Dst.IP, net.IP(r.Dst.Mask), gatewayText(r), sourceText(r), r.Priority)
	}
	return Result{Output: b.String()}, nil
}

func (p *NetlinkProvider) Add(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error) {
	dst := hostNet(dest, mask)
	if _, bits := dst.Mask.Size(); bits == 0 {
		return Result{Errors: fmt.Sprintf("route add %s: non-contiguous mask %s", dest, mask)}, nil
	}
	route := &netlink.Route{
		Dst:      dst,
		Gw:       net.IP(gateway.AsSlice()),
		Priority: metric,
		Table:    p.table,
	}
	if err := p.nl.RouteAdd(route); err != nil {
		return Result{Errors: fmt.Sprintf("route add %s: %v", dest, err)}, nil
	}
	return Result{Output: " OK!"}, nil
}

// Change moves the route to dest/mask via gateway to a new metric. The metric
// is part of the kernel's route key, so this is a delete and re-add.
func (p *NetlinkProvider) Change(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error) {
	routes, err := p.routesTo(dest)
	if err != nil {
		return Result{Errors: err.Error()}, nil
	}

	want := hostNet(dest, mask)
	for _, r := range routes {
		if r.Dst.String() != want.String() || !r.Gw.Equal(net.IP(gateway.AsSlice())) {
			continue
		}
		old := r
		if err := p.nl.RouteDel(&old); err != nil {
			return Result{Errors: fmt.Sprintf("route change %s: %v", dest, err)}, nil
		}
		r.Priority = metric
		if err := p.nl.RouteAdd(&r); err != nil {
			// Put the original back so the destination is not left unrouted.
			_ = p.nl.RouteAdd(&old)
			return Result{Errors: fmt.Sprintf("route change %s: %v", dest, err)}, nil
		}
		return Result{Output: " OK!"}, nil
	}
	return Result{Errors: fmt.Sprintf("route change %s: element not found", dest)}, nil
}

// Delete removes every route whose destination address is dest.
func (p *NetlinkProvider) Delete(ctx context.Context, dest netip.Addr) (Result, error) {
	routes, err := p.routesTo(dest)
	if err != nil {
		return Result{Errors: err.Error()}, nil
	}
	if len(routes) == 0 {
		return Result{Errors: fmt.Sprintf("route delete %s: element not found", dest)}, nil
	}
	for i := range routes {
		if err := p.nl.RouteDel(&routes[i]); err != nil {
			return Result{Errors: fmt.Sprintf("route delete %s: %v", dest, err)}, nil
		}
	}
	return Result{Output: " OK!"}, nil
}

func (p *NetlinkProvider) routesTo(dest netip.Addr) ([]netlink.Route, error) {
	all, err := p.nl.RouteListFiltered(netlink.FAMILY_V4, &netlink.Route{Table: p.table}, netlink.RT_FILTER_TABLE)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	ip := net.IP(dest.AsSlice())
	var out []netlink.Route
	for _, r := range all {
		if r.Dst != nil && r.Dst.IP.Equal(ip) {
			out = append(out, r)
		}
	}
	return out, nil
}

func hostNet(dest, mask netip.Addr) *net.IPNet {
	return &net.IPNet{IP: net.IP(dest.AsSlice()), Mask: net.IPMask(mask.AsSlice())}
}

func gatewayText(r netlink.Route) string {
	if r.Gw == nil {
		return "On-link"
	}
	return r.Gw.String()
}

func sourceText(r netlink.Route) string {
	if r.Src == nil {
		return "0.0.0.0"
	}
	return r.Src.String()
}
