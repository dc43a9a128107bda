package network

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// udpRouteSource asks the kernel which local address it would bind for dst
// by connecting an unbound UDP socket. Nothing is sent.
func udpRouteSource(ctx context.Context, dst netip.Addr) (netip.Addr, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", netip.AddrPortFrom(dst, 9).String())
	if err != nil {
		return netip.Addr{}, fmt.Errorf("routing interface query for %s: %w", dst, err)
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, fmt.Errorf("routing interface query for %s: unexpected local address %v", dst, conn.LocalAddr())
	}
	addr, ok := netip.AddrFromSlice(local.IP)
	if !ok {
		return netip.Addr{}, fmt.Errorf("routing interface query for %s: invalid local address %v", dst, local.IP)
	}
	return addr.Unmap(), nil
}

// stdInterfaceByAddress scans the unicast addresses of every interface.
func stdInterfaceByAddress(addr netip.Addr) (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("list interfaces: %w", err)
	}
	for _, ifi := range ifaces {
		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipNetContains(a, addr) {
				return ifi.Name, nil
			}
		}
	}
	return "", fmt.Errorf("%w %s", ErrInterfaceNotFound, addr)
}

func ipNetContains(a net.Addr, want netip.Addr) bool {
	var ip net.IP
	switch v := a.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	default:
		return false
	}
	got, ok := netip.AddrFromSlice(ip)
	return ok && got.Unmap() == want.Unmap()
}
