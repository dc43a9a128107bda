//go:build !linux && !windows

package network

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// StdInspector covers the BSDs and macOS with the route command and package net.
// Adapters have no product description here, so the interface name stands in.
type StdInspector struct {
	exec CommandExecutor
}

func newPlatformInspector(exec CommandExecutor) (Inspector, error) {
	return &StdInspector{exec: exec}, nil
}

func (s *StdInspector) DefaultRoutes(ctx context.Context) ([]DefaultRoute, error) {
	res, err := s.exec.RunCommand(ctx, "route", "-n", "get", "default")
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, fmt.Errorf("route get default: %s", res.Stderr)
	}
	dr, err := parseRouteGet(res.Stdout)
	if err != nil {
		return nil, err
	}
	if ifi, err := net.InterfaceByName(dr.InterfaceName); err == nil {
		dr.InterfaceIndex = ifi.Index
	}
	return []DefaultRoute{dr}, nil
}

func (s *StdInspector) RouteSource(ctx context.Context, dst netip.Addr) (netip.Addr, error) {
	return udpRouteSource(ctx, dst)
}

func (s *StdInspector) InterfaceByAddress(ctx context.Context, addr netip.Addr) (string, error) {
	return stdInterfaceByAddress(addr)
}

func (s *StdInspector) AdapterDescription(ctx context.Context, name string) (string, error) {
	if _, err := net.InterfaceByName(name); err != nil {
		return "", fmt.Errorf("adapter %q: %w", name, err)
	}
	return name, nil
}
