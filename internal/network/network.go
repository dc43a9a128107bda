package network

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
)

// ErrInterfaceNotFound is returned when no local interface owns an address.
var ErrInterfaceNotFound = errors.New("no interface owns address")

// DefaultRoute is one IPv4 default route (destination 0.0.0.0).
type DefaultRoute struct {
	Gateway        netip.Addr
	InterfaceIndex int
	InterfaceName  string
	Metric         int
}

func (r DefaultRoute) String() string {
	return fmt.Sprintf("0.0.0.0/0 via %s dev %s(%d) metric %d", r.Gateway, r.InterfaceName, r.InterfaceIndex, r.Metric)
}

// Inspector is a read-only view of the host's routing state.
type Inspector interface {
	// DefaultRoutes lists IPv4 default routes in the order the OS reports them.
	DefaultRoutes(ctx context.Context) ([]DefaultRoute, error)

	// RouteSource returns the local address the OS would currently use to
	// reach dst.
	RouteSource(ctx context.Context, dst netip.Addr) (netip.Addr, error)

	// InterfaceByAddress returns the name of the interface that has addr
	// assigned, or ErrInterfaceNotFound.
	InterfaceByAddress(ctx context.Context, addr netip.Addr) (string, error)

	// AdapterDescription returns the human-readable product description of
	// the named interface.
	AdapterDescription(ctx context.Context, name string) (string, error)
}

// Result holds the separated output streams of a command.
type Result struct {
	Stdout string
	Stderr string
}

// Failed reports whether the command wrote to its error stream.
func (r Result) Failed() bool {
	return r.Stderr != ""
}

// CommandExecutor is an interface that abstracts executing external commands.
type CommandExecutor interface {
	RunCommand(ctx context.Context, name string, arg ...string) (Result, error)
}

// NewInspector returns the platform inspector. exec is used on platforms that
// shell out for routing information; nil means DefaultCommandExecutor.
func NewInspector(exec CommandExecutor) (Inspector, error) {
	if exec == nil {
		exec = DefaultCommandExecutor
	}
	return newPlatformInspector(exec)
}
