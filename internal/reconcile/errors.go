package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"grimm.is/directroute/internal/gateway"
	"grimm.is/directroute/internal/probe"
)

// ErrGatewayUnresolved is returned when a route through the direct gateway
// is needed but the gateway was never resolved.
var ErrGatewayUnresolved = errors.New("cannot add direct route: gateway unresolved")

// QueryError means the route table could not be read for a destination.
type QueryError struct {
	Dest netip.Addr
	Text string
	Err  error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query routes for %s: %v", e.Dest, e.Err)
	}
	return fmt.Sprintf("query routes for %s: %s", e.Dest, e.Text)
}

func (e *QueryError) Unwrap() error { return e.Err }

// MutationError means an add or change was rejected or could not be issued.
type MutationError struct {
	Op   string
	Dest netip.Addr
	Text string
	Err  error
}

func (e *MutationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("route %s %s: %v", e.Op, e.Dest, e.Err)
	}
	return fmt.Sprintf("route %s %s: %s", e.Op, e.Dest, e.Text)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Kind labels an error for logs and metrics.
func Kind(err error) string {
	var (
		qe *QueryError
		me *MutationError
		pe *probe.ProbeError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrGatewayUnresolved), errors.Is(err, gateway.ErrUnresolved):
		return "gateway"
	case errors.Is(err, probe.ErrUnresolvable):
		return "unresolvable"
	case errors.As(err, &pe):
		return "probe"
	case errors.As(err, &qe):
		return "query"
	case errors.As(err, &me):
		return "mutation"
	default:
		return "other"
	}
}
