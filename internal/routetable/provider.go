package routetable

import (
	"context"
	"errors"
	"net/netip"
)

// ErrNetlinkUnsupported is returned when the netlink provider is requested
// outside Linux.
var ErrNetlinkUnsupported = errors.New("netlink provider requires linux")

// Result is the text a provider operation produced. Errors holds the error
// stream; a non-empty value means the OS rejected the operation.
type Result struct {
	Output string
	Errors string
}

// Failed reports whether the operation produced error text.
func (r Result) Failed() bool {
	return r.Errors != ""
}

// Text is the combined output, as an operator would see it.
func (r Result) Text() string {
	switch {
	case r.Output == "":
		return r.Errors
	case r.Errors == "":
		return r.Output
	default:
		return r.Output + "\n" + r.Errors
	}
}

// Provider issues queries and mutations against the OS routing table.
// A returned error means the operation could not be attempted at all;
// rejections by the OS come back as Result.Errors.
type Provider interface {
	Print(ctx context.Context, dest netip.Addr) (Result, error)
	Add(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error)
	Change(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error)
	Delete(ctx context.Context, dest netip.Addr) (Result, error)
}
