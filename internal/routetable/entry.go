package routetable

import (
	"fmt"
	"net/netip"
)

// Column positions in a tokenized route line.
const (
	colDestination = 0
	colMask        = 1
	colGateway     = 2
	colInterface   = 3
	colMetric      = 4
	minColumns     = colMetric + 1
)

// Entry is one parsed route for a destination.
type Entry struct {
	Destination netip.Addr
	Mask        netip.Addr
	Gateway     netip.Addr
	Metric      int
}

func (e Entry) String() string {
	return fmt.Sprintf("%s mask %s via %s metric %d", e.Destination, e.Mask, e.Gateway, e.Metric)
}

// Row is a line of query output that starts with the destination's text.
type Row struct {
	Line   string
	Tokens []string
	// Exact is set when the first token is the destination itself rather
	// than a longer address sharing its prefix.
	Exact bool
}

// HostMask derives a mask from dest's own octets: zero octets stay 0,
// every other octet becomes 255.
func HostMask(dest netip.Addr) netip.Addr {
	b := dest.As4()
	for i := range b {
		if b[i] != 0 {
			b[i] = 255
		}
	}
	return netip.AddrFrom4(b)
}
