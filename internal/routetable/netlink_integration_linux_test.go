//go:build linux

package routetable

import (
	"context"
	"net"
	"net/netip"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"

	"grimm.is/directroute/internal/testutil"
)

// Exercises the provider against a real kernel table inside a throwaway netns.
func TestNetlinkProvider_Netns(t *testing.T) {
	testutil.WithNetns(t, func() {
		dummy := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: "dr0"}}
		require.NoError(t, netlink.LinkAdd(dummy))
		link, err := netlink.LinkByName("dr0")
		require.NoError(t, err)
		addr, err := netlink.ParseAddr("192.168.77.2/24")
		require.NoError(t, err)
		require.NoError(t, netlink.AddrAdd(link, addr))
		require.NoError(t, netlink.LinkSetUp(link))

		p, err := NewNetlinkProvider()
		require.NoError(t, err)

		ctx := context.Background()
		d := netip.MustParseAddr("203.0.113.9")
		mask := netip.MustParseAddr("255.255.255.255")
		gw := netip.MustParseAddr("192.168.77.1")

		res, err := p.Add(ctx, d, mask, gw, 100)
		require.NoError(t, err)
		require.False(t, res.Failed(), res.Errors)

		res, err = p.Print(ctx, d)
		require.NoError(t, err)
		entries := slices.Collect(Parse(res.Output, d))
		require.Len(t, entries, 1)
		assert.Equal(t, gw, entries[0].Gateway)
		assert.Equal(t, 100, entries[0].Metric)

		res, err = p.Change(ctx, d, mask, gw, 1000)
		require.NoError(t, err)
		require.False(t, res.Failed(), res.Errors)

		res, err = p.Print(ctx, d)
		require.NoError(t, err)
		entries = slices.Collect(Parse(res.Output, d))
		require.Len(t, entries, 1)
		assert.Equal(t, 1000, entries[0].Metric)

		res, err = p.Delete(ctx, d)
		require.NoError(t, err)
		require.False(t, res.Failed(), res.Errors)

		routes, err := netlink.RouteGet(net.ParseIP("203.0.113.9"))
		assert.True(t, err != nil || len(routes) == 0 || routes[0].Gw == nil)
	})
}
