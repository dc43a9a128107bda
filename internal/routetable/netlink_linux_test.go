//go:build linux

package routetable

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"

	"grimm.is/directroute/internal/network"
)

func hostRoute(dst, gw string, metric int) netlink.Route {
	return netlink.Route{
		Dst:      &net.IPNet{IP: net.ParseIP(dst).To4(), Mask: net.CIDRMask(32, 32)},
		Gw:       net.ParseIP(gw).To4(),
		Src:      net.ParseIP("192.168.1.20").To4(),
		Priority: metric,
		Table:    254,
	}
}

func TestNetlinkProvider_PrintParses(t *testing.T) {
	nl := new(network.MockNetlinker)
	nl.On("RouteListFiltered", netlink.FAMILY_V4, mock.Anything, mock.Anything).Return([]netlink.Route{
		{Dst: nil, Gw: net.ParseIP("192.168.1.1")},
		hostRoute("1.2.3.4", "192.168.1.1", 100),
		hostRoute("1.2.3.4", "10.0.0.1", 5),
		hostRoute("8.8.8.8", "10.0.0.1", 5),
	}, nil)

	p := NewNetlinkProviderWith(nl)
	res, err := p.Print(context.Background(), dest)
	require.NoError(t, err)
	require.False(t, res.Failed())

	entries := slices.Collect(Parse(res.Output, dest))
	require.Len(t, entries, 2)
	assert.Equal(t, netip.MustParseAddr("192.168.1.1"), entries[0].Gateway)
	assert.Equal(t, 100, entries[0].Metric)
	assert.Equal(t, netip.MustParseAddr("255.255.255.255"), entries[0].Mask)
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), entries[1].Gateway)
	assert.Equal(t, 5, entries[1].Metric)
}

func TestNetlinkProvider_PrintListFailure(t *testing.T) {
	nl := new(network.MockNetlinker)
	nl.On("RouteListFiltered", mock.Anything, mock.Anything, mock.Anything).Return([]netlink.Route(nil), errors.New("EPERM"))

	res, err := NewNetlinkProviderWith(nl).Print(context.Background(), dest)
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Errors, "EPERM")
}

func TestNetlinkProvider_Add(t *testing.T) {
	nl := new(network.MockNetlinker)
	nl.On("RouteAdd", mock.MatchedBy(func(r *netlink.Route) bool {
		ones, _ := r.Dst.Mask.Size()
		return r.Dst.IP.Equal(net.ParseIP("8.8.8.8")) && ones == 32 &&
			r.Gw.Equal(net.ParseIP("192.168.1.1")) && r.Priority == 100 && r.Table == 254
	})).Return(nil)

	p := NewNetlinkProviderWith(nl)
	res, err := p.Add(context.Background(), netip.MustParseAddr("8.8.8.8"),
		netip.MustParseAddr("255.255.255.255"), netip.MustParseAddr("192.168.1.1"), 100)
	require.NoError(t, err)
	assert.False(t, res.Failed())
	nl.AssertExpectations(t)
}

func TestNetlinkProvider_AddRejectsNonContiguousMask(t *testing.T) {
	nl := new(network.MockNetlinker)
	p := NewNetlinkProviderWith(nl)

	res, err := p.Add(context.Background(), netip.MustParseAddr("10.0.0.5"),
		netip.MustParseAddr("255.0.0.255"), netip.MustParseAddr("192.168.1.1"), 100)
	require.NoError(t, err)
	assert.True(t, res.Failed())
	nl.AssertNotCalled(t, "RouteAdd", mock.Anything)
}

func TestNetlinkProvider_AddKernelError(t *testing.T) {
	nl := new(network.MockNetlinker)
	nl.On("RouteAdd", mock.Anything).Return(errors.New("file exists"))

	res, err := NewNetlinkProviderWith(nl).Add(context.Background(), dest,
		netip.MustParseAddr("255.255.255.255"), netip.MustParseAddr("192.168.1.1"), 100)
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "file exists")
}

func TestNetlinkProvider_Change(t *testing.T) {
	nl := new(network.MockNetlinker)
	nl.On("RouteListFiltered", mock.Anything, mock.Anything, mock.Anything).Return([]netlink.Route{
		hostRoute("1.2.3.4", "192.168.1.1", 100),
		hostRoute("1.2.3.4", "10.0.0.1", 5),
	}, nil)
	nl.On("RouteDel", mock.MatchedBy(func(r *netlink.Route) bool {
		return r.Gw.Equal(net.ParseIP("10.0.0.1")) && r.Priority == 5
	})).Return(nil).Once()
	nl.On("RouteAdd", mock.MatchedBy(func(r *netlink.Route) bool {
		return r.Gw.Equal(net.ParseIP("10.0.0.1")) && r.Priority == 1000
	})).Return(nil).Once()

	res, err := NewNetlinkProviderWith(nl).Change(context.Background(), dest,
		netip.MustParseAddr("255.255.255.255"), netip.MustParseAddr("10.0.0.1"), 1000)
	require.NoError(t, err)
	assert.False(t, res.Failed(), res.Errors)
	nl.AssertExpectations(t)
}

func TestNetlinkProvider_ChangeRestoresOnFailure(t *testing.T) {
	nl := new(network.MockNetlinker)
	nl.On("RouteListFiltered", mock.Anything, mock.Anything, mock.Anything).Return([]netlink.Route{
		hostRoute("1.2.3.4", "10.0.0.1", 5),
	}, nil)
	nl.On("RouteDel", mock.Anything).Return(nil)
	nl.On("RouteAdd", mock.MatchedBy(func(r *netlink.Route) bool { return r.Priority == 1000 })).Return(errors.New("invalid argument"))
	nl.On("RouteAdd", mock.MatchedBy(func(r *netlink.Route) bool { return r.Priority == 5 })).Return(nil).Once()

	res, err := NewNetlinkProviderWith(nl).Change(context.Background(), dest,
		netip.MustParseAddr("255.255.255.255"), netip.MustParseAddr("10.0.0.1"), 1000)
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "invalid argument")
	nl.AssertExpectations(t)
}

func TestNetlinkProvider_ChangeNotFound(t *testing.T) {
	nl := new(network.MockNetlinker)
	nl.On("RouteListFiltered", mock.Anything, mock.Anything, mock.Anything).Return([]netlink.Route{
		hostRoute("1.2.3.4", "192.168.1.1", 100),
	}, nil)

	res, err := NewNetlinkProviderWith(nl).Change(context.Background(), dest,
		netip.MustParseAddr("255.255.255.255"), netip.MustParseAddr("10.0.0.1"), 1000)
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "not found")
}

func TestNetlinkProvider_Delete(t *testing.T) {
	nl := new(network.MockNetlinker)
	nl.On("RouteListFiltered", mock.Anything, mock.Anything, mock.Anything).Return([]netlink.Route{
		hostRoute("1.2.3.4", "192.168.1.1", 100),
		hostRoute("8.8.8.8", "192.168.1.1", 100),
	}, nil)
	nl.On("RouteDel", mock.MatchedBy(func(r *netlink.Route) bool {
		return r.Dst.IP.Equal(net.ParseIP("1.2.3.4"))
	})).Return(nil).Once()

	p := NewNetlinkProviderWith(nl)
	res, err := p.Delete(context.Background(), dest)
	require.NoError(t, err)
	assert.False(t, res.Failed())
	nl.AssertExpectations(t)

	res, err = p.Delete(context.Background(), netip.MustParseAddr("9.9.9.9"))
	require.NoError(t, err)
	assert.True(t, res.Failed())
}
