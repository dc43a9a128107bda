package reconcile

import (
	"context"
	"errors"
	"io"
	"net/netip"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"grimm.is/directroute/internal/audit"
	"grimm.is/directroute/internal/gateway"
	"grimm.is/directroute/internal/logging"
	"grimm.is/directroute/internal/metrics"
	"grimm.is/directroute/internal/probe"
	"grimm.is/directroute/internal/routetable"
)

var (
	directGW = gateway.Info{
		Address:      netip.MustParseAddr("192.168.1.1"),
		AdapterIndex: "12",
		AdapterName:  "Intel(R) Ethernet Connection I219-V",
	}
	hostMask = netip.MustParseAddr("255.255.255.255")
	quietLog = logging.New(logging.Config{Output: io.Discard})
)

func ip(s string) netip.Addr { return netip.MustParseAddr(s) }

func newReconciler(p routetable.Provider, gw gateway.Info, reg *metrics.Registry) *Reconciler {
	return New(p, gw, Options{RemoveStale: true, Logger: quietLog, Metrics: reg})
}

func printed(lines ...string) routetable.Result {
	out := "Network Destination        Netmask          Gateway       Interface  Metric\n"
	for _, l := range lines {
		out += "  " + l + "\n"
	}
	return routetable.Result{Output: out}
}

func assertNoMutations(t *testing.T, p *routetable.MockProvider) {
	t.Helper()
	p.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	p.AssertNotCalled(t, "Change", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	p.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestTunneled_NoEntries_AddsDirectRoute(t *testing.T) {
	p := new(routetable.MockProvider)
	reg := metrics.NewRegistry()
	d := ip("8.8.8.8")

	p.On("Print", d).Return(printed(), nil)
	p.On("Add", d, hostMask, ip("192.168.1.1"), 100).Return(routetable.Result{Output: " OK!"}, nil).Once()

	out, err := newReconciler(p, directGW, reg).Reconcile(context.Background(), d, probe.Tunneled)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Mutated: true}, out)
	p.AssertExpectations(t)
	p.AssertNumberOfCalls(t, "Add", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Mutations.WithLabelValues("add", "ok")))
}

func TestTunneled_AddUsesOctetMask(t *testing.T) {
	p := new(routetable.MockProvider)
	d := ip("10.0.0.5")

	p.On("Print", d).Return(printed("10.0.0.5  255.255.255.255  10.8.0.1  10.8.0.7  1"), nil)
	p.On("Add", d, ip("255.0.0.255"), ip("192.168.1.1"), 100).Return(routetable.Result{Output: " OK!"}, nil).Once()

	out, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), d, probe.Tunneled)
	require.NoError(t, err)
	assert.True(t, out.Mutated)
	p.AssertExpectations(t)
}

func TestTunneled_AlternatePreferred_Deprioritizes(t *testing.T) {
	p := new(routetable.MockProvider)
	d := ip("1.2.3.4")

	p.On("Print", d).Return(printed(
		"1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100",
		"1.2.3.4  255.255.255.255  10.0.0.1  10.0.0.7  5",
	), nil)
	p.On("Change", d, hostMask, ip("10.0.0.1"), 1000).Return(routetable.Result{Output: " OK!"}, nil).Once()

	out, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), d, probe.Tunneled)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Mutated: true}, out)
	p.AssertExpectations(t)
	p.AssertNumberOfCalls(t, "Change", 1)
	p.AssertNotCalled(t, "Change", d, hostMask, ip("192.168.1.1"), mock.Anything)
	p.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTunneled_DirectAlreadyPreferred(t *testing.T) {
	for _, alt := range []string{"100", "250"} {
		t.Run(alt, func(t *testing.T) {
			p := new(routetable.MockProvider)
			d := ip("1.2.3.4")
			p.On("Print", d).Return(printed(
				"1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100",
				"1.2.3.4  255.255.255.255  10.0.0.1  10.0.0.7  "+alt,
			), nil)

			out, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), d, probe.Tunneled)
			require.NoError(t, err)
			assert.Equal(t, Outcome{}, out)
			assertNoMutations(t, p)
		})
	}
}

func TestTunneled_DirectWithoutAlternate_IsBadGateway(t *testing.T) {
	p := new(routetable.MockProvider)
	reg := metrics.NewRegistry()
	d := ip("1.2.3.4")
	p.On("Print", d).Return(printed("1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100"), nil)

	out, err := newReconciler(p, directGW, reg).Reconcile(context.Background(), d, probe.Tunneled)
	var me *MutationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "change", me.Op)
	assert.Contains(t, err.Error(), "gateway is bad")
	assert.Equal(t, Outcome{Errored: true}, out)
	assertNoMutations(t, p)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Mutations.WithLabelValues("change", "error")))
}

func TestTunneled_LastAlternateWins(t *testing.T) {
	p := new(routetable.MockProvider)
	d := ip("1.2.3.4")
	p.On("Print", d).Return(printed(
		"1.2.3.4  255.255.255.255  10.0.0.1  10.0.0.7  5",
		"1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100",
		"1.2.3.4  255.255.255.0  10.0.0.9  10.0.0.7  7",
	), nil)
	p.On("Change", d, ip("255.255.255.0"), ip("10.0.0.9"), 1000).Return(routetable.Result{}, nil).Once()

	_, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), d, probe.Tunneled)
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestTunneled_ChangeRejected(t *testing.T) {
	p := new(routetable.MockProvider)
	d := ip("1.2.3.4")
	p.On("Print", d).Return(printed(
		"1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100",
		"1.2.3.4  255.255.255.255  10.0.0.1  10.0.0.7  5",
	), nil)
	p.On("Change", d, hostMask, ip("10.0.0.1"), 1000).
		Return(routetable.Result{Errors: "The route change failed: The parameter is incorrect."}, nil)

	out, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), d, probe.Tunneled)
	require.Error(t, err)
	assert.Equal(t, "mutation", Kind(err))
	assert.True(t, out.Errored)
	assert.False(t, out.Mutated)
}

func TestTunneled_AddRejected(t *testing.T) {
	p := new(routetable.MockProvider)
	d := ip("8.8.8.8")
	p.On("Print", d).Return(printed(), nil)
	p.On("Add", d, hostMask, ip("192.168.1.1"), 100).Return(routetable.Result{}, errors.New("exec: route: not found"))

	out, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), d, probe.Tunneled)
	var me *MutationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "add", me.Op)
	assert.Equal(t, Outcome{Errored: true}, out)
}

func TestTunneled_GatewayUnresolved(t *testing.T) {
	p := new(routetable.MockProvider)
	d := ip("8.8.8.8")
	p.On("Print", d).Return(printed("8.8.8.8  255.255.255.255  10.0.0.1  10.0.0.7  5"), nil)

	out, err := newReconciler(p, gateway.Info{}, nil).Reconcile(context.Background(), d, probe.Tunneled)
	require.ErrorIs(t, err, ErrGatewayUnresolved)
	assert.Equal(t, "gateway", Kind(err))
	assert.Equal(t, Outcome{Errored: true}, out)
	assertNoMutations(t, p)
}

func TestQueryFailure(t *testing.T) {
	for _, class := range []probe.Classification{probe.Tunneled, probe.Direct} {
		t.Run(class.String(), func(t *testing.T) {
			p := new(routetable.MockProvider)
			d := ip("8.8.8.8")
			p.On("Print", d).Return(routetable.Result{Errors: "access denied"}, nil)

			out, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), d, class)
			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.Contains(t, err.Error(), "access denied")
			assert.Equal(t, Outcome{Errored: true}, out)
			assertNoMutations(t, p)
		})
	}
}

func TestDirect_LoneExactEntry_Deletes(t *testing.T) {
	p := new(routetable.MockProvider)
	reg := metrics.NewRegistry()
	d := ip("1.2.3.4")
	p.On("Print", d).Return(printed("1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100"), nil)
	p.On("Delete", d).Return(routetable.Result{Output: " OK!"}, nil).Once()

	out, err := newReconciler(p, directGW, reg).Reconcile(context.Background(), d, probe.Direct)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Mutated: true}, out)
	p.AssertNumberOfCalls(t, "Delete", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Mutations.WithLabelValues("delete", "ok")))
}

func TestDirect_NoMutation(t *testing.T) {
	tests := map[string]routetable.Result{
		"no entries": printed(),
		"two entries": printed(
			"1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100",
			"1.2.3.4  255.255.255.255  10.0.0.1  10.0.0.7  5",
		),
		"active and persistent": printed(
			"1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100",
			"1.2.3.4  255.255.255.255  192.168.1.1  100",
		),
		"prefix of another address": printed("1.2.3.45  255.255.255.255  192.168.1.1  192.168.1.20  100"),
	}
	for name, res := range tests {
		t.Run(name, func(t *testing.T) {
			p := new(routetable.MockProvider)
			d := ip("1.2.3.4")
			p.On("Print", d).Return(res, nil)

			out, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), d, probe.Direct)
			require.NoError(t, err)
			assert.Equal(t, Outcome{}, out)
			assertNoMutations(t, p)
		})
	}
}

func TestDirect_DeleteFailureIsWarning(t *testing.T) {
	p := new(routetable.MockProvider)
	d := ip("1.2.3.4")
	p.On("Print", d).Return(printed("1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100"), nil)
	p.On("Delete", d).Return(routetable.Result{Errors: "The route deletion failed: Element not found."}, nil)

	out, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), d, probe.Direct)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Errored: true}, out)
}

func TestDirect_RemoveStaleDisabled(t *testing.T) {
	p := new(routetable.MockProvider)
	d := ip("1.2.3.4")
	p.On("Print", d).Return(printed("1.2.3.4  255.255.255.255  192.168.1.1  192.168.1.20  100"), nil)

	r := New(p, directGW, Options{RemoveStale: false, Logger: quietLog})
	out, err := r.Reconcile(context.Background(), d, probe.Direct)
	require.NoError(t, err)
	assert.Equal(t, Outcome{}, out)
	assertNoMutations(t, p)
}

func TestUnresolvable_NoAction(t *testing.T) {
	p := new(routetable.MockProvider)
	out, err := newReconciler(p, directGW, nil).Reconcile(context.Background(), ip("1.2.3.4"), probe.Unresolvable)
	require.NoError(t, err)
	assert.Equal(t, Outcome{}, out)
	p.AssertNotCalled(t, "Print", mock.Anything)
}

func TestCustomMetrics(t *testing.T) {
	p := new(routetable.MockProvider)
	d := ip("8.8.8.8")
	p.On("Print", d).Return(printed(), nil)
	p.On("Add", d, hostMask, ip("192.168.1.1"), 42).Return(routetable.Result{}, nil).Once()

	r := New(p, directGW, Options{RouteMetric: 42, Logger: quietLog})
	_, err := r.Reconcile(context.Background(), d, probe.Tunneled)
	require.NoError(t, err)
	p.AssertExpectations(t)
	assert.Equal(t, directGW, r.Gateway())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, Outcome{Mutated: true, Errored: true}, Outcome{Mutated: true}.Merge(Outcome{Errored: true}))
	assert.False(t, Outcome{}.Unsettled())
	assert.True(t, Outcome{Errored: true}.Unsettled())
	assert.Equal(t, "steady", Outcome{}.Label())
	assert.Equal(t, "mutated", Outcome{Mutated: true}.Label())
	assert.Equal(t, "errored", Outcome{Mutated: true, Errored: true}.Label())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "canceled", Kind(context.Canceled))
	assert.Equal(t, "gateway", Kind(gateway.ErrUnresolved))
	assert.Equal(t, "probe", Kind(&probe.ProbeError{Err: errors.New("x")}))
	assert.Equal(t, "unresolvable", Kind(&probe.ProbeError{Err: probe.ErrUnresolvable}))
	assert.Equal(t, "query", Kind(&QueryError{Text: "x"}))
	assert.Equal(t, "other", Kind(errors.New("x")))
}

func TestRecorder_StoresMutations(t *testing.T) {
	store, err := audit.NewStore(":memory:", 0)
	require.NoError(t, err)
	defer store.Close()

	p := new(routetable.MockProvider)
	ok, bad := ip("8.8.8.8"), ip("8.8.4.4")
	p.On("Print", ok).Return(printed(), nil)
	p.On("Add", ok, hostMask, ip("192.168.1.1"), 100).Return(routetable.Result{Output: " OK!"}, nil)
	p.On("Print", bad).Return(printed(), nil)
	p.On("Add", bad, hostMask, ip("192.168.1.1"), 100).Return(routetable.Result{Errors: "The object exists already."}, nil)

	r := New(p, directGW, Options{Logger: quietLog, Recorder: store})
	ctx := context.Background()
	_, err = r.Reconcile(ctx, ok, probe.Tunneled)
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, bad, probe.Tunneled)
	require.Error(t, err)

	events, err := store.Query(ctx, audit.Filter{Action: "route.add"})
	require.NoError(t, err)
	require.Len(t, events, 2)

	byDest := map[string]audit.Event{}
	for _, e := range events {
		byDest[e.Destination] = e
	}
	assert.Equal(t, "ok", byDest["8.8.8.8"].Result)
	assert.Equal(t, "192.168.1.1", byDest["8.8.8.8"].Details["gateway"])
	assert.Contains(t, byDest["8.8.4.4"].Result, "The object exists already.")
}
