// Package reconcile corrects the routing table for destinations that the
// tunnel has captured and removes overrides once they are no longer needed.
package reconcile

import (
	"context"
	"net/netip"

	"grimm.is/directroute/internal/audit"
	"grimm.is/directroute/internal/gateway"
	"grimm.is/directroute/internal/logging"
	"grimm.is/directroute/internal/metrics"
	"grimm.is/directroute/internal/probe"
	"grimm.is/directroute/internal/routetable"
)

// Defaults for new and deprioritized routes.
const (
	DefaultRouteMetric         = 100
	DefaultDeprioritizedMetric = 1000
)

var fullMask = netip.AddrFrom4([4]byte{255, 255, 255, 255})

// Options tunes the reconciler.
type Options struct {
	RouteMetric         int
	DeprioritizedMetric int
	// RemoveStale enables deleting a lone host route for a destination that
	// is already reached directly.
	RemoveStale bool
	Logger      *logging.Logger
	Metrics     *metrics.Registry
	// Recorder, if set, receives every attempted mutation.
	Recorder Recorder
}

// Recorder persists route-table changes.
type Recorder interface {
	Record(ctx context.Context, evt audit.Event) error
}

// Reconciler applies the correction policy for one destination at a time.
type Reconciler struct {
	provider routetable.Provider
	gw       gateway.Info
	opts     Options
	logger   *logging.Logger
}

// New creates a reconciler that routes captured destinations through gw.
func New(provider routetable.Provider, gw gateway.Info, opts Options) *Reconciler {
	if opts.RouteMetric <= 0 {
		opts.RouteMetric = DefaultRouteMetric
	}
	if opts.DeprioritizedMetric <= 0 {
		opts.DeprioritizedMetric = DefaultDeprioritizedMetric
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithComponent("reconcile")
	}
	return &Reconciler{provider: provider, gw: gw, opts: opts, logger: logger}
}

// Gateway returns the direct gateway the reconciler routes through.
func (r *Reconciler) Gateway() gateway.Info {
	return r.gw
}

// Reconcile applies the policy for dest given its current classification.
// Unresolvable destinations are left alone.
func (r *Reconciler) Reconcile(ctx context.Context, dest netip.Addr, class probe.Classification) (Outcome, error) {
	switch class {
	case probe.Tunneled:
		return r.fixTunneled(ctx, dest)
	case probe.Direct:
		return r.clearStale(ctx, dest)
	default:
		return Outcome{}, nil
	}
}

func (r *Reconciler) query(ctx context.Context, dest netip.Addr) (string, error) {
	res, err := r.provider.Print(ctx, dest)
	if err != nil {
		return "", &QueryError{Dest: dest, Err: err}
	}
	if res.Failed() {
		return "", &QueryError{Dest: dest, Text: res.Errors}
	}
	return res.Output, nil
}

// fixTunneled makes the direct gateway win for dest, either by pushing the
// tunnel's route behind an existing direct route or by adding one.
func (r *Reconciler) fixTunneled(ctx context.Context, dest netip.Addr) (Outcome, error) {
	log := r.logger.With("dest", dest.String())

	raw, err := r.query(ctx, dest)
	if err != nil {
		return Outcome{Errored: true}, err
	}

	var direct, alternate *routetable.Entry
	for e := range routetable.Parse(raw, dest) {
		if r.gw.Resolved() && e.Gateway == r.gw.Address {
			if direct != nil {
				log.Warn("multiple direct routes, using the last", "previous", direct.String(), "next", e.String())
			}
			direct = &e
			continue
		}
		alternate = &e
	}

	if direct == nil {
		return r.addDirect(ctx, dest)
	}

	// A missing alternate reads as metric 0 with no gateway, which cannot be changed.
	alt := routetable.Entry{Destination: dest, Mask: fullMask}
	if alternate != nil {
		alt = *alternate
	}

	if alt.Metric >= direct.Metric {
		log.Info("direct route already preferred", "direct_metric", direct.Metric, "tunnel_metric", alt.Metric)
		return Outcome{}, nil
	}

	log.Info("tunnel route preferred, deprioritizing",
		"direct_metric", direct.Metric, "tunnel_metric", alt.Metric, "tunnel_gateway", gatewayText(alt.Gateway))
	if !alt.Gateway.IsValid() || alt.Gateway.IsUnspecified() {
		err := &MutationError{Op: "change", Dest: dest, Text: "gateway is bad `" + gatewayText(alt.Gateway) + "`"}
		r.recordMutation(ctx, "change", dest, err)
		return Outcome{Errored: true}, err
	}

	res, err := r.provider.Change(ctx, dest, alt.Mask, alt.Gateway, r.opts.DeprioritizedMetric)
	if err == nil && res.Failed() {
		err = &MutationError{Op: "change", Dest: dest, Text: res.Errors}
	} else if err != nil {
		err = &MutationError{Op: "change", Dest: dest, Err: err}
	}
	r.recordMutation(ctx, "change", dest, err)
	if err != nil {
		return Outcome{Errored: true}, err
	}

	r.audit(ctx, "change", dest, map[string]any{
		"mask":    alt.Mask.String(),
		"gateway": alt.Gateway.String(),
		"metric":  r.opts.DeprioritizedMetric,
		"status":  res.Text(),
	})
	return Outcome{Mutated: true}, nil
}

func (r *Reconciler) addDirect(ctx context.Context, dest netip.Addr) (Outcome, error) {
	log := r.logger.With("dest", dest.String())

	if !r.gw.Resolved() {
		r.recordMutation(ctx, "add", dest, ErrGatewayUnresolved)
		return Outcome{Errored: true}, ErrGatewayUnresolved
	}

	mask := routetable.HostMask(dest)
	log.Info("no direct route, adding", "mask", mask.String(), "gateway", r.gw.Address.String(), "metric", r.opts.RouteMetric)

	res, err := r.provider.Add(ctx, dest, mask, r.gw.Address, r.opts.RouteMetric)
	if err == nil && res.Failed() {
		err = &MutationError{Op: "add", Dest: dest, Text: res.Errors}
	} else if err != nil {
		err = &MutationError{Op: "add", Dest: dest, Err: err}
	}
	r.recordMutation(ctx, "add", dest, err)
	if err != nil {
		return Outcome{Errored: true}, err
	}

	r.audit(ctx, "add", dest, map[string]any{
		"mask":    mask.String(),
		"gateway": r.gw.Address.String(),
		"metric":  r.opts.RouteMetric,
		"status":  res.Text(),
	})
	return Outcome{Mutated: true}, nil
}

// clearStale removes a lone host route left over from an earlier tunneled
// state. Failed deletes are warnings, not errors.
func (r *Reconciler) clearStale(ctx context.Context, dest netip.Addr) (Outcome, error) {
	log := r.logger.With("dest", dest.String())

	raw, err := r.query(ctx, dest)
	if err != nil {
		return Outcome{Errored: true}, err
	}

	var (
		count int
		exact bool
	)
	for row := range routetable.Scan(raw, dest) {
		count++
		exact = exact || row.Exact
	}

	switch {
	case count == 0:
		log.Debug("no routes")
		return Outcome{}, nil
	case count > 1 || !exact:
		log.Debug("no route table changes needed", "rows", count)
		return Outcome{}, nil
	case !r.opts.RemoveStale:
		log.Info("stale route kept, removal disabled")
		return Outcome{}, nil
	}

	log.Info("stale route found, deleting")
	res, err := r.provider.Delete(ctx, dest)
	if err != nil || res.Failed() {
		text := res.Errors
		if err != nil {
			text = err.Error()
		}
		r.recordMutation(ctx, "delete", dest, &MutationError{Op: "delete", Dest: dest, Text: text})
		log.Warn("route delete failed", "status", text)
		return Outcome{Errored: true}, nil
	}

	r.recordMutation(ctx, "delete", dest, nil)
	r.audit(ctx, "delete", dest, map[string]any{"status": res.Text()})
	return Outcome{Mutated: true}, nil
}

func (r *Reconciler) recordMutation(ctx context.Context, op string, dest netip.Addr, err error) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.RecordMutation(op, err)
	}
	if err != nil {
		r.record(ctx, audit.Event{Action: "route." + op, Destination: dest.String(), Result: "error: " + err.Error()})
	}
}

func (r *Reconciler) audit(ctx context.Context, op string, dest netip.Addr, details map[string]any) {
	r.logger.Audit("route."+op, dest.String(), details)
	r.record(ctx, audit.Event{Action: "route." + op, Destination: dest.String(), Details: details, Result: "ok"})
}

// record never fails the mutation it describes.
func (r *Reconciler) record(ctx context.Context, evt audit.Event) {
	if r.opts.Recorder == nil {
		return
	}
	if err := r.opts.Recorder.Record(ctx, evt); err != nil {
		r.logger.Warn("audit record failed", "action", evt.Action, "dest", evt.Destination, "error", err)
	}
}
