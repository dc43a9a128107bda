package reconcile

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"

	"grimm.is/directroute/internal/clock"
	"grimm.is/directroute/internal/logging"
	"grimm.is/directroute/internal/metrics"
	"grimm.is/directroute/internal/probe"
	"grimm.is/directroute/internal/targets"
)

// Classifier decides how a destination is currently reached.
type Classifier interface {
	Classify(ctx context.Context, dest netip.Addr) (probe.Result, error)
}

// DestinationReconciler corrects the table for one classified destination.
type DestinationReconciler interface {
	Reconcile(ctx context.Context, dest netip.Addr, class probe.Classification) (Outcome, error)
}

// CycleOutcome is the fold of every destination's outcome in one cycle.
type CycleOutcome struct {
	Outcome
	ID        string        `json:"id"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	Processed int           `json:"processed"`
	Errors    int           `json:"errors"`
	Canceled  bool          `json:"canceled"`
}

// Engine runs one reconciliation pass over all destinations, sequentially.
// No per-destination error escapes a cycle.
type Engine struct {
	classifier Classifier
	reconciler DestinationReconciler
	clock      clock.Clock
	logger     *logging.Logger
	metrics    *metrics.Registry
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock sets the time source.
func WithClock(c clock.Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics enables metrics recording.
func WithMetrics(m *metrics.Registry) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine.
func NewEngine(c Classifier, r DestinationReconciler, opts ...EngineOption) *Engine {
	e := &Engine{
		classifier: c,
		reconciler: r,
		clock:      &clock.RealClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.WithComponent("engine")
	}
	return e
}

// RunCycle classifies and reconciles each destination in order. It stops
// early, with Canceled set, if ctx is done between destinations.
func (e *Engine) RunCycle(ctx context.Context, dests []targets.Destination) CycleOutcome {
	out := CycleOutcome{
		ID:      uuid.NewString(),
		Started: e.clock.Now(),
	}
	log := e.logger.With("cycle", out.ID)
	log.Info("cycle started", "destinations", len(dests))

	for _, d := range dests {
		if ctx.Err() != nil {
			out.Canceled = true
			break
		}
		o, err := e.one(ctx, log, d.Address)
		out.Outcome = out.Outcome.Merge(o)
		out.Processed++
		if err != nil {
			out.Errors++
		}
	}

	out.Duration = e.clock.Since(out.Started)
	log.Info("cycle finished",
		"processed", out.Processed, "mutated", out.Mutated, "errored", out.Errored,
		"canceled", out.Canceled, "took", out.Duration.String())
	return out
}

func (e *Engine) one(ctx context.Context, log *logging.Logger, dest netip.Addr) (o Outcome, err error) {
	log = log.With("dest", dest.String())

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while reconciling", "panic", r)
			o, err = Outcome{Errored: true}, &MutationError{Op: "reconcile", Dest: dest, Text: "internal error"}
			e.recordError(err)
		}
	}()

	res, err := e.classifier.Classify(ctx, dest)
	if err != nil {
		log.Error("probe failed", "error", err, "kind", Kind(err))
		e.recordError(err)
		return Outcome{Errored: true}, err
	}
	if e.metrics != nil {
		e.metrics.RecordProbe(res.Class.String())
	}
	log.Info("route checked", "source", res.Source.String(), "interface", res.Interface,
		"adapter", res.Description, "class", res.Class.String())

	o, err = e.reconciler.Reconcile(ctx, dest, res.Class)
	if err != nil {
		log.Error("reconcile failed", "error", err, "kind", Kind(err))
		e.recordError(err)
		o.Errored = true
	}
	return o, err
}

func (e *Engine) recordError(err error) {
	if e.metrics != nil {
		e.metrics.RecordError(Kind(err))
	}
}
