// Package agent wires configuration, host inspection, the route table
// provider and the reconciliation loop into a running process.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"grimm.is/directroute/internal/audit"
	"grimm.is/directroute/internal/clock"
	"grimm.is/directroute/internal/config"
	"grimm.is/directroute/internal/gateway"
	"grimm.is/directroute/internal/logging"
	"grimm.is/directroute/internal/metrics"
	"grimm.is/directroute/internal/monitor"
	"grimm.is/directroute/internal/network"
	"grimm.is/directroute/internal/probe"
	"grimm.is/directroute/internal/reconcile"
	"grimm.is/directroute/internal/routetable"
	"grimm.is/directroute/internal/scheduler"
	"grimm.is/directroute/internal/targets"
)

// ErrNotInitialized is returned by operations that need Initialize first.
var ErrNotInitialized = errors.New("agent not initialized")

// Agent owns one process's gateway, working set and loop.
type Agent struct {
	cfg       *config.Config
	inspector network.Inspector
	provider  routetable.Provider
	metrics   *metrics.Registry
	logger    *logging.Logger
	clock     clock.Clock
	store     *audit.Store
	ownsStore bool

	mu          sync.RWMutex
	initialized bool
	gw          gateway.Info
	dests       []targets.Destination
	loop        *scheduler.Loop
}

// Option configures an Agent.
type Option func(*Agent)

// WithInspector overrides the platform inspector.
func WithInspector(i network.Inspector) Option {
	return func(a *Agent) { a.inspector = i }
}

// WithProvider overrides the provider selected from config.
func WithProvider(p routetable.Provider) Option {
	return func(a *Agent) { a.provider = p }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithClock sets the time source for the loop.
func WithClock(c clock.Clock) Option {
	return func(a *Agent) { a.clock = c }
}

// WithAuditStore records route changes in store. The caller keeps ownership.
func WithAuditStore(store *audit.Store) Option {
	return func(a *Agent) { a.store = store }
}

// New creates an agent. Missing inspector and provider are built from cfg.
func New(cfg *config.Config, opts ...Option) (*Agent, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &Agent{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.Default()
	}
	if a.clock == nil {
		a.clock = &clock.RealClock{}
	}

	exec := &network.RealCommandExecutor{Timeout: cfg.CommandDeadline()}
	if a.inspector == nil {
		insp, err := network.NewInspector(exec)
		if err != nil {
			return nil, fmt.Errorf("host inspector: %w", err)
		}
		a.inspector = insp
	}
	if a.provider == nil {
		p, err := NewProvider(cfg, exec)
		if err != nil {
			return nil, err
		}
		a.provider = p
	}
	if a.store == nil && cfg.Audit != nil && cfg.Audit.Path != "" {
		store, err := audit.NewStore(cfg.Audit.Path, cfg.Audit.RetentionDays)
		if err != nil {
			return nil, err
		}
		a.store, a.ownsStore = store, true
	}
	return a, nil
}

// Close releases the audit database if the agent opened it.
func (a *Agent) Close() error {
	if a.ownsStore && a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Initialize resolves the direct gateway and loads the address list. It
// runs once; later calls return the first result. An unresolved gateway is
// logged and tolerated. An empty address list is fatal.
func (a *Agent) Initialize(ctx context.Context) (gateway.Info, []targets.Destination, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return a.gw, a.dests, nil
	}

	log := a.logger.WithComponent("agent")

	gw, err := a.resolveGateway(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return gateway.Info{}, nil, ctx.Err()
		}
		log.Error("direct gateway not found, routes cannot be added", "error", err)
	}
	if a.metrics != nil {
		a.metrics.SetGateway(gw.Resolved())
	}

	path := targets.ResolvePath(a.cfg.AddressList)
	dests, err := targets.LoadFile(path)
	if err != nil {
		return gw, nil, err
	}
	if a.metrics != nil {
		a.metrics.Destinations.Set(float64(len(dests)))
	}
	log.Info("initialized", "gateway", gw.String(), "destinations", len(dests), "list", path)

	a.gw, a.dests, a.initialized = gw, dests, true
	return gw, dests, nil
}

// ResolveGateway runs gateway discovery without loading the address list.
func (a *Agent) ResolveGateway(ctx context.Context) (gateway.Info, error) {
	return a.resolveGateway(ctx)
}

func (a *Agent) resolveGateway(ctx context.Context) (gateway.Info, error) {
	sel, err := gateway.ParseSelection(a.cfg.GatewaySelection)
	if err != nil {
		return gateway.Info{}, err
	}
	excludes := append(append([]string(nil), a.cfg.ExcludeMarkers...), a.cfg.TunnelMarker)
	return gateway.Resolve(ctx, a.inspector, gateway.Options{
		Excludes:  excludes,
		Selection: sel,
		Logger:    a.logger.WithComponent("gateway"),
	})
}

// Engine builds the per-cycle engine around the resolved gateway.
func (a *Agent) Engine() (*reconcile.Engine, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	return a.engine(), nil
}

func (a *Agent) engine() *reconcile.Engine {
	classifier := probe.NewClassifier(a.inspector, a.cfg.TunnelMarker)
	ropts := reconcile.Options{
		RouteMetric:         a.cfg.RouteMetric,
		DeprioritizedMetric: a.cfg.DeprioritizedMetric,
		RemoveStale:         a.cfg.RemoveStale(),
		Logger:              a.logger.WithComponent("reconcile"),
		Metrics:             a.metrics,
	}
	if a.store != nil {
		ropts.Recorder = a.store
	}
	rec := reconcile.New(a.provider, a.gw, ropts)
	opts := []reconcile.EngineOption{
		reconcile.WithClock(a.clock),
		reconcile.WithLogger(a.logger.WithComponent("engine")),
	}
	if a.metrics != nil {
		opts = append(opts, reconcile.WithMetrics(a.metrics))
	}
	return reconcile.NewEngine(classifier, rec, opts...)
}

// Loop returns the reconciliation loop, building it on first use.
func (a *Agent) Loop() (*scheduler.Loop, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	if a.loop == nil {
		a.loop = scheduler.NewLoop(a.engine(), a.dests, scheduler.LoopConfig{
			SteadyInterval: a.cfg.SteadyDelay(),
			RetryInterval:  a.cfg.RetryDelay(),
			Clock:          a.clock,
			Logger:         a.logger,
			Metrics:        a.metrics,
		})
	}
	return a.loop, nil
}

// RunOnce initializes if needed and runs a single cycle.
func (a *Agent) RunOnce(ctx context.Context) (reconcile.CycleOutcome, error) {
	if _, _, err := a.Initialize(ctx); err != nil {
		return reconcile.CycleOutcome{}, err
	}
	loop, err := a.Loop()
	if err != nil {
		return reconcile.CycleOutcome{}, err
	}
	return loop.RunOnce(ctx), nil
}

// Status is the /status payload.
type Status struct {
	Gateway  string                 `json:"gateway"`
	Resolved bool                   `json:"gateway_resolved"`
	Provider string                 `json:"provider"`
	Loop     scheduler.LoopStatus   `json:"loop"`
	Tasks    []scheduler.TaskStatus `json:"tasks,omitempty"`
}

// Run initializes, then loops until ctx is cancelled. The metrics server
// and the gateway check run alongside the loop and stop with it.
func (a *Agent) Run(ctx context.Context) error {
	gw, _, err := a.Initialize(ctx)
	if err != nil {
		return err
	}
	loop, err := a.Loop()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(a.logger)
	if gc := a.cfg.GatewayCheck; gc != nil && gc.Enabled {
		if gw.Resolved() {
			checker := monitor.NewChecker(gw.Address, monitor.PingOptions{
				Timeout:    a.cfg.CheckTimeout(),
				Privileged: gc.Privileged,
			}, a.logger, a.metrics)
			task := scheduler.NewGatewayCheckTask(checker.Check, a.cfg.CheckInterval(), 2*a.cfg.CheckTimeout())
			if err := sched.AddTask(task); err != nil {
				return err
			}
		} else {
			a.logger.Warn("gateway check disabled, no gateway resolved")
		}
	}
	if a.store != nil {
		if err := sched.AddTask(scheduler.NewAuditPruneTask(a.store.Prune, a.logger.WithComponent("audit"))); err != nil {
			return err
		}
	}
	sched.Start(ctx)
	defer sched.Stop()

	var wg sync.WaitGroup
	var serveErr error
	if m := a.cfg.Metrics; m != nil && m.Listen != "" && a.metrics != nil {
		srv := metrics.NewServer(a.metrics, m.Listen, m.Path)
		srv.Status = func() any {
			return Status{
				Gateway:  gw.String(),
				Resolved: gw.Resolved(),
				Provider: a.cfg.Provider,
				Loop:     loop.Status(),
				Tasks:    sched.GetStatus(),
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx); err != nil {
				serveErr = err
				a.logger.Error("metrics server failed", "error", err)
				cancel()
			}
		}()
	}

	runErr := loop.Run(ctx)
	cancel()
	wg.Wait()
	return errors.Join(runErr, serveErr)
}
