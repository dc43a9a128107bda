package scheduler

import (
	"context"
	"sync"
	"time"

	"grimm.is/directroute/internal/clock"
	"grimm.is/directroute/internal/logging"
	"grimm.is/directroute/internal/metrics"
	"grimm.is/directroute/internal/reconcile"
	"grimm.is/directroute/internal/targets"
)

// Default waits between cycles.
const (
	DefaultSteadyInterval = 90 * time.Second
	DefaultRetryInterval  = 5 * time.Second
)

// State is the lifecycle state of a Loop.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateWaiting  State = "waiting"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// CycleRunner runs one reconciliation pass.
type CycleRunner interface {
	RunCycle(ctx context.Context, dests []targets.Destination) reconcile.CycleOutcome
}

// LoopConfig configures a Loop. Zero intervals take the defaults.
type LoopConfig struct {
	SteadyInterval time.Duration
	RetryInterval  time.Duration
	Clock          clock.Clock
	Logger         *logging.Logger
	Metrics        *metrics.Registry
}

// LoopStatus is a snapshot of the loop for the status endpoint.
type LoopStatus struct {
	State        State                   `json:"state"`
	Cycles       int64                   `json:"cycles"`
	LastCycle    *reconcile.CycleOutcome `json:"last_cycle,omitempty"`
	NextWake     time.Time               `json:"next_wake,omitempty"`
	LastDelay    time.Duration           `json:"last_delay"`
	Destinations int                     `json:"destinations"`
}

// Loop repeats reconciliation cycles forever, waiting the retry interval
// after a cycle that changed or failed something and the steady interval
// otherwise. Cycles never overlap.
type Loop struct {
	runner CycleRunner
	dests  []targets.Destination
	cfg    LoopConfig
	logger *logging.Logger

	mu     sync.RWMutex
	status LoopStatus
}

// NewLoop creates a loop over a fixed destination list.
func NewLoop(runner CycleRunner, dests []targets.Destination, cfg LoopConfig) *Loop {
	if cfg.SteadyInterval <= 0 {
		cfg.SteadyInterval = DefaultSteadyInterval
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = &clock.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Loop{
		runner: runner,
		dests:  dests,
		cfg:    cfg,
		logger: cfg.Logger.WithComponent("loop"),
		status: LoopStatus{State: StateIdle, Destinations: len(dests)},
	}
}

// Delay returns the wait that follows a cycle with the given outcome.
func (l *Loop) Delay(out reconcile.CycleOutcome) time.Duration {
	if out.Unsettled() {
		return l.cfg.RetryInterval
	}
	return l.cfg.SteadyInterval
}

// RunOnce runs a single cycle and records it.
func (l *Loop) RunOnce(ctx context.Context) reconcile.CycleOutcome {
	l.setState(StateRunning)
	out := l.runner.RunCycle(ctx, l.dests)
	delay := l.Delay(out)

	l.mu.Lock()
	l.status.Cycles++
	l.status.LastCycle = &out
	l.status.LastDelay = delay
	l.mu.Unlock()

	if l.cfg.Metrics != nil {
		l.cfg.Metrics.RecordCycle(out.Label(), out.Duration, delay)
	}
	return out
}

// Run loops until ctx is cancelled. Cancellation is a clean stop and
// returns nil; a cycle in progress finishes its current destination first.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("loop started", "destinations", len(l.dests),
		"steady", l.cfg.SteadyInterval.String(), "retry", l.cfg.RetryInterval.String())

	for {
		out := l.RunOnce(ctx)
		if ctx.Err() != nil {
			break
		}

		delay := l.Delay(out)
		l.mu.Lock()
		l.status.State = StateWaiting
		l.status.NextWake = l.cfg.Clock.Now().Add(delay)
		l.mu.Unlock()

		l.logger.Debug("waiting", "delay", delay.String(), "outcome", out.Label())
		if err := l.cfg.Clock.Sleep(ctx, delay); err != nil {
			break
		}
	}

	l.setState(StateStopping)
	l.logger.Info("loop stopping")
	l.mu.Lock()
	l.status.State = StateStopped
	l.status.NextWake = time.Time{}
	l.mu.Unlock()
	return nil
}

// Status returns a snapshot of the loop.
func (l *Loop) Status() LoopStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := l.status
	if st.LastCycle != nil {
		c := *st.LastCycle
		st.LastCycle = &c
	}
	return st
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.status.State = s
	l.mu.Unlock()
}
