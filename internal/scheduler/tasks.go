package scheduler

import (
	"context"
	"time"

	"grimm.is/directroute/internal/logging"
)

// NewGatewayCheckTask creates a task that checks the direct gateway is alive.
func NewGatewayCheckTask(checkFunc func(context.Context) error, interval, timeout time.Duration) *Task {
	return &Task{
		ID:          "gateway-check",
		Name:        "Gateway Check",
		Description: "ICMP liveness check of the direct gateway",
		Schedule:    Every(interval),
		Enabled:     true,
		RunOnStart:  true,
		Timeout:     timeout,
		Func:        checkFunc,
	}
}

// NewAuditPruneTask creates a daily task that drops expired audit events.
func NewAuditPruneTask(prune func(context.Context) (int64, error), logger *logging.Logger) *Task {
	if logger == nil {
		logger = logging.Default()
	}
	return &Task{
		ID:          "audit-prune",
		Name:        "Audit Prune",
		Description: "Remove route change events past retention",
		Schedule:    Every(24 * time.Hour),
		Enabled:     true,
		RunOnStart:  true,
		Timeout:     time.Minute,
		Func: func(ctx context.Context) error {
			n, err := prune(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned audit events", "count", n)
			}
			return nil
		},
	}
}
