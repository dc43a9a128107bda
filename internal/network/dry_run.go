package network

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DryRunExecutor implements CommandExecutor but only records commands.
// Responses can be preloaded per command line.
type DryRunExecutor struct {
	mu        sync.Mutex
	Commands  []string
	Responses map[string]Result
}

// NewDryRunExecutor creates a new dry run executor.
func NewDryRunExecutor() *DryRunExecutor {
	return &DryRunExecutor{
		Commands:  make([]string, 0),
		Responses: make(map[string]Result),
	}
}

// RunCommand records the command instead of executing it.
func (e *DryRunExecutor) RunCommand(ctx context.Context, name string, arg ...string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd := strings.TrimSpace(fmt.Sprintf("%s %s", name, strings.Join(arg, " ")))
	e.Commands = append(e.Commands, cmd)
	return e.Responses[cmd], nil
}

// History returns a copy of the recorded command lines.
func (e *DryRunExecutor) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.Commands...)
}
