package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a command when the executor has no timeout set.
const DefaultCommandTimeout = 30 * time.Second

// DefaultCommandExecutor is the default RealCommandExecutor instance.
var DefaultCommandExecutor CommandExecutor = &RealCommandExecutor{}

// RealCommandExecutor runs commands with os/exec, capturing stdout and stderr
// separately.
type RealCommandExecutor struct {
	Timeout time.Duration
}

// RunCommand runs a command to completion. A non-zero exit with an empty
// error stream reports the exit status as stderr. The returned error is
// reserved for commands that could not be run or were cut off.
func (r *RealCommandExecutor) RunCommand(ctx context.Context, name string, arg ...string) (Result, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	hideWindow(cmd)

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: strings.TrimSpace(stderr.String())}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("command %s %s: %w", name, strings.Join(arg, " "), ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if res.Stderr == "" {
			res.Stderr = exitErr.Error()
		}
		return res, nil
	}
	return res, fmt.Errorf("command %s %s failed: %w", name, strings.Join(arg, " "), err)
}
