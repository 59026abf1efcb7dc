package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"
)

// ToolOutcome is how an external tool invocation ended
type ToolOutcome int

const (
	ToolSucceeded ToolOutcome = iota
	ToolFailed
	ToolTimedOut
)

func (o ToolOutcome) String() string {
	switch o {
	case ToolSucceeded:
		return "succeeded"
	case ToolFailed:
		return "failed"
	case ToolTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// ToolResult is the outcome and standard output of a tool run to completion
type ToolResult struct {
	Outcome ToolOutcome
	Output  []byte
	Err     error
}

// SpawnSpec describes a detached child process. Env is added to the current environment.
type SpawnSpec struct {
	Path string
	Args []string
	Env  []string
	Dir  string
}

// Runner starts external programs
type Runner interface {
	// Run waits for the tool to exit. A timeout of zero waits without limit.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) ToolResult
	// Spawn starts a process that outlives the current one and does not wait for it
	Spawn(spec SpawnSpec) error
}

type execRunner struct{}

// NewRunner returns a Runner executing real processes
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ToolResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	// children holding the output pipes open must not outlive the timeout
	cmd.WaitDelay = time.Second
	log.Debugf("running %s", cmd.String())

	out, err := cmd.Output()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ToolResult{Outcome: ToolTimedOut, Output: out, Err: fmt.Errorf("%s did not finish within %v", name, timeout)}
	case err != nil:
		return ToolResult{Outcome: ToolFailed, Output: out, Err: fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))}
	default:
		return ToolResult{Outcome: ToolSucceeded, Output: out}
	}
}

func (execRunner) Spawn(spec SpawnSpec) error {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Dir = spec.Dir

	setDetachedProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", spec.Path, err)
	}
	log.Infof("started %s with PID %d", spec.Path, cmd.Process.Pid)

	if err := cmd.Process.Release(); err != nil {
		log.Warnf("failed to release process %d: %v", cmd.Process.Pid, err)
	}
	return nil
}
