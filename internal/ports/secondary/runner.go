package secondary

import (
	"context"
	"time"
)

// CommandRunner defines the secondary port for running toolchain commands
// (build, test, format, lint) in the repository working tree.
type CommandRunner interface {
	// Run executes argv in the given directory with a deadline. A non-zero
	// exit status is reported through CommandResult, not an error; errors
	// are reserved for failures to run at all.
	Run(ctx context.Context, dir string, timeout time.Duration, argv ...string) (*CommandResult, error)
}

// CommandResult captures the outcome of one command invocation.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Succeeded reports whether the command ran to completion with exit 0.
func (r *CommandResult) Succeeded() bool {
	return r != nil && !r.TimedOut && r.ExitCode == 0
}

// CombinedOutput returns stdout and stderr joined for logging.
func (r *CommandResult) CombinedOutput() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}
