// Package execx executes external VCS commands and captures their output.
//
// Commands are always invoked as argument vectors, never via a shell, so
// quoting and injection concerns do not exist at this layer. A nonzero exit
// is not a Go error: it is reported in the Result so adapters can degrade it
// to a boolean failure. Errors are reserved for the cases where the process
// could not be started at all or the context was canceled.
package execx

import (
	"context"
	"io"
	"time"
)

// Request describes one external command invocation.
type Request struct {
	// Args is the full argument vector, binary first (e.g. ["git", "fetch"]).
	Args []string

	// Dir is the working directory the command runs in. Must not be empty.
	Dir string

	// Timeout is the wall-clock limit for the command. Zero means no limit
	// beyond the context. On expiry the whole process group is killed and
	// partial output is still returned.
	Timeout time.Duration
}

// Result carries the outcome of a completed (or killed) command.
type Result struct {
	// ExitCode is the process exit status. -1 when the process was killed.
	ExitCode int

	// Output is captured stdout with line endings normalized to \n and
	// trailing whitespace trimmed.
	Output string

	// Diag is a diagnostic message combining the command, working directory
	// and captured stderr. Empty on success. It is returned, never raised:
	// callers decide whether a nonzero exit matters.
	Diag string
}

// Ok reports whether the command exited zero.
func (r Result) Ok() bool {
	return r.ExitCode == 0
}

// Runner executes external commands. The production implementation shells
// out; tests substitute a scripted fake.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// EchoSink receives filtered stdout lines when verbose mode is requested.
// The filter is advisory: captured output used for parsing is never affected.
type EchoSink interface {
	io.Writer
}
