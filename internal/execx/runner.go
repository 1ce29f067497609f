package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/logging"
)

// Exec is the production Runner. It starts each command in its own process
// group so a timeout can terminate the command together with anything it
// spawned (git invokes ssh, hg invokes pagers, and so on).
type Exec struct {
	logger zerolog.Logger
	echo   EchoSink // non-nil when verbose echo is enabled
}

// Option configures an Exec runner.
type Option func(*Exec)

// WithLogger sets the logger used for per-command debug entries.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Exec) {
		e.logger = logger
	}
}

// WithEcho enables verbose echo of command stdout to sink. Lines matching
// the noise deny-list are suppressed; captured output is unaffected.
func WithEcho(sink EchoSink) Option {
	return func(e *Exec) {
		e.echo = sink
	}
}

// New creates an Exec runner.
func New(opts ...Option) *Exec {
	e := &Exec{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the command described by req.
//
// Returned errors are limited to launch failures (ErrCommandLaunch), request
// validation, and context cancellation. A command that runs and exits nonzero
// produces a Result with the exit code and a Diag message instead.
func (e *Exec) Run(ctx context.Context, req Request) (Result, error) {
	if len(req.Args) == 0 {
		return Result{}, fmt.Errorf("argument vector cannot be empty: %w", vcserrors.ErrEmptyValue)
	}
	if req.Dir == "" {
		return Result{}, fmt.Errorf("working directory cannot be empty: %w", vcserrors.ErrEmptyValue)
	}

	cmd := exec.Command(req.Args[0], req.Args[1:]...) //#nosec G204 -- argv invocation, args built internally
	cmd.Dir = req.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Verbose echo streams stdout lines as the command produces them,
	// through the noise filter, without touching the captured copy.
	var echo *logging.NoiseFilterWriter
	if e.echo != nil {
		echo = logging.NewNoiseFilterWriter(e.echo)
		cmd.Stdout = io.MultiWriter(&stdout, echo)
	}
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("starting %q in %s: %v: %w",
			strings.Join(req.Args, " "), req.Dir, err, vcserrors.ErrCommandLaunch)
	}

	timedOut, waitErr := e.wait(ctx, cmd, req.Timeout)

	if echo != nil {
		if err := echo.Flush(); err != nil {
			e.logger.Debug().Err(err).Msg("echo flush failed")
		}
	}

	res := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Output:   normalizeOutput(stdout.String()),
	}

	e.logger.Debug().
		Strs("cmd", req.Args).
		Str("dir", req.Dir).
		Int("exit_code", res.ExitCode).
		Dur("elapsed", time.Since(start)).
		Msg("command finished")

	switch {
	case timedOut:
		res.ExitCode = -1
		res.Diag = fmt.Sprintf("command %q in %s: %v after %s",
			strings.Join(req.Args, " "), req.Dir, vcserrors.ErrCommandTimeout, req.Timeout)
	case waitErr != nil && ctx.Err() != nil:
		return res, ctx.Err()
	case waitErr != nil && res.ExitCode != 0:
		if msg := normalizeOutput(stderr.String()); msg != "" {
			res.Diag = fmt.Sprintf("command %q in %s failed: %s",
				strings.Join(req.Args, " "), req.Dir, msg)
		} else {
			res.Diag = fmt.Sprintf("command %q in %s failed with exit code %d",
				strings.Join(req.Args, " "), req.Dir, res.ExitCode)
		}
	}

	return res, nil
}

// wait blocks until the command finishes, the context is canceled, or the
// timeout expires. On timeout or cancellation the process group is killed and
// wait still drains cmd.Wait so the output buffers are safe to read.
func (e *Exec) wait(ctx context.Context, cmd *exec.Cmd, timeout time.Duration) (timedOut bool, err error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err = <-done:
		return false, err
	case <-expired:
		killProcessGroup(cmd)
		<-done
		return true, nil
	case <-ctx.Done():
		killProcessGroup(cmd)
		err = <-done
		if err == nil {
			err = ctx.Err()
		}
		return false, err
	}
}

// normalizeOutput converts CRLF line endings and trims trailing whitespace.
func normalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimRight(s, " \t\r\n")
}

// IsLaunchError reports whether err came from a failed process start.
func IsLaunchError(err error) bool {
	return errors.Is(err, vcserrors.ErrCommandLaunch)
}

// ResultError converts a nonzero-exit Result into an error wrapping
// ErrCommandFailed. Adapters use it where a command failure must abort the
// surrounding operation.
func ResultError(res Result) error {
	if res.Ok() {
		return nil
	}
	if res.Diag != "" {
		return fmt.Errorf("%s: %w", res.Diag, vcserrors.ErrCommandFailed)
	}
	return fmt.Errorf("exit code %d: %w", res.ExitCode, vcserrors.ErrCommandFailed)
}
