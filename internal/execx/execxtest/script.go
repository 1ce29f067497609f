// Package execxtest provides a scripted execx.Runner for adapter tests.
// Commands are keyed by their joined argument vector; each key holds a queue
// of results so repeated invocations can observe changing repository state
// (e.g. the current branch after a checkout).
package execxtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/execx"
)

// Call records one Run invocation.
type Call struct {
	Args []string
	Dir  string
}

// response pairs a Result with an optional hard error.
type response struct {
	res execx.Result
	err error
}

// Script is a fake Runner driven by pre-registered responses.
type Script struct {
	mu        sync.Mutex
	responses map[string][]response
	calls     []Call
}

// NewScript creates an empty Script.
func NewScript() *Script {
	return &Script{responses: make(map[string][]response)}
}

// On registers a successful result for the given command line. Registering
// the same command line again queues a further response; the final response
// is sticky once the queue is drained.
func (s *Script) On(cmdline string, res execx.Result) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[cmdline] = append(s.responses[cmdline], response{res: res})
	return s
}

// OnOutput registers a zero-exit result with the given stdout.
func (s *Script) OnOutput(cmdline, output string) *Script {
	return s.On(cmdline, execx.Result{ExitCode: 0, Output: output})
}

// OnFailure registers a nonzero-exit result with the given diagnostic.
func (s *Script) OnFailure(cmdline, diag string) *Script {
	return s.On(cmdline, execx.Result{ExitCode: 1, Diag: diag})
}

// OnError registers a hard error (e.g. a launch failure) for the command line.
func (s *Script) OnError(cmdline string, err error) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[cmdline] = append(s.responses[cmdline], response{err: err})
	return s
}

// Run implements execx.Runner.
func (s *Script) Run(_ context.Context, req execx.Request) (execx.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Args: req.Args, Dir: req.Dir})

	key := strings.Join(req.Args, " ")
	queue, ok := s.responses[key]
	if !ok || len(queue) == 0 {
		return execx.Result{}, fmt.Errorf("no response for %q: %w", key, vcserrors.ErrCommandNotConfigured)
	}

	next := queue[0]
	if len(queue) > 1 {
		s.responses[key] = queue[1:]
	}
	return next.res, next.err
}

// Calls returns a copy of all recorded invocations in order.
func (s *Script) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times the given command line was run.
func (s *Script) CallCount(cmdline string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.Join(c.Args, " ") == cmdline {
			n++
		}
	}
	return n
}
