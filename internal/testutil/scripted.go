package testutil

import (
	"context"
	"io"
	"sync"
	"time"
)

// ScriptedAnalyzer replays fixed output instead of running PMD. It satisfies
// the gate's Analyzer interface.
type ScriptedAnalyzer struct {
	Stdout string
	Stderr string
	// Err is returned after the output is written
	Err error
	// Panic, when non-nil, is raised after the output is written
	Panic interface{}
	// Delay blocks the call until it elapses or the context is done
	Delay time.Duration
	// Hook, when set, runs instead of writing Stdout and Stderr
	Hook func(ctx context.Context, args []string) error

	mu    sync.Mutex
	calls [][]string
}

// Analyze records the call and replays the scripted behavior
func (s *ScriptedAnalyzer) Analyze(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), args...))
	s.mu.Unlock()

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if s.Hook != nil {
		return s.Hook(ctx, args)
	}

	if s.Stdout != "" {
		_, _ = io.WriteString(stdout, s.Stdout) //nolint:errcheck // test double
	}
	if s.Stderr != "" {
		_, _ = io.WriteString(stderr, s.Stderr) //nolint:errcheck // test double
	}
	if s.Panic != nil {
		panic(s.Panic)
	}
	return s.Err
}

// Calls returns the argument lists of every invocation so far
func (s *ScriptedAnalyzer) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([][]string, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// CallCount returns the number of invocations so far
func (s *ScriptedAnalyzer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
