package gate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bebsworthy/pmdgate/internal/debug"
	"github.com/bebsworthy/pmdgate/internal/executor"
	"github.com/bebsworthy/pmdgate/internal/security"
	"github.com/bebsworthy/pmdgate/pkg/config"
)

// Analyzer runs a static analysis over a folder. args are, in order, the
// absolute target folder, the report format and the comma separated rule-set
// locators. Output goes to stdout and stderr only; implementations must not
// write to the process-wide streams.
type Analyzer interface {
	Analyze(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

// AnalyzerFunc adapts an in-process analyzer that accepts writers
type AnalyzerFunc func(ctx context.Context, args []string, stdout, stderr io.Writer) error

// Analyze calls f
func (f AnalyzerFunc) Analyze(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return f(ctx, args, stdout, stderr)
}

// ExitStatusError reports a non-zero analyzer exit. PMD exits 4 when it
// finds violations, so the gate records the code and judges the run by its
// output instead.
type ExitStatusError struct {
	Code int
}

// Error implements the error interface
func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("analyzer exited with status %d", e.Code)
}

// CommandAnalyzer runs PMD as a child process. Each call captures into its
// own buffers, so concurrent calls never interfere.
type CommandAnalyzer struct {
	Command     string
	Args        []string
	Environment []string
	Timeout     time.Duration

	executor *executor.CommandExecutor
}

// NewCommandAnalyzer creates an analyzer from the analyzer configuration
func NewCommandAnalyzer(cfg *config.AnalyzerConfig) *CommandAnalyzer {
	a := &CommandAnalyzer{
		Command:     cfg.Command,
		Args:        append([]string(nil), cfg.Args...),
		Environment: append([]string(nil), cfg.Environment...),
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
	a.executor = executor.NewCommandExecutor(a.Timeout)
	return a
}

// Analyze runs the configured command with the placeholders expanded
func (a *CommandAnalyzer) Analyze(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) != 3 {
		return fmt.Errorf("expected 3 analyzer arguments, got %d", len(args))
	}

	cmdArgs := ExpandArgs(a.Args, args[0], args[1], args[2])
	if a.executor == nil {
		a.executor = executor.NewCommandExecutor(a.Timeout)
	}

	if len(a.Environment) > 0 {
		debug.Log("Analyzer environment: %v", security.RedactEnvironment(a.Environment))
	}

	result, err := a.executor.ExecuteWithStreaming(ctx, a.Command, cmdArgs, executor.ExecOptions{
		Environment: a.Environment,
		InheritEnv:  true,
		Timeout:     a.Timeout,
	}, stdout, stderr)
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", a.Command, err)
	}

	// A killed PMD exits -1 with partial output; that must never be judged
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s was interrupted: %w", a.Command, ctxErr)
	}
	if result.TimedOut {
		return &executor.ExecError{
			Type:    executor.ErrorTypeTimeout,
			Command: a.Command,
			Args:    cmdArgs,
			Err:     context.DeadlineExceeded,
		}
	}
	if result.Error != nil {
		return result.Error
	}
	if result.ExitCode != 0 {
		return &ExitStatusError{Code: result.ExitCode}
	}
	return nil
}

// ExpandArgs replaces the {dir}, {format} and {rulesets} placeholders in a
// PMD argument template
func ExpandArgs(template []string, dir, format, ruleSets string) []string {
	replacer := strings.NewReplacer(
		config.PlaceholderDir, dir,
		config.PlaceholderFormat, format,
		config.PlaceholderRuleSets, ruleSets,
	)
	expanded := make([]string, len(template))
	for i, arg := range template {
		expanded[i] = replacer.Replace(arg)
	}
	return expanded
}

// streamMu serializes every redirection of os.Stdout and os.Stderr, and
// every read of os.Stdout made for the gate's own diagnostics
var streamMu sync.Mutex

// processStdout writes to os.Stdout outside any redirection. A write made
// while a ProcessStreamAnalyzer runs waits for the real handle to return,
// so it never lands in that call's captured output.
type processStdout struct{}

func (processStdout) Write(p []byte) (int, error) {
	streamMu.Lock()
	defer streamMu.Unlock()
	return os.Stdout.Write(p)
}

// ProcessStreamAnalyzer adapts an in-process analyzer that can only print
// to os.Stdout and os.Stderr. While it runs, the process-wide handles point
// at pipes drained into the call's writers. Calls are serialized across the
// process and the original handles are restored before Analyze returns,
// including when the analyzer panics.
type ProcessStreamAnalyzer func(ctx context.Context, args []string) error

// Analyze redirects the process streams, runs f and restores the streams
func (f ProcessStreamAnalyzer) Analyze(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	streamMu.Lock()
	defer streamMu.Unlock()

	outR, outW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		_ = outR.Close() //nolint:errcheck // best effort cleanup
		_ = outW.Close() //nolint:errcheck // best effort cleanup
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	var drains errgroup.Group
	drains.Go(func() error { return drain(outR, stdout) })
	drains.Go(func() error { return drain(errR, stderr) })

	origStdout, origStderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outW, errW

	defer func() {
		os.Stdout, os.Stderr = origStdout, origStderr
		_ = outW.Close() //nolint:errcheck // closing ends the drain
		_ = errW.Close() //nolint:errcheck // closing ends the drain
		copyErr := drains.Wait()

		if r := recover(); r != nil {
			debug.Log("In-process analyzer panicked: %v", r)
			err = fmt.Errorf("analyzer panicked: %v", r)
			return
		}
		if err == nil && copyErr != nil {
			err = fmt.Errorf("failed to capture analyzer output: %w", copyErr)
		}
	}()

	return f(ctx, args)
}

func drain(r *os.File, w io.Writer) error {
	defer func() { _ = r.Close() }() //nolint:errcheck // best effort cleanup
	if w == nil {
		w = io.Discard
	}
	_, err := io.Copy(w, r)
	if err != nil {
		// The pipe must keep draining or the analyzer blocks on a full buffer
		_, _ = io.Copy(io.Discard, r) //nolint:errcheck // already failing
	}
	return err
}
