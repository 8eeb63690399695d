// Package gate runs the PMD static analyzer over a source folder and fails
// when PMD reports findings or writes to its error channel.
//
// Tests usually call Run:
//
//	func TestNoPMDFindings(t *testing.T) {
//		gate.Run(t, "../src/main/java", "pmd-rules.xml")
//	}
//
// The rule-set name is resolved next to the calling test file first, then in
// the configured rule-set paths, then through Bazel runfiles.
package gate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	internalconfig "github.com/bebsworthy/pmdgate/internal/config"
	"github.com/bebsworthy/pmdgate/internal/debug"
	"github.com/bebsworthy/pmdgate/internal/executor"
	"github.com/bebsworthy/pmdgate/internal/filter"
	"github.com/bebsworthy/pmdgate/internal/reporter"
	"github.com/bebsworthy/pmdgate/internal/resolver"
	"github.com/bebsworthy/pmdgate/pkg/config"
)

// Request names what one gate run checks
type Request struct {
	// TargetDir is the folder to analyze. Relative paths are taken
	// relative to the working directory.
	TargetDir string
	// RuleSet is the rule-set name, possibly a comma separated list
	RuleSet string
	// CallerDir is the directory rule-set names are resolved against.
	// Defaults to the working directory.
	CallerDir string
}

// Result is the outcome of one analyzer run
type Result struct {
	// Findings are the stdout lines left after noise filtering, in order
	Findings []string
	Stdout   string
	Stderr   string
	// ExitCode is the analyzer's exit status. It does not decide the outcome.
	ExitCode   int
	TotalLines int
	Suppressed int
	Duration   time.Duration
}

// Passed reports whether the run has no findings and a blank error channel
func (r *Result) Passed() bool {
	return len(r.Findings) == 0 && reporter.StderrMessage(r.Stderr) == ""
}

// Gate checks folders against PMD rule sets
type Gate struct {
	cfg      *config.Config
	analyzer Analyzer
	resolver *resolver.Resolver
	out      io.Writer
	timeout  time.Duration
	patterns *filter.PatternCache
}

// Option configures a Gate
type Option func(*Gate)

// WithAnalyzer replaces the PMD command line analyzer
func WithAnalyzer(a Analyzer) Option {
	return func(g *Gate) {
		g.analyzer = a
	}
}

// WithOutput sets where diagnostics are printed. Defaults to os.Stdout,
// never a handle redirected by a ProcessStreamAnalyzer run.
func WithOutput(w io.Writer) Option {
	return func(g *Gate) {
		g.out = w
	}
}

// WithTimeout bounds each analyzer run. Zero disables the gate's own
// deadline.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		g.timeout = d
	}
}

// WithRuleSetPaths adds directories searched for rule sets after the
// caller's directory
func WithRuleSetPaths(paths ...string) Option {
	return func(g *Gate) {
		g.resolver.SearchPaths = append(g.resolver.SearchPaths, paths...)
	}
}

// New creates a gate. A nil cfg uses the defaults; missing analyzer settings
// are filled in from the defaults.
func New(cfg *config.Config, opts ...Option) (*Gate, error) {
	cfg = internalconfig.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	patterns := filter.NewPatternCache()
	if _, err := filter.NewFindingsFilter(filter.RulesFromConfig(cfg.Filter, ""), patterns); err != nil {
		return nil, fmt.Errorf("invalid filter rules: %w", err)
	}

	g := &Gate{
		patterns: patterns,
		cfg:      cfg,
		analyzer: NewCommandAnalyzer(cfg.Analyzer),
		resolver: resolver.New(append([]string(nil), cfg.RuleSetPaths...)),
		timeout:  time.Duration(cfg.Analyzer.Timeout) * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.analyzer == nil {
		return nil, errors.New("analyzer cannot be nil")
	}
	return g, nil
}

// Check runs the analyzer over req.TargetDir and judges its output. On
// success it returns the result and a nil error. Findings, error-channel
// output and infrastructure failures are reported as *Error. The result is
// returned alongside the error whenever the analyzer ran.
func (g *Gate) Check(ctx context.Context, req Request) (*Result, error) {
	debug.LogSection("PMD Findings Gate")
	start := time.Now()
	console := reporter.NewConsole(g.output())

	absDir, err := filepath.Abs(req.TargetDir)
	if err != nil {
		return nil, &Error{
			Kind:    KindResourceNotFound,
			Message: fmt.Sprintf("The folder to check '%s' does not exist.", req.TargetDir),
			Err:     err,
		}
	}
	console.Start(absDir)

	info, err := os.Stat(absDir)
	if err != nil {
		return nil, &Error{
			Kind:    KindResourceNotFound,
			Message: fmt.Sprintf("The folder to check '%s' does not exist.", absDir),
			Err:     err,
		}
	}
	if !info.IsDir() {
		return nil, &Error{
			Kind:    KindResourceNotFound,
			Message: fmt.Sprintf("The folder to check '%s' is not a directory.", absDir),
		}
	}

	callerDir := req.CallerDir
	if callerDir == "" {
		if callerDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
	}

	locators, err := g.resolver.Resolve(req.RuleSet, callerDir)
	if err != nil {
		return nil, &Error{Kind: KindResourceNotFound, Message: err.Error(), Err: err}
	}
	ruleSets, err := resolver.JoinDecoded(locators)
	if err != nil {
		return nil, &Error{Kind: KindResourceNotFound, Message: err.Error(), Err: err}
	}

	findingsFilter, err := filter.NewFindingsFilter(filter.RulesFromConfig(g.cfg.Filter, absDir), g.patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid filter rules: %w", err)
	}

	args := []string{absDir, internalconfig.DefaultFormat, ruleSets}
	debug.LogFields(map[string]interface{}{
		"dir":      absDir,
		"rulesets": ruleSets,
		"timeout":  g.timeout,
	}, "Invoking analyzer")

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	runErr := g.analyzer.Analyze(ctx, args, &stdout, &stderr)

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	debug.LogTiming("analyzer run", result.Duration)

	if runErr != nil {
		var exitErr *ExitStatusError
		switch {
		case isTimeout(ctx, runErr):
			return result, &Error{
				Kind:    KindTimeout,
				Message: g.timeoutMessage(absDir),
				Err:     runErr,
			}
		case errors.Is(runErr, context.Canceled) || ctx.Err() != nil:
			return result, &Error{
				Kind:    KindAnalyzerFailed,
				Message: fmt.Sprintf("PMD analysis of '%s' was canceled.", absDir),
				Err:     runErr,
			}
		case errors.As(runErr, &exitErr):
			result.ExitCode = exitErr.Code
			debug.Log("Analyzer exit code %d ignored, judging by output", exitErr.Code)
		default:
			return result, &Error{
				Kind:    KindAnalyzerFailed,
				Message: fmt.Sprintf("PMD analysis of '%s' failed: %v", absDir, runErr),
				Err:     runErr,
			}
		}
	}

	filtered := findingsFilter.Filter(result.Stdout)
	result.Findings = filtered.Lines
	result.TotalLines = filtered.TotalLines
	result.Suppressed = filtered.Suppressed
	if n := g.patterns.Size(); n > 0 {
		stats := g.patterns.GetStats()
		debug.Log("Suppress patterns: %d compiled, %d cache hits, %d misses", n, stats.Hits, stats.Misses)
	}

	console.Summary(result.Findings, result.Stderr)

	if len(result.Findings) > 0 {
		return result, &Error{
			Kind:     KindFindingsPresent,
			Message:  reporter.FindingsMessage(result.Findings),
			Findings: result.Findings,
		}
	}

	if msg := reporter.StderrMessage(result.Stderr); msg != "" {
		return result, &Error{
			Kind:    KindAnalyzerStderr,
			Message: msg,
			Stderr:  result.Stderr,
		}
	}

	return result, nil
}

func (g *Gate) output() io.Writer {
	if g.out != nil {
		return g.out
	}
	return processStdout{}
}

func (g *Gate) timeoutMessage(absDir string) string {
	if g.timeout > 0 {
		return fmt.Sprintf("PMD analysis of '%s' did not finish within %v.", absDir, g.timeout)
	}
	return fmt.Sprintf("PMD analysis of '%s' did not finish in time.", absDir)
}

func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, executor.ErrTimeout) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded)
}
