// Package reporter formats findings gate diagnostics and failure reports.
package reporter

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bebsworthy/pmdgate/internal/executor"
)

// Console prints the human-readable diagnostics of a gate run. The
// diagnostics repeat what the failure message carries so the evidence is
// visible in the console even when the failure is reported elsewhere.
type Console struct {
	out io.Writer
}

// NewConsole creates a console printer writing to out
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{out: out}
}

// Start announces the folder about to be analyzed
func (c *Console) Start(absDir string) {
	_, _ = fmt.Fprintf(c.out, "Starting PMD code analyzer test on folder '%s'.\n", absDir) //nolint:errcheck // best effort output
}

// Summary prints the finding count, each finding, and any error-channel text
func (c *Console) Summary(findings []string, stderr string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d errors\n", len(findings))
	for _, line := range findings {
		b.WriteString(line)
		b.WriteString("\n\n")
	}
	if stderr != "" {
		b.WriteString("Errors:\n")
		b.WriteString(stderr)
		b.WriteString("\n")
	}
	_, _ = io.WriteString(c.out, b.String()) //nolint:errcheck // best effort output
}

// FindingsMessage formats the failure message for remaining findings:
// "<N> errors\n" followed by each finding on its own line.
func FindingsMessage(findings []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors\n", len(findings))
	for _, line := range findings {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// StderrMessage formats the failure message for error-channel output
func StderrMessage(stderr string) string {
	return strings.TrimSpace(stderr)
}

// Outcome is the result of one gate run as seen by the CLI
type Outcome struct {
	Findings []string
	Stderr   string
	// ExecutionError is an infrastructure failure: missing resources,
	// timeouts, or an analyzer that could not run
	ExecutionError error
}

// ReportResult contains the final report output
type ReportResult struct {
	// Exit code (0 for success, 2 for findings, 1 for other errors)
	ExitCode int
	Stderr   string
	Stdout   string
}

// ErrorReporter turns gate outcomes into CLI reports
type ErrorReporter struct{}

// NewErrorReporter creates a new error reporter
func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{}
}

// Report builds the CLI report for an outcome
func (r *ErrorReporter) Report(o Outcome) *ReportResult {
	if o.ExecutionError != nil {
		return &ReportResult{
			ExitCode: 1,
			Stderr:   "[PMDGATE ERROR] Execution Error\n\n" + r.formatExecutionError(o.ExecutionError),
		}
	}

	if len(o.Findings) > 0 {
		return &ReportResult{
			ExitCode: 2,
			Stderr:   "Fix the PMD findings below:\n\n" + strings.TrimSuffix(FindingsMessage(o.Findings), "\n"),
		}
	}

	if msg := StderrMessage(o.Stderr); msg != "" {
		return &ReportResult{
			ExitCode: 2,
			Stderr:   "PMD reported errors:\n\n" + msg,
		}
	}

	return &ReportResult{
		ExitCode: 0,
		Stdout:   "No PMD findings.",
	}
}

func (r *ErrorReporter) formatExecutionError(err error) string {
	var execErr *executor.ExecError
	if !errors.As(err, &execErr) {
		return fmt.Sprintf("Error: %v", err)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("Command: %s\n", execErr.Command))

	switch execErr.Type {
	case executor.ErrorTypeCommandNotFound:
		msg.WriteString("Error: Command not found\n")
		msg.WriteString(fmt.Sprintf("Details: The command '%s' is not installed or not in PATH\n", execErr.Command))
		msg.WriteString("Fix: Install PMD or set analyzer.command in .pmdgate.json")
	case executor.ErrorTypePermissionDenied:
		msg.WriteString("Error: Permission denied\n")
		msg.WriteString("Fix: Check that the PMD launcher is executable")
	case executor.ErrorTypeTimeout:
		msg.WriteString("Error: Command timed out\n")
		msg.WriteString("Fix: Increase analyzer.timeout or narrow the analyzed folder")
	case executor.ErrorTypeWorkingDirectory:
		msg.WriteString("Error: Working directory error\n")
		msg.WriteString(fmt.Sprintf("Details: %s", execErr.Details))
	default:
		msg.WriteString(fmt.Sprintf("Error: %v", execErr.Err))
	}

	return msg.String()
}

// ReportSingleError creates a report for a single error message
func (r *ErrorReporter) ReportSingleError(errorType string, message string, details ...string) *ReportResult {
	var stderr strings.Builder

	stderr.WriteString(fmt.Sprintf("[PMDGATE ERROR] %s: %s\n", errorType, message))
	if len(details) > 0 {
		stderr.WriteString("\nDetails:\n")
		for _, detail := range details {
			stderr.WriteString(fmt.Sprintf("- %s\n", detail))
		}
	}
	stderr.WriteString("\nDebug with: pmdgate --debug <command>")

	return &ReportResult{
		ExitCode: 1,
		Stderr:   stderr.String(),
	}
}
