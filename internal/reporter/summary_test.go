//go:build unit

package reporter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bebsworthy/pmdgate/internal/executor"
)

func TestConsole_Start(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Start("/work/src")

	want := "Starting PMD code analyzer test on folder '/work/src'.\n"
	if buf.String() != want {
		t.Errorf("Start() wrote %q, want %q", buf.String(), want)
	}
}

func TestConsole_Summary(t *testing.T) {
	tests := []struct {
		name     string
		findings []string
		stderr   string
		want     string
	}{
		{
			name: "clean",
			want: "Found 0 errors\n",
		},
		{
			name:     "findings",
			findings: []string{"A.java:1:\tx", "B.java:2:\ty"},
			want:     "Found 2 errors\nA.java:1:\tx\n\nB.java:2:\ty\n\n",
		},
		{
			name:   "error channel",
			stderr: "Rule set not found",
			want:   "Found 0 errors\nErrors:\nRule set not found\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsole(&buf).Summary(tt.findings, tt.stderr)
			if buf.String() != tt.want {
				t.Errorf("Summary() wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestConsole_NilWriterDiscards(t *testing.T) {
	c := NewConsole(nil)
	c.Start("/x")
	c.Summary([]string{"a"}, "b")
}

func TestFindingsMessage(t *testing.T) {
	if got := FindingsMessage([]string{"one", "two"}); got != "2 errors\none\ntwo\n" {
		t.Errorf("FindingsMessage() = %q", got)
	}
	if got := FindingsMessage(nil); got != "0 errors\n" {
		t.Errorf("FindingsMessage(nil) = %q", got)
	}
}

func TestStderrMessage(t *testing.T) {
	if got := StderrMessage("\n  boom \t\n"); got != "boom" {
		t.Errorf("StderrMessage() = %q", got)
	}
}

func TestErrorReporter_Report(t *testing.T) {
	r := NewErrorReporter()

	tests := []struct {
		name       string
		outcome    Outcome
		wantCode   int
		wantStderr []string
		wantStdout string
	}{
		{
			name:       "pass",
			outcome:    Outcome{Stderr: " \n"},
			wantCode:   0,
			wantStdout: "No PMD findings.",
		},
		{
			name:       "findings",
			outcome:    Outcome{Findings: []string{"A.java:1:\tx"}, Stderr: "ignored"},
			wantCode:   2,
			wantStderr: []string{"Fix the PMD findings below:", "1 errors", "A.java:1:\tx"},
		},
		{
			name:       "error channel",
			outcome:    Outcome{Stderr: "Cannot load ruleset\n"},
			wantCode:   2,
			wantStderr: []string{"PMD reported errors:", "Cannot load ruleset"},
		},
		{
			name: "command not found",
			outcome: Outcome{ExecutionError: fmt.Errorf("run pmd: %w",
				&executor.ExecError{Type: executor.ErrorTypeCommandNotFound, Command: "pmd"})},
			wantCode:   1,
			wantStderr: []string{"[PMDGATE ERROR] Execution Error", "Command: pmd", "Command not found", "analyzer.command"},
		},
		{
			name: "timeout",
			outcome: Outcome{ExecutionError: &executor.ExecError{Type: executor.ErrorTypeTimeout, Command: "pmd"}},
			wantCode:   1,
			wantStderr: []string{"Command timed out", "analyzer.timeout"},
		},
		{
			name:       "plain error",
			outcome:    Outcome{ExecutionError: errors.New("The folder to check '/x' does not exist.")},
			wantCode:   1,
			wantStderr: []string{"Error: The folder to check '/x' does not exist."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := r.Report(tt.outcome)
			if report.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", report.ExitCode, tt.wantCode)
			}
			for _, s := range tt.wantStderr {
				if !strings.Contains(report.Stderr, s) {
					t.Errorf("Stderr missing %q: %q", s, report.Stderr)
				}
			}
			if report.Stdout != tt.wantStdout {
				t.Errorf("Stdout = %q, want %q", report.Stdout, tt.wantStdout)
			}
		})
	}
}

func TestErrorReporter_ReportSingleError(t *testing.T) {
	report := NewErrorReporter().ReportSingleError("Configuration Error", "invalid config", "version is required")

	if report.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", report.ExitCode)
	}
	for _, s := range []string{
		"[PMDGATE ERROR] Configuration Error: invalid config",
		"- version is required",
		"pmdgate --debug",
	} {
		if !strings.Contains(report.Stderr, s) {
			t.Errorf("Stderr missing %q: %q", s, report.Stderr)
		}
	}
}
