//go:build unit

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bebsworthy/pmdgate/pkg/config"
)

func TestValidator_Validate(t *testing.T) {
	existingDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr string
	}{
		{
			name: "defaults",
			cfg:  DefaultConfig(),
		},
		{
			name:    "basic validation still applies",
			cfg:     &config.Config{},
			wantErr: "version is required",
		},
		{
			name: "timeout too small",
			cfg: &config.Config{Version: "1.0", Analyzer: &config.AnalyzerConfig{
				Command: "pmd", Timeout: 10,
			}},
			wantErr: "outside the allowed range",
		},
		{
			name: "timeout too large",
			cfg: &config.Config{Version: "1.0", Analyzer: &config.AnalyzerConfig{
				Command: "pmd", Timeout: 2 * 3600000,
			}},
			wantErr: "outside the allowed range",
		},
		{
			name: "loader variable in environment",
			cfg: &config.Config{Version: "1.0", Analyzer: &config.AnalyzerConfig{
				Command: "pmd", Environment: []string{"LD_PRELOAD=/tmp/hook.so"},
			}},
			wantErr: "LD_PRELOAD cannot be set",
		},
		{
			name: "java options in environment",
			cfg: &config.Config{Version: "1.0", Analyzer: &config.AnalyzerConfig{
				Command: "pmd", Environment: []string{"PMD_JAVA_OPTS=-Xmx2g"},
			}},
		},
		{
			name: "generic suppress pattern",
			cfg: &config.Config{Version: "1.0", Filter: &config.FilterConfig{
				SuppressPatterns: []*config.RegexPattern{{Pattern: ".*"}},
			}},
			wantErr: "too generic",
		},
		{
			name: "nested quantifier",
			cfg: &config.Config{Version: "1.0", Filter: &config.FilterConfig{
				SuppressPatterns: []*config.RegexPattern{{Pattern: "(a+)+b"}},
			}},
			wantErr: "nested quantifiers",
		},
		{
			name: "specific suppress pattern",
			cfg: &config.Config{Version: "1.0", Filter: &config.FilterConfig{
				SuppressPatterns: []*config.RegexPattern{{Pattern: `\tTooManyMethods`}},
			}},
		},
		{
			name: "absolute exclude path",
			cfg: &config.Config{Version: "1.0", Filter: &config.FilterConfig{
				ExcludePaths: []string{"/src/generated/**"},
			}},
			wantErr: "absolute paths",
		},
		{
			name: "traversal in exclude path",
			cfg: &config.Config{Version: "1.0", Filter: &config.FilterConfig{
				ExcludePaths: []string{"src/../../etc/**"},
			}},
			wantErr: "directory traversal",
		},
		{
			name: "missing rule set directory",
			cfg: &config.Config{Version: "1.0", RuleSetPaths: []string{
				filepath.Join(existingDir, "missing"),
			}},
			wantErr: "is not a directory",
		},
		{
			name: "existing rule set directory",
			cfg:  &config.Config{Version: "1.0", RuleSetPaths: []string{existingDir, "relative/dir"}},
		},
	}

	v := &Validator{CheckCommands: false}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_CheckCommands(t *testing.T) {
	if runtime.GOOS == osWindows {
		t.Skip("uses a unix shell script")
	}

	dir := t.TempDir()
	launcher := filepath.Join(dir, "pmd")
	if err := os.WriteFile(launcher, []byte("#!/bin/sh\n"), 0o755); err != nil { // #nosec G306 - test launcher must be executable
		t.Fatal(err)
	}

	v := NewValidator()

	cfg := &config.Config{Version: "1.0", Analyzer: &config.AnalyzerConfig{Command: launcher}}
	if err := v.Validate(cfg); err != nil {
		t.Errorf("Expected launcher at explicit path to validate, got %v", err)
	}

	cfg.Analyzer.Command = "pmdgate-command-that-does-not-exist"
	err := v.Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "not found in PATH") {
		t.Errorf("Expected not found error, got %v", err)
	}

	t.Setenv("PATH", dir)
	cfg.Analyzer.Command = "pmd"
	if err := v.Validate(cfg); err != nil {
		t.Errorf("Expected pmd in PATH to validate, got %v", err)
	}
}

func TestValidator_SuggestFixes(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		err  error
		want string
	}{
		{errors.New(`analyzer: command "pmd" not found in PATH`), "Install PMD 7"},
		{errors.New("filter: suppress pattern 0: pattern \".*\" is too generic"), "Anchor suppress patterns"},
		{errors.New("analyzer: timeout 1ms is outside the allowed range"), "between 100ms"},
		{errors.New("filter: exclude path 0: absolute paths are not allowed"), "relative to the analyzed folder"},
		{errors.New(`rule set path "/x" is not a directory`), "ruleSetPaths"},
	}

	for _, tt := range tests {
		suggestions := v.SuggestFixes(tt.err)
		found := false
		for _, s := range suggestions {
			if strings.Contains(s, tt.want) {
				found = true
			}
		}
		if !found {
			t.Errorf("SuggestFixes(%q) = %v, want one containing %q", tt.err, suggestions, tt.want)
		}
	}

	if got := v.SuggestFixes(errors.New("something else")); len(got) != 0 {
		t.Errorf("Expected no suggestions, got %v", got)
	}
}
