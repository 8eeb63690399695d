package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bebsworthy/pmdgate/internal/security"
	"github.com/bebsworthy/pmdgate/pkg/config"
)

const (
	minTimeout = 100 * time.Millisecond
	maxTimeout = time.Hour

	maxPatternLength = 500
	maxCaptureGroups = 10
)

var nestedQuantifier = regexp.MustCompile(`\([^)]*[+*]\)[+*]`)

// Validator performs checks beyond config.Validate that need the
// environment: the PMD launcher in PATH, rule-set directories on disk, and
// patterns that would swallow every finding.
type Validator struct {
	// CheckCommands indicates whether to validate command existence in PATH
	CheckCommands bool
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{CheckCommands: true}
}

// Validate performs comprehensive validation on a configuration
func (v *Validator) Validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Analyzer != nil {
		if err := v.validateAnalyzer(cfg.Analyzer); err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
	}

	if cfg.Filter != nil {
		if err := v.validateFilter(cfg.Filter); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}

	for _, p := range cfg.RuleSetPaths {
		if !filepath.IsAbs(p) {
			// Relative entries depend on the calling test's directory
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("rule set path %q is not a directory", p)
		}
	}

	return nil
}

func (v *Validator) validateAnalyzer(a *config.AnalyzerConfig) error {
	if v.CheckCommands {
		if err := checkCommandExists(a.Command); err != nil {
			return err
		}
	}

	if err := security.CheckEnvironment(a.Environment); err != nil {
		return err
	}

	if a.Timeout > 0 {
		timeout := time.Duration(a.Timeout) * time.Millisecond
		if timeout < minTimeout || timeout > maxTimeout {
			return fmt.Errorf("timeout %v is outside the allowed range %v to %v", timeout, minTimeout, maxTimeout)
		}
	}

	return nil
}

func (v *Validator) validateFilter(f *config.FilterConfig) error {
	for i, pattern := range f.SuppressPatterns {
		if err := validateSuppressPattern(pattern); err != nil {
			return fmt.Errorf("suppress pattern %d: %w", i, err)
		}
	}

	for i, glob := range f.ExcludePaths {
		if err := validatePathPattern(glob); err != nil {
			return fmt.Errorf("exclude path %d: %w", i, err)
		}
	}

	return nil
}

func validateSuppressPattern(pattern *config.RegexPattern) error {
	if pattern == nil {
		return nil
	}

	if err := checkDangerousRegex(pattern.Pattern); err != nil {
		return err
	}

	re, err := pattern.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile regex: %w", err)
	}

	if isTooGenericPattern(re) {
		return fmt.Errorf("pattern %q is too generic and would suppress every finding", pattern.Pattern)
	}

	return nil
}

// checkDangerousRegex rejects patterns prone to catastrophic backtracking
// in engines other than RE2 and patterns too large to review.
func checkDangerousRegex(pattern string) error {
	if nestedQuantifier.MatchString(pattern) {
		return fmt.Errorf("pattern contains nested quantifiers")
	}

	if len(pattern) > maxPatternLength {
		return fmt.Errorf("pattern is too long (%d chars), maximum is %d", len(pattern), maxPatternLength)
	}

	captureCount := strings.Count(pattern, "(") - strings.Count(pattern, "(?:")
	if captureCount > maxCaptureGroups {
		return fmt.Errorf("too many capturing groups (%d), maximum is %d", captureCount, maxCaptureGroups)
	}

	return nil
}

// isTooGenericPattern reports whether re matches nearly every PMD line
func isTooGenericPattern(re *regexp.Regexp) bool {
	samples := []string{
		"/src/main/java/App.java:12:\tAvoid unused local variables such as 'x'.",
		"/src/main/java/App.java:40:\tThis class has too many methods",
		"src/test/java/AppTest.java:3:\tUnnecessary import from the java.lang package",
		"[WARN] Progressbar rendering conflicts with reporting to STDOUT.",
		"Processing finished",
	}

	matches := 0
	for _, s := range samples {
		if re.MatchString(s) {
			matches++
		}
	}
	return matches >= len(samples)-1
}

// validatePathPattern validates an exclude glob
func validatePathPattern(pattern string) error {
	if filepath.IsAbs(pattern) || strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("absolute paths are not allowed in patterns")
	}

	if runtime.GOOS != osWindows && len(pattern) >= 3 &&
		pattern[1] == ':' && (pattern[2] == '\\' || pattern[2] == '/') {
		return fmt.Errorf("absolute paths are not allowed in patterns")
	}

	for _, segment := range strings.Split(filepath.ToSlash(pattern), "/") {
		if segment == ".." {
			return fmt.Errorf("directory traversal is not allowed in patterns")
		}
	}

	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid glob pattern %q", pattern)
	}

	return nil
}

// checkCommandExists verifies that a command exists in PATH
func checkCommandExists(command string) error {
	if strings.Contains(command, "/") || strings.Contains(command, "\\") {
		if _, err := os.Stat(command); err == nil {
			return nil
		}
		return fmt.Errorf("command %q not found at specified path", command)
	}

	path, err := exec.LookPath(command)
	if err != nil {
		if runtime.GOOS == osWindows {
			return fmt.Errorf("command %q not found in PATH (did you mean %s.bat?)", command, command)
		}
		return fmt.Errorf("command %q not found in PATH", command)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat command %q: %w", command, err)
	}

	if runtime.GOOS != osWindows && info.Mode()&0o111 == 0 {
		return fmt.Errorf("command %q is not executable", command)
	}

	return nil
}

// SuggestFixes provides suggestions for common configuration errors
func (v *Validator) SuggestFixes(err error) []string {
	errStr := err.Error()
	suggestions := []string{}

	if strings.Contains(errStr, "not found in PATH") || strings.Contains(errStr, "not found at specified path") {
		suggestions = append(suggestions,
			"Install PMD 7 from https://pmd.github.io/ and put its bin directory on your PATH",
			"Or set analyzer.command to the full path of the pmd launcher",
		)
	}

	if strings.Contains(errStr, "regex") || strings.Contains(errStr, "pattern") {
		suggestions = append(suggestions,
			"Check your regex pattern syntax",
			"Anchor suppress patterns on the rule name rather than matching whole lines",
		)
	}

	if strings.Contains(errStr, "timeout") {
		suggestions = append(suggestions,
			"Use a timeout between 100ms and 3600000ms (1 hour)",
		)
	}

	if strings.Contains(errStr, "exclude path") {
		suggestions = append(suggestions,
			"Use paths relative to the analyzed folder (no leading /)",
			"Use ** for recursive matching (e.g., 'src/generated/**')",
		)
	}

	if strings.Contains(errStr, "environment entry") {
		suggestions = append(suggestions,
			"Pass JVM settings through PMD_JAVA_OPTS or JAVA_HOME instead of loader variables",
		)
	}

	if strings.Contains(errStr, "rule set path") {
		suggestions = append(suggestions,
			"Create the directory or remove it from ruleSetPaths",
		)
	}

	return suggestions
}
