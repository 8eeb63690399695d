// Package filter turns raw PMD console output into finding lines.
package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bebsworthy/pmdgate/internal/debug"
	"github.com/bebsworthy/pmdgate/pkg/config"
)

// Lines PMD prints on stdout that are not findings. Matching is an exact,
// case-sensitive substring test. The wording is PMD's own and is not a
// versioned contract.
const (
	MarkerSuppressedByAnnotation = "suppressed by Annotation"
	MarkerNoProblemsFound        = "No problems found!"
	MarkerErrorWhileProcessing   = "Error while processing"
)

var (
	lineSplitter = regexp.MustCompile(`\r?\n`)

	// PMD text reports start with "<file>:<line>:"
	findingLocation = regexp.MustCompile(`^(.+?):(\d+):`)
)

// DefaultNoiseMarkers returns the built-in noise markers
func DefaultNoiseMarkers() []string {
	return []string{
		MarkerSuppressedByAnnotation,
		MarkerNoProblemsFound,
		MarkerErrorWhileProcessing,
	}
}

// Rules defines what counts as noise
type Rules struct {
	NoiseMarkers     []string
	SuppressPatterns []*config.RegexPattern
	// ExcludePaths are doublestar globs matched against the finding's file
	// path relative to BaseDir
	ExcludePaths []string
	BaseDir      string
}

// RulesFromConfig combines the built-in markers with configured additions
func RulesFromConfig(cfg *config.FilterConfig, baseDir string) *Rules {
	rules := &Rules{
		NoiseMarkers: DefaultNoiseMarkers(),
		BaseDir:      baseDir,
	}
	if cfg == nil {
		return rules
	}
	rules.NoiseMarkers = append(rules.NoiseMarkers, cfg.NoiseMarkers...)
	rules.SuppressPatterns = cfg.SuppressPatterns
	rules.ExcludePaths = cfg.ExcludePaths
	return rules
}

// FindingsFilter separates findings from noise in analyzer output
type FindingsFilter struct {
	rules    *Rules
	suppress *PatternSet
}

// FilteredOutput is the result of filtering one analyzer run
type FilteredOutput struct {
	// Lines holds the findings in output order
	Lines []string
	// TotalLines counts the non-empty lines examined
	TotalLines int
	// Suppressed counts the non-empty lines dropped as noise
	Suppressed int
}

// NewFindingsFilter creates a filter, compiling patterns through cache and
// checking globs. A nil cache compiles every pattern afresh.
func NewFindingsFilter(rules *Rules, cache *PatternCache) (*FindingsFilter, error) {
	if rules == nil {
		return nil, fmt.Errorf("filter rules cannot be nil")
	}

	suppress, err := NewPatternSet(rules.SuppressPatterns, cache)
	if err != nil {
		return nil, fmt.Errorf("suppress patterns: %w", err)
	}

	for _, glob := range rules.ExcludePaths {
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("invalid exclude path pattern %q", glob)
		}
	}

	return &FindingsFilter{rules: rules, suppress: suppress}, nil
}

// SplitLines splits output on \r?\n and drops empty lines
func SplitLines(output string) []string {
	var lines []string
	for _, line := range lineSplitter.Split(output, -1) {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Filter returns the finding lines of the given output
func (f *FindingsFilter) Filter(output string) *FilteredOutput {
	lines := SplitLines(output)
	result := &FilteredOutput{
		Lines:      make([]string, 0, len(lines)),
		TotalLines: len(lines),
	}

	for _, line := range lines {
		if reason, noisy := f.isNoise(line); noisy {
			debug.LogPatternMatch(reason, line, true)
			result.Suppressed++
			continue
		}
		result.Lines = append(result.Lines, line)
	}

	debug.LogFilterProcess(result.TotalLines, result.Suppressed, len(result.Lines))
	return result
}

func (f *FindingsFilter) isNoise(line string) (string, bool) {
	for _, marker := range f.rules.NoiseMarkers {
		if strings.Contains(line, marker) {
			return marker, true
		}
	}

	if p := f.suppress.Match(line); p != nil {
		return p.Pattern, true
	}

	if len(f.rules.ExcludePaths) > 0 {
		if path, ok := f.findingPath(line); ok {
			for _, glob := range f.rules.ExcludePaths {
				if matched, _ := doublestar.Match(glob, path); matched {
					return glob, true
				}
			}
		}
	}

	return "", false
}

// findingPath extracts the reported file, relative to BaseDir in slash form
func (f *FindingsFilter) findingPath(line string) (string, bool) {
	m := findingLocation.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}

	path := m[1]
	if f.rules.BaseDir != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(f.rules.BaseDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path), true
}
