// Package detector recognizes the build layout of a Java project so the
// configuration wizard can suggest sensible defaults.
package detector

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bebsworthy/pmdgate/internal/debug"
)

// BuildTool is a detected build system with a confidence score
type BuildTool struct {
	Name       string
	Confidence float64
	Markers    []string
	// OutputDir is the directory the tool writes generated sources and
	// classes to, relative to each module root
	OutputDir string
}

// ExcludeGlob returns the exclude path covering the tool's output in every
// module
func (b BuildTool) ExcludeGlob() string {
	return "**/" + b.OutputDir + "/**"
}

type markerFile struct {
	pattern string
	weight  float64
}

type buildLayout struct {
	outputDir string
	markers   []markerFile
}

var layouts = map[string]buildLayout{
	"maven": {outputDir: "target", markers: []markerFile{
		{pattern: "pom.xml", weight: 1.0},
		{pattern: "mvnw", weight: 0.5},
		{pattern: ".mvn", weight: 0.4},
	}},
	"gradle": {outputDir: "build", markers: []markerFile{
		{pattern: "build.gradle", weight: 1.0},
		{pattern: "build.gradle.kts", weight: 1.0},
		{pattern: "settings.gradle*", weight: 0.6},
		{pattern: "gradlew", weight: 0.5},
	}},
	"bazel": {outputDir: "bazel-out", markers: []markerFile{
		{pattern: "MODULE.bazel", weight: 1.0},
		{pattern: "WORKSPACE*", weight: 0.8},
		{pattern: ".bazelversion", weight: 0.4},
		{pattern: "BUILD*", weight: 0.3},
	}},
	"ant": {outputDir: "build", markers: []markerFile{
		{pattern: "build.xml", weight: 1.0},
		{pattern: "ivy.xml", weight: 0.4},
	}},
}

// ruleSetDirCandidates are the directories projects conventionally keep
// PMD rule sets in
var ruleSetDirCandidates = []string{
	"config/pmd",
	"pmd",
	"src/test/resources/pmd",
	"tools/pmd",
}

// Detect scans dir for build markers and returns the matching tools, most
// likely first
func Detect(dir string) ([]BuildTool, error) {
	debug.LogSection("Build Layout Detection")
	debug.Log("Scanning path: %s", dir)

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path must be a directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error scanning directory: %w", err)
	}

	var results []BuildTool
	for name, layout := range layouts {
		var score, max float64
		var found []string
		for _, marker := range layout.markers {
			max += marker.weight
			for _, entry := range entries {
				if ok, _ := doublestar.Match(marker.pattern, entry.Name()); ok {
					score += marker.weight
					found = append(found, entry.Name())
					break
				}
			}
		}
		if score == 0 {
			continue
		}
		results = append(results, BuildTool{
			Name:       name,
			Confidence: score / max,
			Markers:    found,
			OutputDir:  layout.outputDir,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Name < results[j].Name
	})

	for _, r := range results {
		debug.Log("  %s (confidence: %.0f%%, markers: %v)", r.Name, r.Confidence*100, r.Markers)
	}
	return results, nil
}

// RuleSetDirs returns the conventional rule-set directories that exist
// under dir, relative to it
func RuleSetDirs(dir string) []string {
	var found []string
	for _, candidate := range ruleSetDirCandidates {
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(candidate)))
		if err == nil && info.IsDir() {
			found = append(found, candidate)
		}
	}
	return found
}
