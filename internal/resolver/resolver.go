// Package resolver locates rule-set files for the findings gate.
//
// A rule-set name is looked up, in order, as an absolute path, relative to
// the calling test's directory, relative to each configured search path and
// finally through Bazel runfiles. A name may list several rule sets
// separated by commas, and each entry may be a doublestar glob.
package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bazelbuild/rules_go/go/runfiles"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/bebsworthy/pmdgate/internal/debug"
)

// ErrNotFound indicates a rule set could not be resolved
var ErrNotFound = errors.New("rule set not found")

// NotFoundError describes an unresolvable rule-set name
type NotFoundError struct {
	Name      string
	CallerDir string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("The rule set file '%s' does not exist in the same folder as '%s'.", e.Name, e.CallerDir)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Locator points at one resolved rule-set resource
type Locator struct {
	URL *url.URL
}

// FileLocator builds a file: locator for an absolute path
func FileLocator(path string) Locator {
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		// Windows drive paths become file:///C:/...
		slashed = "/" + slashed
	}
	return Locator{URL: &url.URL{Scheme: "file", Path: slashed}}
}

// String returns the encoded locator URL
func (l Locator) String() string {
	return l.URL.String()
}

// Decoded returns the URL-decoded locator. file: locators decode to the
// filesystem path, since that is what the PMD command line accepts.
func (l Locator) Decoded() (string, error) {
	if l.URL.Scheme == "file" {
		p := l.URL.Path
		if runtime.GOOS == "windows" {
			p = strings.TrimPrefix(p, "/")
		}
		return filepath.FromSlash(p), nil
	}
	return url.PathUnescape(l.URL.String())
}

// JoinDecoded decodes each locator and joins them the way PMD's -R option
// expects.
func JoinDecoded(locators []Locator) (string, error) {
	decoded := make([]string, 0, len(locators))
	for _, l := range locators {
		d, err := l.Decoded()
		if err != nil {
			return "", fmt.Errorf("failed to decode rule set locator %s: %w", l, err)
		}
		decoded = append(decoded, d)
	}
	return strings.Join(decoded, ","), nil
}

// RunfilesLookup maps a runfile path to a filesystem path
type RunfilesLookup interface {
	Rlocation(path string) (string, error)
}

// Resolver resolves rule-set names to locators
type Resolver struct {
	// SearchPaths are consulted after the caller directory. Relative
	// entries are taken relative to the caller directory.
	SearchPaths []string

	// Runfiles overrides Bazel runfiles discovery
	Runfiles RunfilesLookup

	runfilesOnce sync.Once
}

// New creates a resolver with the given search paths
func New(searchPaths []string) *Resolver {
	return &Resolver{SearchPaths: searchPaths}
}

// Resolve resolves a (possibly comma separated) rule-set name. Every entry
// must resolve to at least one existing file.
func (r *Resolver) Resolve(name, callerDir string) ([]Locator, error) {
	debug.LogSection("Rule Set Resolution")
	debug.Log("Rule set: %s (caller directory: %s)", name, callerDir)

	if strings.TrimSpace(name) == "" {
		return nil, &NotFoundError{Name: name, CallerDir: callerDir}
	}

	var locators []Locator
	for _, entry := range strings.Split(name, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		paths := r.resolveEntry(entry, callerDir)
		if len(paths) == 0 {
			return nil, &NotFoundError{Name: entry, CallerDir: callerDir}
		}
		for _, p := range paths {
			debug.Log("Resolved %s -> %s", entry, p)
			locators = append(locators, FileLocator(p))
		}
	}

	if len(locators) == 0 {
		return nil, &NotFoundError{Name: name, CallerDir: callerDir}
	}
	return locators, nil
}

func (r *Resolver) resolveEntry(entry, callerDir string) []string {
	if filepath.IsAbs(entry) {
		return matchFiles(entry)
	}

	for _, dir := range r.searchDirs(callerDir) {
		if found := matchFiles(filepath.Join(dir, entry)); len(found) > 0 {
			return found
		}
	}

	if rf := r.runfiles(); rf != nil {
		if p, err := rf.Rlocation(filepath.ToSlash(entry)); err == nil && isFile(p) {
			return []string{p}
		}
	}

	return nil
}

func (r *Resolver) searchDirs(callerDir string) []string {
	dirs := make([]string, 0, len(r.SearchPaths)+1)
	if callerDir != "" {
		dirs = append(dirs, callerDir)
	}
	for _, p := range r.SearchPaths {
		if !filepath.IsAbs(p) && callerDir != "" {
			p = filepath.Join(callerDir, p)
		}
		dirs = append(dirs, p)
	}
	return dirs
}

func (r *Resolver) runfiles() RunfilesLookup {
	r.runfilesOnce.Do(func() {
		if r.Runfiles != nil {
			return
		}
		rf, err := runfiles.New()
		if err != nil {
			debug.Log("Bazel runfiles unavailable: %v", err)
			return
		}
		r.Runfiles = rf
	})
	return r.Runfiles
}

// matchFiles returns the absolute paths of regular files matching pattern.
// A pattern without glob syntax matches itself.
func matchFiles(pattern string) []string {
	if !hasMeta(pattern) {
		if isFile(pattern) {
			if abs, err := filepath.Abs(pattern); err == nil {
				return []string{abs}
			}
		}
		return nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		debug.LogError(err, "expanding rule set glob")
		return nil
	}

	var files []string
	for _, m := range matches {
		if !isFile(m) {
			continue
		}
		if abs, err := filepath.Abs(m); err == nil {
			files = append(files, abs)
		}
	}
	sort.Strings(files)
	return files
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
