//go:build unit

package resolver

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bazelbuild/rules_go/go/runfiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ruleSetXML = `<?xml version="1.0"?>
<ruleset name="test" xmlns="http://pmd.sourceforge.net/ruleset/2.0.0">
  <rule ref="category/java/bestpractices.xml/UnusedLocalVariable"/>
</ruleset>
`

func writeFile(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(ruleSetXML), 0o600))
	return path
}

type fakeRunfiles map[string]string

func (f fakeRunfiles) Rlocation(path string) (string, error) {
	if p, ok := f[path]; ok {
		return p, nil
	}
	return "", errors.New("not a runfile")
}

func decodedPaths(t *testing.T, locators []Locator) []string {
	t.Helper()
	var paths []string
	for _, l := range locators {
		p, err := l.Decoded()
		require.NoError(t, err)
		paths = append(paths, p)
	}
	return paths
}

func TestResolve_CallerDirectory(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, filepath.Join(dir, "pmd-rules.xml"))

	r := &Resolver{Runfiles: fakeRunfiles{}}
	locators, err := r.Resolve("pmd-rules.xml", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{rules}, decodedPaths(t, locators))
}

func TestResolve_AbsolutePath(t *testing.T) {
	rules := writeFile(t, filepath.Join(t.TempDir(), "abs.xml"))

	r := &Resolver{Runfiles: fakeRunfiles{}}
	locators, err := r.Resolve(rules, "/somewhere/else")
	require.NoError(t, err)
	assert.Equal(t, []string{rules}, decodedPaths(t, locators))
}

func TestResolve_SearchPaths(t *testing.T) {
	caller := t.TempDir()
	shared := t.TempDir()
	relative := writeFile(t, filepath.Join(caller, "config", "pmd", "relative.xml"))
	absolute := writeFile(t, filepath.Join(shared, "shared.xml"))

	r := &Resolver{SearchPaths: []string{"config/pmd", shared}, Runfiles: fakeRunfiles{}}

	locators, err := r.Resolve("relative.xml", caller)
	require.NoError(t, err)
	assert.Equal(t, []string{relative}, decodedPaths(t, locators))

	locators, err = r.Resolve("shared.xml", caller)
	require.NoError(t, err)
	assert.Equal(t, []string{absolute}, decodedPaths(t, locators))
}

func TestResolve_CallerDirectoryWinsOverSearchPaths(t *testing.T) {
	caller := t.TempDir()
	shared := t.TempDir()
	local := writeFile(t, filepath.Join(caller, "rules.xml"))
	writeFile(t, filepath.Join(shared, "rules.xml"))

	r := &Resolver{SearchPaths: []string{shared}, Runfiles: fakeRunfiles{}}
	locators, err := r.Resolve("rules.xml", caller)
	require.NoError(t, err)
	assert.Equal(t, []string{local}, decodedPaths(t, locators))
}

func TestResolve_CommaSeparatedAndGlob(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "rules", "a.xml"))
	b := writeFile(t, filepath.Join(dir, "rules", "nested", "b.xml"))
	extra := writeFile(t, filepath.Join(dir, "extra.xml"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rules", "dir.xml"), 0o755))

	r := &Resolver{Runfiles: fakeRunfiles{}}
	locators, err := r.Resolve("rules/**/*.xml, extra.xml", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, extra}, decodedPaths(t, locators))

	joined, err := JoinDecoded(locators)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{a, b, extra}, ","), joined)
}

func TestResolve_Runfiles(t *testing.T) {
	rules := writeFile(t, filepath.Join(t.TempDir(), "bazel-rules.xml"))

	r := &Resolver{Runfiles: fakeRunfiles{"ws/config/pmd.xml": rules}}
	locators, err := r.Resolve("ws/config/pmd.xml", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{rules}, decodedPaths(t, locators))
}

func TestResolve_RunfilesDirectory(t *testing.T) {
	root := t.TempDir()
	rules := writeFile(t, filepath.Join(root, "_main", "config", "pmd.xml"))

	rf, err := runfiles.New(runfiles.Directory(root))
	require.NoError(t, err)

	r := &Resolver{Runfiles: rf}
	locators, err := r.Resolve("_main/config/pmd.xml", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{rules}, decodedPaths(t, locators))
}

func TestResolve_NotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "present.xml"))

	r := &Resolver{Runfiles: fakeRunfiles{}}

	tests := []struct {
		name    string
		input   string
		missing string
	}{
		{"missing file", "missing.xml", "missing.xml"},
		{"glob without matches", "rules/*.xml", "rules/*.xml"},
		{"one entry of a list missing", "present.xml,missing.xml", "missing.xml"},
		{"blank name", "  ", "  "},
		{"only separators", ",,", ",,"},
		{"directory is not a rule set", ".", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.input, dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)

			var nf *NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, tt.missing, nf.Name)
			assert.Equal(t,
				"The rule set file '"+tt.missing+"' does not exist in the same folder as '"+dir+"'.",
				err.Error())
		})
	}
}

func TestLocator_Decoded(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "with space", "100%")
	path := filepath.Join(dir, "rules.xml")

	l := FileLocator(path)
	assert.Equal(t, "file", l.URL.Scheme)
	assert.Contains(t, l.String(), "with%20space")

	decoded, err := l.Decoded()
	require.NoError(t, err)
	assert.Equal(t, path, decoded)

	remote := Locator{URL: &url.URL{Scheme: "https", Host: "example.com", Path: "/rule sets/pmd.xml"}}
	decoded, err = remote.Decoded()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/rule sets/pmd.xml", decoded)
}
