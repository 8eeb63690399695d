package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// FixturePath returns the absolute path to a fixture file or directory.
// The path is relative to the test/fixtures directory.
func FixturePath(t testing.TB, relativePath string) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get source file path")
	}

	projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
	fixturePath := filepath.Clean(filepath.Join(projectRoot, "test", "fixtures", relativePath))

	if _, err := os.Stat(fixturePath); err != nil {
		t.Fatalf("Fixture not found: %s", fixturePath)
	}

	return fixturePath
}

// LoadFixtureString reads and returns the contents of a fixture file.
func LoadFixtureString(t testing.TB, relativePath string) string {
	t.Helper()

	data, err := os.ReadFile(FixturePath(t, relativePath)) // #nosec G304 - paths are controlled by tests
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", relativePath, err)
	}
	return string(data)
}

// OutputFixture returns a captured PMD console output.
func OutputFixture(t testing.TB, name string) string {
	t.Helper()
	if !strings.HasSuffix(name, ".txt") {
		name += ".txt"
	}
	return LoadFixtureString(t, filepath.Join("outputs", name))
}

// RuleSetFixture returns the path to a rule-set fixture.
func RuleSetFixture(t testing.TB, name string) string {
	t.Helper()
	if !strings.HasSuffix(name, ".xml") {
		name += ".xml"
	}
	return FixturePath(t, filepath.Join("rulesets", name))
}

// ConfigFixture returns the path to a configuration fixture.
func ConfigFixture(t testing.TB, name string) string {
	t.Helper()
	return FixturePath(t, filepath.Join("configs", name))
}

// JavaProject copies the Java project fixture and the quickstart rule set
// into a temporary directory. It returns the project's source root and the
// directory holding quickstart.xml.
func JavaProject(t testing.TB) (srcDir, ruleSetDir string) {
	t.Helper()

	root := CreateTempFixture(t, filepath.Join("projects", "java"))
	ruleSetDir = filepath.Join(root, "config")
	if err := copyDir(FixturePath(t, filepath.Join("rulesets", "quickstart.xml")), ruleSetDir); err != nil {
		t.Fatalf("Failed to copy rule set: %v", err)
	}
	return filepath.Join(root, "src"), ruleSetDir
}

// CreateTempFixture copies a fixture to a temporary directory and returns the path.
// The temporary directory is automatically cleaned up when the test completes.
func CreateTempFixture(t testing.TB, fixturePath string) string {
	t.Helper()

	tempDir := t.TempDir()
	if err := copyDir(FixturePath(t, fixturePath), tempDir); err != nil {
		t.Fatalf("Failed to copy fixture to temp dir: %v", err)
	}
	return tempDir
}

// copyDir recursively copies src into dst. A file src is copied into dst.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !srcInfo.IsDir() {
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return err
		}
		srcData, err := os.ReadFile(src) // #nosec G304 - paths are controlled by tests
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dst, filepath.Base(src)), srcData, srcInfo.Mode())
	}

	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}

		srcData, err := os.ReadFile(srcPath) // #nosec G304 - paths are controlled by tests
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if err := os.WriteFile(dstPath, srcData, info.Mode()); err != nil {
			return err
		}
	}

	return nil
}
