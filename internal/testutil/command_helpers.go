package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const windowsOS = "windows"

// IsWindows reports whether the tests run on Windows
func IsWindows() bool {
	return runtime.GOOS == windowsOS
}

// SkipOnWindows skips the test if running on Windows.
func SkipOnWindows(t testing.TB, reason string) {
	t.Helper()
	if IsWindows() {
		t.Skip("Skipping on Windows: " + reason)
	}
}

// TempScript writes an executable shell script and returns its path.
func TempScript(t testing.TB, content string) string {
	t.Helper()
	SkipOnWindows(t, "shell scripts")

	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+content), 0o755); err != nil { //nolint:gosec // G306: script needs to be executable
		t.Fatalf("Failed to write script: %v", err)
	}
	return path
}

// FakePMD writes a stand-in for the pmd launcher. It prints stdout and
// stderr verbatim, records its arguments one per line in the returned args
// file and exits with exitCode.
func FakePMD(t testing.TB, stdout, stderr string, exitCode int) (launcher, argsFile string) {
	t.Helper()
	SkipOnWindows(t, "shell scripts")

	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.txt")
	stdoutFile := filepath.Join(dir, "stdout.txt")
	stderrFile := filepath.Join(dir, "stderr.txt")
	for path, content := range map[string]string{stdoutFile: stdout, stderrFile: stderr} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("Failed to write fake PMD output: %v", err)
		}
	}

	var script strings.Builder
	fmt.Fprintf(&script, "for arg in \"$@\"; do printf '%%s\\n' \"$arg\" >> %s; done\n", shellQuote(argsFile))
	fmt.Fprintf(&script, "cat %s\n", shellQuote(stdoutFile))
	fmt.Fprintf(&script, "cat %s >&2\n", shellQuote(stderrFile))
	fmt.Fprintf(&script, "exit %d\n", exitCode)

	return TempScript(t, script.String()), argsFile
}

// ReadArgs returns the arguments recorded by a FakePMD launcher
func ReadArgs(t testing.TB, argsFile string) []string {
	t.Helper()
	data, err := os.ReadFile(argsFile) // #nosec G304 - path comes from FakePMD
	if err != nil {
		t.Fatalf("Failed to read recorded args: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
