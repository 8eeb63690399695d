package gate

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalconfig "github.com/bebsworthy/pmdgate/internal/config"
	"github.com/bebsworthy/pmdgate/internal/reporter"
)

type tHelper interface {
	Helper()
}

// Run checks targetDir against ruleSet and fails t if PMD reports findings
// or writes to its error channel. ruleSet is resolved relative to the
// directory of the calling source file. Configuration is loaded from the
// nearest .pmdgate.json, .pmdgate.yaml or .pmdgate.toml, falling back to the
// defaults.
//
// Missing resources, timeouts and analyzer failures fail t through
// require.NoError. Findings fail t with the finding count and each finding;
// error-channel output fails t with the raw text.
func Run(t require.TestingT, targetDir, ruleSet string, opts ...Option) *Result {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return run(t, CallerDir(1), targetDir, ruleSet, opts...)
}

func run(t require.TestingT, callerDir, targetDir, ruleSet string, opts ...Option) *Result {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	cfg, err := internalconfig.NewLoaderFrom(callerDir).LoadOrDefault()
	if !assert.NoError(t, err, "loading pmdgate configuration") {
		t.FailNow()
		return nil
	}

	g, err := New(cfg, opts...)
	if !assert.NoError(t, err, "creating PMD findings gate") {
		t.FailNow()
		return nil
	}

	result, err := g.Check(context.Background(), Request{
		TargetDir: targetDir,
		RuleSet:   ruleSet,
		CallerDir: callerDir,
	})
	if IsInfrastructure(err) {
		require.NoError(t, err)
		return result
	}

	if !assert.Empty(t, result.Findings, reporter.FindingsMessage(result.Findings)) {
		t.FailNow()
		return result
	}

	require.Empty(t, strings.TrimSpace(result.Stderr), reporter.StderrMessage(result.Stderr))
	return result
}

// CallerDir returns the directory of the source file skip frames above the
// caller, falling back to the working directory when it is unavailable.
func CallerDir(skip int) string {
	_, file, _, ok := runtime.Caller(skip + 1)
	if ok && file != "" {
		dir := filepath.Dir(file)
		if abs, err := filepath.Abs(dir); err == nil {
			if info, err := os.Stat(abs); err == nil && info.IsDir() {
				return abs
			}
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
