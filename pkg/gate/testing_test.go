//go:build unit

package gate

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalconfig "github.com/bebsworthy/pmdgate/internal/config"
	"github.com/bebsworthy/pmdgate/internal/testutil"
)

func TestRun_ResolvesRuleSetNextToCaller(t *testing.T) {
	t.Setenv(internalconfig.ConfigEnvVar, "")
	analyzer := &testutil.ScriptedAnalyzer{Stdout: "No problems found!\n"}

	result := Run(t, "testdata/src", "testdata/quickstart.xml", WithAnalyzer(analyzer), WithOutput(io.Discard))
	require.NotNil(t, result)

	_, file, _, _ := runtime.Caller(0)
	want := filepath.Join(filepath.Dir(file), "testdata", "quickstart.xml")
	calls := analyzer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, want, calls[0][2])
}

func TestRun_FailsOnFindings(t *testing.T) {
	t.Setenv(internalconfig.ConfigEnvVar, "")
	analyzer := &testutil.ScriptedAnalyzer{Stdout: "No problems found!\n" + genuineFinding + "\n"}
	rt := &testutil.RecordingT{}

	Run(rt, "testdata/src", "testdata/quickstart.xml", WithAnalyzer(analyzer), WithOutput(io.Discard))

	assert.True(t, rt.Failed())
	assert.Equal(t, 1, rt.FailNowCount())
	assert.Contains(t, rt.Output(), "1 errors")
	assert.Contains(t, rt.Output(), genuineFinding)
}

func TestRun_FailsOnStderr(t *testing.T) {
	t.Setenv(internalconfig.ConfigEnvVar, "")
	analyzer := &testutil.ScriptedAnalyzer{Stderr: "  Cannot load ruleset  \n"}
	rt := &testutil.RecordingT{}

	Run(rt, "testdata/src", "testdata/quickstart.xml", WithAnalyzer(analyzer), WithOutput(io.Discard))

	assert.True(t, rt.Failed())
	assert.Equal(t, 1, rt.FailNowCount())
	assert.Contains(t, rt.Output(), "Cannot load ruleset")
}

func TestRun_FailsOnMissingResources(t *testing.T) {
	t.Setenv(internalconfig.ConfigEnvVar, "")
	analyzer := &testutil.ScriptedAnalyzer{}

	rt := &testutil.RecordingT{}
	Run(rt, "testdata/missing", "testdata/quickstart.xml", WithAnalyzer(analyzer), WithOutput(io.Discard))
	assert.True(t, rt.Failed())
	assert.Contains(t, rt.Output(), "does not exist.")

	rt = &testutil.RecordingT{}
	Run(rt, "testdata/src", "missing.xml", WithAnalyzer(analyzer), WithOutput(io.Discard))
	assert.True(t, rt.Failed())
	assert.Contains(t, rt.Output(), "The rule set file 'missing.xml' does not exist in the same folder as")

	assert.Zero(t, analyzer.CallCount())
}

func TestRun_UsesConfigNextToCaller(t *testing.T) {
	t.Setenv(internalconfig.ConfigEnvVar, "")
	callerDir := t.TempDir()
	rulesDir := filepath.Join(callerDir, "rules")
	require.NoError(t, os.MkdirAll(rulesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "shared.xml"), []byte("<ruleset/>"), 0o600))

	cfg := testutil.NewConfigBuilder().
		WithNoiseMarker("Use of deprecated rule").
		WithRuleSetPath("rules").
		Build()
	_, err := testutil.CreateTestConfigFile(callerDir, cfg)
	require.NoError(t, err)

	analyzer := &testutil.ScriptedAnalyzer{Stdout: "Use of deprecated rule X\n"}
	rt := &testutil.RecordingT{}
	result := run(rt, callerDir, callerDir, "shared.xml", WithAnalyzer(analyzer), WithOutput(io.Discard))

	assert.False(t, rt.Failed(), rt.Output())
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Suppressed)
}

func TestRun_InvalidConfigFails(t *testing.T) {
	callerDir := t.TempDir()
	configPath := filepath.Join(callerDir, internalconfig.ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte(`{"version": ""}`), 0o600))
	t.Setenv(internalconfig.ConfigEnvVar, configPath)

	rt := &testutil.RecordingT{}
	result := run(rt, callerDir, callerDir, "rules.xml", WithAnalyzer(&testutil.ScriptedAnalyzer{}))

	assert.Nil(t, result)
	assert.True(t, rt.Failed())
	assert.Contains(t, rt.Output(), "loading pmdgate configuration")
}

func TestCallerDir(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	assert.Equal(t, filepath.Dir(file), CallerDir(0))
}
