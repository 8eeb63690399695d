// Package testutil provides common test utilities and helpers for the pmdgate test suite.
//
// ScriptedAnalyzer: an analyzer that replays canned PMD output
//   - Records every invocation so tests can assert the analyzer never ran
//   - Can delay, fail or panic on demand
//
// RecordingT: a require.TestingT that records failures instead of stopping
// the test, for testing assertion helpers
//
// ConfigBuilder: a fluent interface for building test configurations
//
// Fixtures: PMD outputs, rule sets and Java sources under test/fixtures
//
// Example usage:
//
//	analyzer := &testutil.ScriptedAnalyzer{
//		Stdout: testutil.OutputFixture(t, "findings"),
//	}
//	rt := &testutil.RecordingT{}
//	gate.Run(rt, dir, "rules.xml", gate.WithAnalyzer(analyzer))
//	if !rt.Failed() {
//		t.Error("expected the gate to fail")
//	}
package testutil
