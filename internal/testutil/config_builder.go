package testutil

import (
	"os"
	"path/filepath"

	"github.com/bebsworthy/pmdgate/pkg/config"
)

// ConfigBuilder provides a fluent interface for building test configurations.
type ConfigBuilder struct {
	config *config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with a minimal configuration.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: &config.Config{Version: "1.0"},
	}
}

// WithVersion sets the configuration version.
func (b *ConfigBuilder) WithVersion(version string) *ConfigBuilder {
	b.config.Version = version
	return b
}

// WithCommand sets the analyzer command and argument template.
func (b *ConfigBuilder) WithCommand(command string, args ...string) *ConfigBuilder {
	b.analyzer().Command = command
	b.analyzer().Args = args
	return b
}

// WithTimeout sets the analyzer timeout in milliseconds.
func (b *ConfigBuilder) WithTimeout(ms int) *ConfigBuilder {
	b.analyzer().Timeout = ms
	return b
}

// WithEnvironment adds KEY=VALUE entries to the analyzer environment.
func (b *ConfigBuilder) WithEnvironment(env ...string) *ConfigBuilder {
	b.analyzer().Environment = append(b.analyzer().Environment, env...)
	return b
}

// WithNoiseMarker adds noise markers.
func (b *ConfigBuilder) WithNoiseMarker(markers ...string) *ConfigBuilder {
	b.filter().NoiseMarkers = append(b.filter().NoiseMarkers, markers...)
	return b
}

// WithSuppressPattern adds a regex suppress pattern.
func (b *ConfigBuilder) WithSuppressPattern(pattern, flags string) *ConfigBuilder {
	b.filter().SuppressPatterns = append(b.filter().SuppressPatterns, &config.RegexPattern{Pattern: pattern, Flags: flags})
	return b
}

// WithExcludePath adds exclude globs.
func (b *ConfigBuilder) WithExcludePath(globs ...string) *ConfigBuilder {
	b.filter().ExcludePaths = append(b.filter().ExcludePaths, globs...)
	return b
}

// WithRuleSetPath adds rule-set search paths.
func (b *ConfigBuilder) WithRuleSetPath(paths ...string) *ConfigBuilder {
	b.config.RuleSetPaths = append(b.config.RuleSetPaths, paths...)
	return b
}

// Build returns the constructed configuration.
func (b *ConfigBuilder) Build() *config.Config {
	return b.config
}

// WriteToFile writes the configuration to a JSON file.
func (b *ConfigBuilder) WriteToFile(path string) error {
	data, err := config.SaveConfig(b.config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (b *ConfigBuilder) analyzer() *config.AnalyzerConfig {
	if b.config.Analyzer == nil {
		b.config.Analyzer = &config.AnalyzerConfig{Command: "pmd"}
	}
	return b.config.Analyzer
}

func (b *ConfigBuilder) filter() *config.FilterConfig {
	if b.config.Filter == nil {
		b.config.Filter = &config.FilterConfig{}
	}
	return b.config.Filter
}

// CreateTestConfigFile writes cfg as .pmdgate.json in dir and returns its path.
func CreateTestConfigFile(dir string, cfg *config.Config) (string, error) {
	if cfg == nil {
		cfg = NewConfigBuilder().Build()
	}

	configPath := filepath.Join(dir, ".pmdgate.json")
	data, err := config.SaveConfig(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return "", err
	}

	return configPath, nil
}
