package config

import (
	"github.com/bebsworthy/pmdgate/pkg/config"
)

const (
	// DefaultVersion is the config version written by pmdgate
	DefaultVersion = "1.0"

	// DefaultCommand is the PMD launcher looked up in PATH
	DefaultCommand = "pmd"

	// DefaultFormat is the report format the findings filter understands
	DefaultFormat = "text"
)

// DefaultArgs returns the PMD 7 argument template
func DefaultArgs() []string {
	return []string{
		"check",
		"--no-progress",
		"--no-cache",
		"-d", config.PlaceholderDir,
		"-f", config.PlaceholderFormat,
		"-R", config.PlaceholderRuleSets,
	}
}

// DefaultAnalyzerConfig returns the analyzer settings used without a config file
func DefaultAnalyzerConfig() *config.AnalyzerConfig {
	return &config.AnalyzerConfig{
		Command: DefaultCommand,
		Args:    DefaultArgs(),
	}
}

// DefaultConfig returns the configuration used when no file is found
func DefaultConfig() *config.Config {
	return &config.Config{
		Version:  DefaultVersion,
		Analyzer: DefaultAnalyzerConfig(),
	}
}

// ApplyDefaults fills in the analyzer settings a loaded file left out. The
// input is not modified.
func ApplyDefaults(cfg *config.Config) *config.Config {
	if cfg == nil {
		return DefaultConfig()
	}

	merged := cfg.Clone()
	if merged.Version == "" {
		merged.Version = DefaultVersion
	}
	if merged.Analyzer == nil {
		merged.Analyzer = DefaultAnalyzerConfig()
		return merged
	}
	if merged.Analyzer.Command == "" {
		merged.Analyzer.Command = DefaultCommand
	}
	if len(merged.Analyzer.Args) == 0 {
		merged.Analyzer.Args = DefaultArgs()
	}
	return merged
}
