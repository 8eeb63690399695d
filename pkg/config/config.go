// Package config provides the core configuration types and validation logic for pmdgate.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Placeholders recognised in analyzer argument templates
const (
	PlaceholderDir      = "{dir}"
	PlaceholderFormat   = "{format}"
	PlaceholderRuleSets = "{rulesets}"
)

// Config represents the main configuration structure for pmdgate
type Config struct {
	Version      string          `json:"version" yaml:"version" toml:"version"`
	Analyzer     *AnalyzerConfig `json:"analyzer,omitempty" yaml:"analyzer,omitempty" toml:"analyzer,omitempty"`
	Filter       *FilterConfig   `json:"filter,omitempty" yaml:"filter,omitempty" toml:"filter,omitempty"`
	RuleSetPaths []string        `json:"ruleSetPaths,omitempty" yaml:"ruleSetPaths,omitempty" toml:"ruleSetPaths,omitempty"`
}

// AnalyzerConfig describes how the PMD command line is invoked
type AnalyzerConfig struct {
	Command     string   `json:"command" yaml:"command" toml:"command"`
	Args        []string `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`
	Environment []string `json:"environment,omitempty" yaml:"environment,omitempty" toml:"environment,omitempty"`
	Timeout     int      `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"` // milliseconds
}

// FilterConfig adds suppression rules on top of the built-in noise markers
type FilterConfig struct {
	NoiseMarkers     []string        `json:"noiseMarkers,omitempty" yaml:"noiseMarkers,omitempty" toml:"noiseMarkers,omitempty"`
	SuppressPatterns []*RegexPattern `json:"suppressPatterns,omitempty" yaml:"suppressPatterns,omitempty" toml:"suppressPatterns,omitempty"`
	ExcludePaths     []string        `json:"excludePaths,omitempty" yaml:"excludePaths,omitempty" toml:"excludePaths,omitempty"`
}

// RegexPattern represents a regex pattern with optional flags
type RegexPattern struct {
	Pattern string `json:"pattern" yaml:"pattern" toml:"pattern"`
	Flags   string `json:"flags,omitempty" yaml:"flags,omitempty" toml:"flags,omitempty"`
}

// Validate performs validation on the Config
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}

	if c.Analyzer != nil {
		if err := c.Analyzer.Validate(); err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
	}

	if c.Filter != nil {
		if err := c.Filter.Validate(); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}

	for i, p := range c.RuleSetPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("rule set path %d is empty", i)
		}
	}

	return nil
}

// Validate performs validation on the AnalyzerConfig
func (a *AnalyzerConfig) Validate() error {
	if a.Command == "" {
		return fmt.Errorf("command is required")
	}

	if a.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	if len(a.Args) > 0 {
		joined := strings.Join(a.Args, " ")
		for _, placeholder := range []string{PlaceholderDir, PlaceholderRuleSets} {
			if !strings.Contains(joined, placeholder) {
				return fmt.Errorf("args must reference %s", placeholder)
			}
		}
	}

	for _, env := range a.Environment {
		if !strings.Contains(env, "=") {
			return fmt.Errorf("environment entry %q must be KEY=VALUE", env)
		}
	}

	return nil
}

// Validate performs validation on the FilterConfig
func (f *FilterConfig) Validate() error {
	for i, marker := range f.NoiseMarkers {
		if marker == "" {
			return fmt.Errorf("noise marker %d is empty", i)
		}
	}

	for i, pattern := range f.SuppressPatterns {
		if err := pattern.Validate(); err != nil {
			return fmt.Errorf("suppress pattern %d: %w", i, err)
		}
	}

	for i, glob := range f.ExcludePaths {
		if glob == "" {
			return fmt.Errorf("exclude path %d is empty", i)
		}
	}

	return nil
}

// Validate performs validation on the RegexPattern
func (r *RegexPattern) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}

	if r.Flags != "" {
		validFlags := "imsU"
		for _, flag := range r.Flags {
			if !strings.ContainsRune(validFlags, flag) {
				return fmt.Errorf("invalid regex flag: %c", flag)
			}
		}
	}

	if _, err := r.Compile(); err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}

	return nil
}

// Compile returns a compiled regular expression
func (r *RegexPattern) Compile() (*regexp.Regexp, error) {
	pattern := r.Pattern
	if r.Flags != "" {
		pattern = "(?" + r.Flags + ")" + pattern
	}
	return regexp.Compile(pattern)
}

// LoadConfig loads a configuration from JSON data
func LoadConfig(data []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// LoadYAMLConfig loads a configuration from YAML data
func LoadYAMLConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// LoadTOMLConfig loads a configuration from TOML data
func LoadTOMLConfig(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// SaveConfig serializes a configuration to JSON
func SaveConfig(config *Config) ([]byte, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	return data, nil
}

// SaveYAMLConfig serializes a configuration to YAML
func SaveYAMLConfig(config *Config) ([]byte, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	return data, nil
}

// SaveTOMLConfig serializes a configuration to TOML
func SaveTOMLConfig(config *Config) ([]byte, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	return buf.Bytes(), nil
}

// Clone creates a deep copy of the Config
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := &Config{
		Version:  c.Version,
		Analyzer: c.Analyzer.Clone(),
		Filter:   c.Filter.Clone(),
	}
	if c.RuleSetPaths != nil {
		clone.RuleSetPaths = append([]string(nil), c.RuleSetPaths...)
	}
	return clone
}

// Clone creates a deep copy of the AnalyzerConfig
func (a *AnalyzerConfig) Clone() *AnalyzerConfig {
	if a == nil {
		return nil
	}

	clone := &AnalyzerConfig{
		Command: a.Command,
		Timeout: a.Timeout,
	}
	if a.Args != nil {
		clone.Args = append([]string(nil), a.Args...)
	}
	if a.Environment != nil {
		clone.Environment = append([]string(nil), a.Environment...)
	}
	return clone
}

// Clone creates a deep copy of the FilterConfig
func (f *FilterConfig) Clone() *FilterConfig {
	if f == nil {
		return nil
	}

	clone := &FilterConfig{}
	if f.NoiseMarkers != nil {
		clone.NoiseMarkers = append([]string(nil), f.NoiseMarkers...)
	}
	if f.ExcludePaths != nil {
		clone.ExcludePaths = append([]string(nil), f.ExcludePaths...)
	}
	if f.SuppressPatterns != nil {
		clone.SuppressPatterns = make([]*RegexPattern, len(f.SuppressPatterns))
		for i, p := range f.SuppressPatterns {
			if p != nil {
				clone.SuppressPatterns[i] = &RegexPattern{Pattern: p.Pattern, Flags: p.Flags}
			}
		}
	}
	return clone
}
