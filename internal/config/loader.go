// Package config provides configuration loading and management for pmdgate.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bebsworthy/pmdgate/internal/debug"
	"github.com/bebsworthy/pmdgate/pkg/config"
)

const (
	// ConfigFileName is the default configuration file name
	ConfigFileName = ".pmdgate.json"

	// YAMLConfigFileName is the YAML alternative, used when no JSON file exists
	YAMLConfigFileName = ".pmdgate.yaml"

	// TOMLConfigFileName is checked last in each search path
	TOMLConfigFileName = ".pmdgate.toml"

	// ConfigEnvVar is the environment variable to specify custom config path
	ConfigEnvVar = "PMDGATE_CONFIG"
)

// ErrNoConfig indicates no configuration file exists in the search paths
var ErrNoConfig = errors.New("no configuration file found")

// projectRootMarkers identify the root of a project when walking up
var projectRootMarkers = []string{".git", "go.mod", "pom.xml", "build.gradle", "MODULE.bazel", "WORKSPACE"}

// Loader handles locating and loading configuration files
type Loader struct {
	// SearchPaths contains the paths to search for configuration files
	SearchPaths []string
}

// NewLoader creates a loader searching from the working directory
func NewLoader() *Loader {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	return &Loader{
		SearchPaths: SearchPathsFrom(cwd),
	}
}

// NewLoaderFrom creates a loader searching from dir, used when the caller's
// location matters more than the working directory
func NewLoaderFrom(dir string) *Loader {
	return &Loader{
		SearchPaths: SearchPathsFrom(dir),
	}
}

// Load attempts to load configuration from various sources
func (l *Loader) Load() (*config.Config, error) {
	debug.LogSection("Configuration Loading")

	if envPath := os.Getenv(ConfigEnvVar); envPath != "" {
		debug.Log("Loading config from environment variable %s: %s", ConfigEnvVar, envPath)
		cfg, err := l.LoadFromPath(envPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", ConfigEnvVar, err)
		}
		return cfg, nil
	}

	debug.Log("Searching for config in default paths: %v", l.SearchPaths)
	for _, searchPath := range l.SearchPaths {
		for _, name := range []string{ConfigFileName, YAMLConfigFileName, TOMLConfigFileName} {
			configPath := filepath.Join(searchPath, name)
			debug.Log("Checking path: %s", configPath)
			if _, err := os.Stat(configPath); err != nil {
				continue
			}
			debug.Log("Found config at: %s", configPath)
			cfg, err := l.LoadFromPath(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
			return cfg, nil
		}
	}

	return nil, fmt.Errorf("%w in search paths: %v", ErrNoConfig, l.SearchPaths)
}

// LoadOrDefault loads configuration, falling back to DefaultConfig when no
// file exists. A file that exists but is invalid is still an error.
func (l *Loader) LoadOrDefault() (*config.Config, error) {
	cfg, err := l.Load()
	if errors.Is(err, ErrNoConfig) {
		debug.Log("No config file found, using defaults")
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return ApplyDefaults(cfg), nil
}

// LoadFromPath loads configuration from a specific file path. Relative
// rule-set search paths are made absolute against the file's directory.
func (l *Loader) LoadFromPath(path string) (*config.Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	for i, p := range cfg.RuleSetPaths {
		if !filepath.IsAbs(p) {
			cfg.RuleSetPaths[i] = filepath.Join(base, p)
		}
	}

	debug.Log("Loaded config: version=%s, ruleSetPaths=%d", cfg.Version, len(cfg.RuleSetPaths))
	return cfg, nil
}

// decodeFile reads and validates a JSON, YAML or TOML configuration file
func decodeFile(path string) (*config.Config, error) {
	debug.Log("Loading config from file: %s", path)

	// #nosec G304 - path comes from the search paths or the user
	file, err := os.Open(path)
	if err != nil {
		debug.LogError(err, "opening config file")
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }() //nolint:errcheck // Best effort cleanup

	data, err := io.ReadAll(file)
	if err != nil {
		debug.LogError(err, "reading config file")
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	debug.Log("Config file size: %d bytes", len(data))

	var cfg *config.Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = config.LoadYAMLConfig(data)
	case ".toml":
		cfg, err = config.LoadTOMLConfig(data)
	default:
		cfg, err = config.LoadConfig(data)
	}
	if err != nil {
		debug.LogError(err, "parsing config")
		return nil, err
	}
	return cfg, nil
}

// SearchPathsFrom returns the directories searched for configuration:
// start itself, the nearest project root above it, and the home directory.
func SearchPathsFrom(start string) []string {
	paths := []string{}

	if start != "" {
		paths = append(paths, start)

		dir := start
		for {
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			if isProjectRoot(parent) {
				paths = append(paths, parent)
				break
			}
			dir = parent
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	return paths
}

func isProjectRoot(dir string) bool {
	for _, marker := range projectRootMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// ValidateConfigFile validates a configuration file without applying it
func ValidateConfigFile(path string) error {
	_, err := decodeFile(path)
	return err
}
