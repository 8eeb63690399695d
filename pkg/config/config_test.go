//go:build unit

package config

import (
	"reflect"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Version: "1.0",
		Analyzer: &AnalyzerConfig{
			Command: "pmd",
			Args:    []string{"check", "-d", "{dir}", "-f", "{format}", "-R", "{rulesets}"},
			Timeout: 60000,
		},
		Filter: &FilterConfig{
			NoiseMarkers:     []string{"Deprecated rule"},
			SuppressPatterns: []*RegexPattern{{Pattern: "generated", Flags: "i"}},
			ExcludePaths:     []string{"**/generated/**"},
		},
		RuleSetPaths: []string{"config/pmd"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:   "analyzer and filter are optional",
			mutate: func(c *Config) { c.Analyzer = nil; c.Filter = nil },
		},
		{
			name:    "missing version",
			mutate:  func(c *Config) { c.Version = "" },
			wantErr: "version is required",
		},
		{
			name:    "missing command",
			mutate:  func(c *Config) { c.Analyzer.Command = "" },
			wantErr: "analyzer: command is required",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Analyzer.Timeout = -1 },
			wantErr: "timeout must be non-negative",
		},
		{
			name:    "args without dir placeholder",
			mutate:  func(c *Config) { c.Analyzer.Args = []string{"-R", "{rulesets}"} },
			wantErr: "args must reference {dir}",
		},
		{
			name:    "args without rulesets placeholder",
			mutate:  func(c *Config) { c.Analyzer.Args = []string{"-d", "{dir}"} },
			wantErr: "args must reference {rulesets}",
		},
		{
			name:    "bad environment entry",
			mutate:  func(c *Config) { c.Analyzer.Environment = []string{"JAVA_HOME"} },
			wantErr: "must be KEY=VALUE",
		},
		{
			name:    "empty noise marker",
			mutate:  func(c *Config) { c.Filter.NoiseMarkers = []string{""} },
			wantErr: "noise marker 0 is empty",
		},
		{
			name:    "invalid suppress regex",
			mutate:  func(c *Config) { c.Filter.SuppressPatterns = []*RegexPattern{{Pattern: "[unclosed"}} },
			wantErr: "suppress pattern 0",
		},
		{
			name:    "invalid regex flag",
			mutate:  func(c *Config) { c.Filter.SuppressPatterns = []*RegexPattern{{Pattern: "x", Flags: "z"}} },
			wantErr: "invalid regex flag: z",
		},
		{
			name:    "empty exclude path",
			mutate:  func(c *Config) { c.Filter.ExcludePaths = []string{""} },
			wantErr: "exclude path 0 is empty",
		},
		{
			name:    "blank rule set path",
			mutate:  func(c *Config) { c.RuleSetPaths = []string{" "} },
			wantErr: "rule set path 0 is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	data := []byte(`{
  "version": "1.0",
  "analyzer": {"command": "/opt/pmd/bin/pmd", "timeout": 1000},
  "filter": {"noiseMarkers": ["Use of deprecated"]}
}`)

	cfg, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Analyzer.Command != "/opt/pmd/bin/pmd" {
		t.Errorf("unexpected command %q", cfg.Analyzer.Command)
	}
	if cfg.Analyzer.Timeout != 1000 {
		t.Errorf("unexpected timeout %d", cfg.Analyzer.Timeout)
	}
	if !reflect.DeepEqual(cfg.Filter.NoiseMarkers, []string{"Use of deprecated"}) {
		t.Errorf("unexpected noise markers %v", cfg.Filter.NoiseMarkers)
	}

	if _, err := LoadConfig([]byte(`{`)); err == nil {
		t.Error("expected parse error for malformed JSON")
	}
	if _, err := LoadConfig([]byte(`{"analyzer": {"command": "pmd"}}`)); err == nil {
		t.Error("expected validation error for missing version")
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	data := []byte(`version: "1.0"
analyzer:
  command: pmd
  args: ["{dir}", "{format}", "{rulesets}"]
filter:
  excludePaths:
    - "**/target/**"
  suppressPatterns:
    - pattern: "Generated"
ruleSetPaths:
  - rules
`)

	cfg, err := LoadYAMLConfig(data)
	if err != nil {
		t.Fatalf("LoadYAMLConfig failed: %v", err)
	}
	if len(cfg.Analyzer.Args) != 3 {
		t.Errorf("expected 3 args, got %v", cfg.Analyzer.Args)
	}
	if cfg.Filter.ExcludePaths[0] != "**/target/**" {
		t.Errorf("unexpected exclude paths %v", cfg.Filter.ExcludePaths)
	}
	if cfg.Filter.SuppressPatterns[0].Pattern != "Generated" {
		t.Errorf("unexpected suppress patterns %v", cfg.Filter.SuppressPatterns)
	}
	if cfg.RuleSetPaths[0] != "rules" {
		t.Errorf("unexpected rule set paths %v", cfg.RuleSetPaths)
	}

	if _, err := LoadYAMLConfig([]byte("analyzer: [")); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestSaveConfig_RoundTripsThroughLoad(t *testing.T) {
	data, err := SaveConfig(validConfig())
	if err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, validConfig()) {
		t.Errorf("loaded config differs from saved config:\n%+v", loaded)
	}

	if _, err := SaveConfig(&Config{}); err == nil {
		t.Error("SaveConfig should refuse an invalid config")
	}
}

func TestSaveYAMLConfig_RoundTripsThroughLoad(t *testing.T) {
	data, err := SaveYAMLConfig(validConfig())
	if err != nil {
		t.Fatalf("SaveYAMLConfig failed: %v", err)
	}

	loaded, err := LoadYAMLConfig(data)
	if err != nil {
		t.Fatalf("LoadYAMLConfig failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, validConfig()) {
		t.Errorf("loaded config differs from saved config:\n%+v", loaded)
	}

	if _, err := SaveYAMLConfig(&Config{}); err == nil {
		t.Error("SaveYAMLConfig should refuse an invalid config")
	}
}

func TestLoadTOMLConfig(t *testing.T) {
	data := []byte(`version = "1.0"
ruleSetPaths = ["rules"]

[analyzer]
command = "pmd"
timeout = 120000
environment = ["PMD_JAVA_OPTS=-Xmx1g"]

[filter]
noiseMarkers = ["Use of deprecated rule"]

[[filter.suppressPatterns]]
pattern = "TooManyMethods"
flags = "i"
`)

	cfg, err := LoadTOMLConfig(data)
	if err != nil {
		t.Fatalf("LoadTOMLConfig failed: %v", err)
	}
	if cfg.Analyzer.Timeout != 120000 {
		t.Errorf("unexpected timeout %d", cfg.Analyzer.Timeout)
	}
	if cfg.Analyzer.Environment[0] != "PMD_JAVA_OPTS=-Xmx1g" {
		t.Errorf("unexpected environment %v", cfg.Analyzer.Environment)
	}
	if cfg.Filter.SuppressPatterns[0].Flags != "i" {
		t.Errorf("unexpected suppress patterns %v", cfg.Filter.SuppressPatterns)
	}

	if _, err := LoadTOMLConfig([]byte("version = ")); err == nil {
		t.Error("expected parse error for malformed TOML")
	}
	if _, err := LoadTOMLConfig([]byte("[analyzer]\ncommand = \"pmd\"\n")); err == nil {
		t.Error("expected validation error for missing version")
	}
}

func TestSaveTOMLConfig_RoundTripsThroughLoad(t *testing.T) {
	data, err := SaveTOMLConfig(validConfig())
	if err != nil {
		t.Fatalf("SaveTOMLConfig failed: %v", err)
	}

	loaded, err := LoadTOMLConfig(data)
	if err != nil {
		t.Fatalf("LoadTOMLConfig failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, validConfig()) {
		t.Errorf("loaded config differs from saved config:\n%+v", loaded)
	}
}

func TestConfig_Clone(t *testing.T) {
	original := validConfig()
	clone := original.Clone()

	if !reflect.DeepEqual(original, clone) {
		t.Fatal("clone differs from original")
	}

	clone.Analyzer.Args[0] = "changed"
	clone.Filter.NoiseMarkers[0] = "changed"
	clone.Filter.SuppressPatterns[0].Pattern = "changed"
	clone.RuleSetPaths[0] = "changed"

	if original.Analyzer.Args[0] == "changed" ||
		original.Filter.NoiseMarkers[0] == "changed" ||
		original.Filter.SuppressPatterns[0].Pattern == "changed" ||
		original.RuleSetPaths[0] == "changed" {
		t.Error("mutating the clone changed the original")
	}

	var nilConfig *Config
	if nilConfig.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
