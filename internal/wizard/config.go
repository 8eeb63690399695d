// Package wizard provides the interactive configuration wizard for pmdgate
package wizard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/bebsworthy/pmdgate/internal/config"
	"github.com/bebsworthy/pmdgate/internal/debug"
	"github.com/bebsworthy/pmdgate/internal/detector"
	pkgconfig "github.com/bebsworthy/pmdgate/pkg/config"
)

// Prompt messages, also used by tests to script answers
const (
	MsgOverwrite     = "Configuration file already exists. Overwrite?"
	MsgCommand       = "PMD launcher command:"
	MsgTimeout       = "Analyzer timeout in seconds (0 for the default):"
	MsgRuleSetPaths  = "Rule-set search paths (comma separated, relative to the test file):"
	MsgNoiseMarkers  = "Additional PMD output lines to ignore:"
	MsgExcludePaths  = "Paths to exclude from findings (comma separated globs):"
	MsgSaveAnyway    = "Save the configuration anyway?"
	defaultExcludes  = "**/generated/**"
	defaultTimeout   = "0"
)

// KnownNoiseMarkers are PMD stdout lines commonly treated as noise on top
// of the built-in markers
var KnownNoiseMarkers = []string{
	"Use of deprecated rule",
	"Processing files",
	"Progressbar rendering conflicts with reporting to STDOUT",
}

// Prompter asks one survey question
type Prompter interface {
	AskOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error
}

type surveyPrompter struct{}

func (surveyPrompter) AskOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	return survey.AskOne(p, response, opts...)
}

// Answers holds the wizard's raw answers
type Answers struct {
	Command      string
	TimeoutSecs  string
	RuleSetPaths string
	NoiseMarkers []string
	ExcludePaths string
}

// ConfigWizard provides an interactive configuration wizard
type ConfigWizard struct {
	prompter  Prompter
	validator *config.Validator
	out       io.Writer
}

// NewConfigWizard creates a new configuration wizard
func NewConfigWizard() *ConfigWizard {
	return &ConfigWizard{
		prompter:  surveyPrompter{},
		validator: config.NewValidator(),
		out:       os.Stdout,
	}
}

// Run asks the questions and writes the configuration to outputPath. The
// format follows the extension: .yaml or .yml for YAML, .toml for TOML,
// anything else JSON.
func (w *ConfigWizard) Run(outputPath string, force bool) error {
	debug.LogSection("Configuration Wizard")

	path, err := determineOutputPath(outputPath)
	if err != nil {
		return err
	}

	if !force {
		overwrite, err := w.checkExistingConfig(path)
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(w.out, "Configuration wizard canceled.") //nolint:errcheck // console output
			return nil
		}
	}

	fmt.Fprintln(w.out, "pmdgate configuration wizard") //nolint:errcheck // console output
	fmt.Fprintln(w.out, "Answer a few questions to create", path) //nolint:errcheck // console output
	fmt.Fprintln(w.out) //nolint:errcheck // console output

	answers, err := w.ask(suggestDefaults(filepath.Dir(path)))
	if err != nil {
		return err
	}

	cfg, err := BuildConfig(answers)
	if err != nil {
		return err
	}

	if err := w.validateAndSave(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(w.out, "\nConfiguration saved to %s\n", path) //nolint:errcheck // console output
	fmt.Fprintln(w.out, "Check it with: pmdgate config validate "+path) //nolint:errcheck // console output
	return nil
}

// suggestions are the pre-filled answers derived from the project layout
type suggestions struct {
	excludePaths string
	ruleSetPaths string
}

// suggestDefaults looks at the project in dir for its build output
// directory and any conventional rule-set directories
func suggestDefaults(dir string) suggestions {
	s := suggestions{excludePaths: defaultExcludes}

	tools, err := detector.Detect(dir)
	if err != nil {
		debug.LogError(err, "detecting build layout")
	} else if len(tools) > 0 {
		s.excludePaths = defaultExcludes + "," + tools[0].ExcludeGlob()
	}

	s.ruleSetPaths = strings.Join(detector.RuleSetDirs(dir), ",")
	return s
}

func (w *ConfigWizard) ask(defaults suggestions) (*Answers, error) {
	answers := &Answers{}

	if err := w.prompter.AskOne(&survey.Input{
		Message: MsgCommand,
		Default: config.DefaultCommand,
	}, &answers.Command, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}

	if err := w.prompter.AskOne(&survey.Input{
		Message: MsgTimeout,
		Default: defaultTimeout,
	}, &answers.TimeoutSecs, survey.WithValidator(validateSeconds)); err != nil {
		return nil, err
	}

	if err := w.prompter.AskOne(&survey.Input{
		Message: MsgRuleSetPaths,
		Default: defaults.ruleSetPaths,
	}, &answers.RuleSetPaths); err != nil {
		return nil, err
	}

	if err := w.prompter.AskOne(&survey.MultiSelect{
		Message: MsgNoiseMarkers,
		Options: KnownNoiseMarkers,
	}, &answers.NoiseMarkers); err != nil {
		return nil, err
	}

	if err := w.prompter.AskOne(&survey.Input{
		Message: MsgExcludePaths,
		Default: defaults.excludePaths,
	}, &answers.ExcludePaths); err != nil {
		return nil, err
	}

	return answers, nil
}

func validateSeconds(ans interface{}) error {
	s, _ := ans.(string)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("enter a whole number of seconds")
	}
	return nil
}

// BuildConfig turns wizard answers into a configuration
func BuildConfig(a *Answers) (*pkgconfig.Config, error) {
	analyzer := config.DefaultAnalyzerConfig()
	if cmd := strings.TrimSpace(a.Command); cmd != "" {
		analyzer.Command = cmd
	}

	if s := strings.TrimSpace(a.TimeoutSecs); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("invalid timeout %q", a.TimeoutSecs)
		}
		analyzer.Timeout = secs * 1000
	}

	cfg := &pkgconfig.Config{
		Version:      config.DefaultVersion,
		Analyzer:     analyzer,
		RuleSetPaths: splitList(a.RuleSetPaths),
	}

	excludes := splitList(a.ExcludePaths)
	if len(a.NoiseMarkers) > 0 || len(excludes) > 0 {
		cfg.Filter = &pkgconfig.FilterConfig{
			NoiseMarkers: append([]string(nil), a.NoiseMarkers...),
			ExcludePaths: excludes,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func determineOutputPath(outputPath string) (string, error) {
	if outputPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		return filepath.Join(cwd, config.ConfigFileName), nil
	}

	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		return filepath.Join(outputPath, config.ConfigFileName), nil
	}
	return outputPath, nil
}

func (w *ConfigWizard) checkExistingConfig(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return true, nil
	}

	overwrite := false
	if err := w.prompter.AskOne(&survey.Confirm{
		Message: MsgOverwrite,
		Default: false,
	}, &overwrite); err != nil {
		return false, err
	}
	return overwrite, nil
}

func (w *ConfigWizard) validateAndSave(cfg *pkgconfig.Config, path string) error {
	if err := w.validator.Validate(cfg); err != nil {
		fmt.Fprintf(w.out, "\nConfiguration check failed: %v\n", err) //nolint:errcheck // console output
		for _, suggestion := range w.validator.SuggestFixes(err) {
			fmt.Fprintf(w.out, "  - %s\n", suggestion) //nolint:errcheck // console output
		}

		saveAnyway := false
		if err := w.prompter.AskOne(&survey.Confirm{
			Message: MsgSaveAnyway,
			Default: false,
		}, &saveAnyway); err != nil {
			return err
		}
		if !saveAnyway {
			return fmt.Errorf("configuration not saved: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = pkgconfig.SaveYAMLConfig(cfg)
	case ".toml":
		data, err = pkgconfig.SaveTOMLConfig(cfg)
	default:
		data, err = pkgconfig.SaveConfig(cfg)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	debug.Log("Wrote configuration to %s (%d bytes)", path, len(data))
	return nil
}
