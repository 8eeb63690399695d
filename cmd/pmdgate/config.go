// Package main provides the config commands for pmdgate
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bebsworthy/pmdgate/internal/config"
	"github.com/bebsworthy/pmdgate/internal/wizard"
	pkgconfig "github.com/bebsworthy/pmdgate/pkg/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or validate the pmdgate configuration",
		Long: `Create or validate the pmdgate configuration.

The configuration sets the PMD launcher command and arguments, the analyzer
timeout, extra noise markers, suppress patterns, excluded paths and the
directories searched for rule sets.`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd(root))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		Example: `  # Create .pmdgate.json in the current directory
  pmdgate config init

  # Write YAML instead
  pmdgate config init --output .pmdgate.yaml

  # Overwrite an existing file without asking
  pmdgate config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wizard.NewConfigWizard().Run(outputPath, force)
		},
	}

	cmd.Flags().StringVar(&outputPath, "output", "", "Output path for configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Force overwrite existing configuration")
	return cmd
}

func newConfigValidateCmd(root *rootOptions) *cobra.Command {
	var skipCommandCheck bool

	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file.

Without a path the --config file is checked, otherwise the file pmdgate would
load from the working directory. Validation also checks that the PMD launcher
can be found, which --skip-command-check turns off.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.configPath
			if len(args) == 1 {
				path = args[0]
			}
			return runValidateConfig(cmd, path, !skipCommandCheck)
		},
	}

	cmd.Flags().BoolVar(&skipCommandCheck, "skip-command-check", false, "Do not look up the PMD launcher")
	return cmd
}

func runValidateConfig(cmd *cobra.Command, path string, checkCommands bool) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	fmt.Fprintln(stdout, "Validating pmdgate configuration...") //nolint:errcheck // console output

	loader := config.NewLoader()
	var (
		cfg *pkgconfig.Config
		err error
	)
	if path != "" {
		cfg, err = loader.LoadFromPath(path)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		fmt.Fprintf(stderr, "\n❌ Failed to load configuration:\n   %v\n", err) //nolint:errcheck // console output
		return &exitError{code: exitInfra}
	}

	validator := config.NewValidator()
	validator.CheckCommands = checkCommands
	if err := validator.Validate(config.ApplyDefaults(cfg)); err != nil {
		fmt.Fprintf(stderr, "\n❌ Configuration validation failed:\n   %v\n", err) //nolint:errcheck // console output
		if suggestions := validator.SuggestFixes(err); len(suggestions) > 0 {
			fmt.Fprintf(stderr, "\n💡 Suggestions:\n") //nolint:errcheck // console output
			for _, s := range suggestions {
				fmt.Fprintf(stderr, "   • %s\n", s) //nolint:errcheck // console output
			}
		}
		return &exitError{code: exitInfra}
	}

	fmt.Fprintln(stdout, "\n✅ Configuration is valid!") //nolint:errcheck // console output
	printSummary(stdout, config.ApplyDefaults(cfg))
	return nil
}

func printSummary(w io.Writer, cfg *pkgconfig.Config) {
	fmt.Fprintf(w, "\nConfiguration Summary:\n") //nolint:errcheck // console output
	fmt.Fprintf(w, "   Version: %s\n", cfg.Version) //nolint:errcheck // console output
	fmt.Fprintf(w, "   Command: %s\n", cfg.Analyzer.Command) //nolint:errcheck // console output
	if cfg.Analyzer.Timeout > 0 {
		fmt.Fprintf(w, "   Timeout: %dms\n", cfg.Analyzer.Timeout) //nolint:errcheck // console output
	}
	if f := cfg.Filter; f != nil {
		fmt.Fprintf(w, "   Noise markers: %d extra\n", len(f.NoiseMarkers)) //nolint:errcheck // console output
		fmt.Fprintf(w, "   Suppress patterns: %d\n", len(f.SuppressPatterns)) //nolint:errcheck // console output
		fmt.Fprintf(w, "   Exclude paths: %d\n", len(f.ExcludePaths)) //nolint:errcheck // console output
	}
	for _, p := range cfg.RuleSetPaths {
		fmt.Fprintf(w, "   Rule-set path: %s\n", p) //nolint:errcheck // console output
	}
}
