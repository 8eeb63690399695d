// Package main is the entry point for the pmdgate CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bebsworthy/pmdgate/internal/config"
	"github.com/bebsworthy/pmdgate/internal/debug"
	pkgconfig "github.com/bebsworthy/pmdgate/pkg/config"
	"github.com/bebsworthy/pmdgate/pkg/gate"
)

// Version is set at build time via ldflags
var Version = "dev"

// osExit is a variable to allow mocking os.Exit in tests
var osExit = os.Exit

// Exit codes
const (
	exitOK       = 0
	exitInfra    = 1
	exitFindings = 2
)

// exitError carries an exit code out of a command whose report was
// already printed
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// rootOptions holds the persistent flags
type rootOptions struct {
	debug      bool
	configPath string

	// analyzer replaces the PMD launcher in tests
	analyzer gate.Analyzer
}

// newRootCmd creates the root command writing to the given streams
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return buildRootCmd(&rootOptions{}, stdout, stderr)
}

func buildRootCmd(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pmdgate",
		Short: "Fail builds on PMD findings",
		Long: `pmdgate runs the PMD static analyzer over a source folder and fails when
PMD reports findings or writes anything to its error channel.

Known PMD noise lines (progress chatter, "No problems found!", per-file
processing errors) are filtered before judging. Rule-set names are resolved
next to the working directory, then in the configured rule-set paths, then
through Bazel runfiles.

EXIT CODES:
  0  no findings and a blank error channel
  1  the check could not run (missing folder or rule set, timeout, PMD failure)
  2  PMD reported findings or wrote to its error channel

CONFIGURATION:
  pmdgate reads .pmdgate.json, .pmdgate.yaml or .pmdgate.toml from the working
  directory, the project root or your home directory. PMDGATE_CONFIG overrides
  the search.`,
		Version: Version,
		Example: `  # Check a folder against a rule set next to the working directory
  pmdgate check src/main/java --rules pmd-rules.xml

  # Create a configuration file
  pmdgate config init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.debug {
				debug.Enable()
			}
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug output")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")

	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newManCmd())

	return cmd
}

// loadConfig loads the --config file when given, otherwise searches from
// the working directory and falls back to the defaults
func (o *rootOptions) loadConfig() (*pkgconfig.Config, error) {
	if o.configPath != "" {
		cfg, err := config.NewLoader().LoadFromPath(o.configPath)
		if err != nil {
			return nil, err
		}
		return config.ApplyDefaults(cfg), nil
	}
	return config.NewLoader().LoadOrDefault()
}

// run executes the CLI and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	debug.EnableFromEnv()
	return runWith(&rootOptions{}, args, stdout, stderr)
}

func runWith(opts *rootOptions, args []string, stdout, stderr io.Writer) int {
	return runContext(context.Background(), opts, args, stdout, stderr)
}

func runContext(ctx context.Context, opts *rootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := buildRootCmd(opts, stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	fmt.Fprintln(stderr, err) //nolint:errcheck // console output
	return exitInfra
}

func main() {
	osExit(run(os.Args[1:], os.Stdout, os.Stderr))
}
