package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bebsworthy/pmdgate/internal/debug"
	"github.com/bebsworthy/pmdgate/internal/progress"
	"github.com/bebsworthy/pmdgate/internal/reporter"
	"github.com/bebsworthy/pmdgate/internal/watch"
	"github.com/bebsworthy/pmdgate/pkg/gate"
)

type checkOptions struct {
	root      *rootOptions
	rules     string
	rulePaths []string
	timeout   time.Duration
	watch     bool
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{root: root}

	cmd := &cobra.Command{
		Use:   "check <dir>",
		Short: "Run PMD on a folder and fail on findings",
		Long: `Run PMD on a folder and fail when it reports findings or writes to its
error channel.

The rule set is a name or a comma separated list of names. Each name is
looked up next to the working directory, then in the configured rule-set
paths, then through Bazel runfiles.

Press ESC to cancel a run on an interactive terminal. With --watch the check
reruns whenever a Java or XML file under the folder changes, until Ctrl+C.`,
		Example: `  pmdgate check src/main/java --rules pmd-rules.xml
  pmdgate check . --rules base.xml,strict.xml --timeout 2m
  pmdgate check src --rules team.xml --rule-path config/pmd
  pmdgate check src/main/java --rules pmd-rules.xml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.rules, "rules", "r", "", "Rule-set name(s), comma separated")
	cmd.Flags().StringSliceVar(&opts.rulePaths, "rule-path", nil, "Additional directories to search for rule sets")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Analyzer timeout (overrides the configuration)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Rerun after Java or XML files under the folder change")
	_ = cmd.MarkFlagRequired("rules") //nolint:errcheck // flag is defined above

	return cmd
}

func (o *checkOptions) run(cmd *cobra.Command, dir string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	rep := reporter.NewErrorReporter()

	cfg, err := o.root.loadConfig()
	if err != nil {
		return o.print(cmd, rep.ReportSingleError("Configuration Error", err.Error(),
			"Check the file with: pmdgate config validate"))
	}

	gateOpts := []gate.Option{gate.WithOutput(stdout)}
	if len(o.rulePaths) > 0 {
		gateOpts = append(gateOpts, gate.WithRuleSetPaths(o.rulePaths...))
	}
	if o.timeout > 0 {
		gateOpts = append(gateOpts, gate.WithTimeout(o.timeout))
	}
	if o.root.analyzer != nil {
		gateOpts = append(gateOpts, gate.WithAnalyzer(o.root.analyzer))
	}

	g, err := gate.New(cfg, gateOpts...)
	if err != nil {
		return o.print(cmd, rep.ReportSingleError("Configuration Error", err.Error()))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	req := gate.Request{
		TargetDir: dir,
		RuleSet:   o.rules,
		CallerDir: cwd,
	}
	if o.watch {
		return o.runWatch(cmd, g, req)
	}

	ctx, stopListening := progress.ListenForEscape(cmd.Context())
	report := o.checkOnce(ctx, g, req, stderr)
	// The terminal must leave raw mode before main exits
	stopListening()

	return o.print(cmd, report)
}

func (o *checkOptions) checkOnce(ctx context.Context, g *gate.Gate, req gate.Request, stderr io.Writer) *reporter.ReportResult {
	spinner := progress.New(stderr)
	spinner.Start("Running PMD")
	result, err := g.Check(ctx, req)
	spinner.Stop()

	if result != nil {
		debug.Log("PMD finished in %v: %d lines, %d suppressed, %d findings, exit code %d",
			result.Duration, result.TotalLines, result.Suppressed, len(result.Findings), result.ExitCode)
	}
	return reporter.NewErrorReporter().Report(outcomeOf(result, err))
}

// runWatch checks once, then again after every change under the target
// folder until interrupted
func (o *checkOptions) runWatch(cmd *cobra.Command, g *gate.Gate, req gate.Request) error {
	stderr := cmd.ErrOrStderr()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rerun := func(ctx context.Context) {
		_ = o.print(cmd, o.checkOnce(ctx, g, req, stderr)) //nolint:errcheck // the exit code only matters without --watch
		fmt.Fprintln(stderr, "\nWatching for changes... (Press Ctrl+C to exit)") //nolint:errcheck // console output
	}
	rerun(ctx)

	absDir, err := filepath.Abs(req.TargetDir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", req.TargetDir, err)
	}
	if err := watch.New(absDir).Run(ctx, rerun); err != nil {
		return o.print(cmd, reporter.NewErrorReporter().ReportSingleError("Watch Error", err.Error()))
	}

	fmt.Fprintln(stderr, "Stopped watching.") //nolint:errcheck // console output
	return nil
}

// outcomeOf maps a gate run onto the reporter's view of it
func outcomeOf(result *gate.Result, err error) reporter.Outcome {
	var o reporter.Outcome
	if result != nil {
		o.Findings = result.Findings
		o.Stderr = result.Stderr
	}
	if gate.IsInfrastructure(err) {
		o.ExecutionError = err
	}
	return o
}

func (o *checkOptions) print(cmd *cobra.Command, r *reporter.ReportResult) error {
	if r.Stdout != "" {
		fmt.Fprintln(cmd.OutOrStdout(), r.Stdout) //nolint:errcheck // console output
	}
	if r.Stderr != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), r.Stderr) //nolint:errcheck // console output
	}
	if r.ExitCode != exitOK {
		return &exitError{code: r.ExitCode}
	}
	return nil
}
