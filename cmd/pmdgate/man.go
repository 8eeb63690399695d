// Package main provides man page generation for pmdgate
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newManCmd() *cobra.Command {
	var manDir string

	cmd := &cobra.Command{
		Use:   "man",
		Short: "Generate man pages for pmdgate",
		Example: `  # Generate man pages in a specific directory
  pmdgate man --dir ./docs/man

  # View a generated page
  man ./docs/man/pmdgate-check.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateMan(cmd, manDir)
		},
	}

	cmd.Flags().StringVar(&manDir, "dir", ".", "Directory to write man pages to")
	return cmd
}

func generateMan(cmd *cobra.Command, manDir string) error {
	if err := os.MkdirAll(manDir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	header := &doc.GenManHeader{
		Title:   "PMDGATE",
		Section: "1",
		Source:  fmt.Sprintf("pmdgate %s", Version),
		Manual:  "pmdgate Manual",
	}
	if err := doc.GenManTree(cmd.Root(), header, manDir); err != nil {
		return fmt.Errorf("failed to generate man pages: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(manDir, "*.1"))
	if err != nil {
		return fmt.Errorf("failed to list generated files: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Man pages generated in: %s\n", manDir) //nolint:errcheck // console output
	for _, file := range files {
		fmt.Fprintf(out, "  %s\n", filepath.Base(file)) //nolint:errcheck // console output
	}
	return nil
}
