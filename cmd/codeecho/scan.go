package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/adapter/vcs"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/scanner"
)

func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a source tree and index its code elements",
		Long: `Walk a directory, extract code elements with the configured signature
patterns, and submit them to the server. Files that cannot be read or
indexed are logged and skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg, err := resolveConfig(cmd, root)
	if err != nil {
		return err
	}

	s, err := scanner.New(cfg, newClient(cfg), vcs.NewGitProvider())
	if err != nil {
		return err
	}

	stats, err := s.Scan(cmd.Context(), root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanned %d files (%d failed)\n", stats.FilesScanned, stats.FilesFailed)
	fmt.Fprintf(out, "Indexed %d of %d elements", stats.ElementsIndexed, stats.ElementsFound)
	if stats.BatchesFailed > 0 {
		fmt.Fprintf(out, " (%d file batches failed)", stats.BatchesFailed)
	}
	fmt.Fprintln(out)
	return nil
}
