package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed code by free text",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().Float64P("threshold", "t", 0.5, "Minimum similarity score")
	cmd.Flags().IntP("limit", "n", 10, "Maximum results")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, ".")
	if err != nil {
		return err
	}

	results, err := newClient(cfg).Search(cmd.Context(), args[0], cfg.SearchThreshold, cfg.Limit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No matches")
		return nil
	}
	for _, r := range results {
		m := r.Element.Metadata
		fmt.Fprintf(out, "%.4f  %s  %s:%d\n", r.Similarity, m.ElementName, m.FilePath, m.LineNumber)
	}
	return nil
}
