package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewPairsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "Find the most similar element pairs across the index",
		Long:  `Compare every indexed element against every other and report pairs above the threshold. Useful for spotting duplicated code.`,
		Args:  cobra.NoArgs,
		RunE:  runPairs,
	}

	cmd.Flags().Float64P("threshold", "t", 0.8, "Minimum similarity score")
	cmd.Flags().IntP("limit", "n", 10, "Maximum pairs")
	return cmd
}

func runPairs(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, ".")
	if err != nil {
		return err
	}

	pairs, err := newClient(cfg).SimilarPairs(cmd.Context(), cfg.PairThreshold, cfg.Limit)
	if err != nil {
		return fmt.Errorf("pairs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(pairs) == 0 {
		fmt.Fprintln(out, "No similar pairs")
		return nil
	}
	for _, p := range pairs {
		a, b := p.Element1.Metadata, p.Element2.Metadata
		fmt.Fprintf(out, "%.4f  %s (%s:%d)  <->  %s (%s:%d)\n",
			p.Similarity,
			a.ElementName, a.FilePath, a.LineNumber,
			b.ElementName, b.FilePath, b.LineNumber)
	}
	return nil
}
