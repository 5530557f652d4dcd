package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewSimilarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar <id>",
		Short: "List elements similar to a stored record",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimilar,
	}

	cmd.Flags().Float64P("threshold", "t", 0.8, "Minimum similarity score")
	cmd.Flags().IntP("limit", "n", 10, "Maximum results")
	return cmd
}

func runSimilar(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, ".")
	if err != nil {
		return err
	}

	elements, err := newClient(cfg).Similar(cmd.Context(), args[0], cfg.PairThreshold, cfg.Limit)
	if err != nil {
		return fmt.Errorf("similar: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(elements) == 0 {
		fmt.Fprintln(out, "No similar elements")
		return nil
	}
	for _, el := range elements {
		m := el.Metadata
		fmt.Fprintf(out, "%s  %s:%d\n", m.ElementName, m.FilePath, m.LineNumber)
	}
	return nil
}
