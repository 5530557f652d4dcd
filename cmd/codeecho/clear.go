package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every indexed element from the server",
		Args:  cobra.NoArgs,
		RunE:  runClear,
	}
}

func runClear(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, ".")
	if err != nil {
		return err
	}

	count, err := newClient(cfg).DeleteAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d elements\n", count)
	return nil
}
