package main

import (
	"github.com/spf13/cobra"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/scanner"
	"github.com/arturoeanton/go-code-similarity-ollama/pkg/client"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "codeecho",
		Short:         "Code similarity indexing and search",
		Long:          `Scan source trees into a CodeEcho server and query it for similar code.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("server", "", "CodeEcho server URL (overrides config)")

	rootCmd.AddCommand(
		NewScanCmd(),
		NewSearchCmd(),
		NewSimilarCmd(),
		NewPairsCmd(),
		NewClearCmd(),
	)

	return rootCmd
}

// resolveConfig loads the scanner configuration from dir and applies any
// flag overrides the user set on this invocation.
func resolveConfig(cmd *cobra.Command, dir string) (*scanner.Config, error) {
	cfg, err := scanner.LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("server") {
		cfg.ServerURL, _ = cmd.Flags().GetString("server")
	}
	if cmd.Flags().Changed("threshold") {
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		cfg.SearchThreshold = threshold
		cfg.PairThreshold = threshold
	}
	if cmd.Flags().Changed("limit") {
		cfg.Limit, _ = cmd.Flags().GetInt("limit")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newClient(cfg *scanner.Config) *client.Client {
	return client.New(cfg.ServerURL)
}
