package main

import (
	"fmt"
	"os"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	rootCmd := NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "codeecho: %v\n", err)
		os.Exit(1)
	}
}
