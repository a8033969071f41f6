// Package main is a local command-line companion for the intake router:
// it runs the dialogue in a terminal and exposes the classifier and
// extractors for quick checks.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "intakecli",
		Short:         "Local tooling for the z-reception intake router",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newChatCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newRecordsCmd())

	return root
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
