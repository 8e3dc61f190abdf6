package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "calldash",
		Short:        "Call-center analytics over the GoTo call history API",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSummaryCmd(), newUsersCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
