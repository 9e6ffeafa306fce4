// Package cmd implements exchanged's command-line surface: a root
// command plus serve/version subcommands, built on spf13/cobra.
package cmd

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags; "dev" is the fallback for
// local builds.
var version = "dev"

// NewRootCmd constructs the exchanged root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "exchanged",
		Short: "exchanged runs the spot trading matching engine and balance ledger",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the exchanged version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(version)
			return nil
		},
	}
}
