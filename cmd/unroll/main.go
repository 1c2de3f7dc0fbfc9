// Command unroll straightens quad-grid UV islands of MU Online BMD models.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mu-bmd-unroll/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "unroll",
		Short:         "Unroll quad-grid UV islands of BMD models onto axis-aligned grids",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())
	root.AddCommand(newRunCmd(), newInspectCmd(), newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "unroll %s\n", version)
		},
	}
}
