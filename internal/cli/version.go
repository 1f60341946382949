package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set with -ldflags "-X github.com/rustyeddy/equity/internal/cli.version=..."
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "equity version %s\n", version)
		},
	}
}
