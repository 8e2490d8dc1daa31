package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"chain-dashboard/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "chaindash %s\n", version.Version)
		fmt.Fprintf(out, "commit: %s\nbuilt: %s\n", version.Commit, version.BuildDate)
	},
}
