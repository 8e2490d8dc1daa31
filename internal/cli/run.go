package cli

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the provider and refresh the dashboard until interrupted",
	Long:  "Poll the provider and refresh the dashboard until interrupted. Send SIGHUP to force an immediate refresh.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context())
	},
}
