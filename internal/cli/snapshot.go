package cli

import (
	"github.com/spf13/cobra"

	"chain-dashboard/internal/app"
)

var (
	snapshotOut   string
	snapshotNoPNG bool
	snapshotCSV   bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch the latest window once, print it and write charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SnapshotOptions{
			OutputDir: snapshotOut,
			PNG:       !snapshotNoPNG,
			CSV:       snapshotCSV,
		}
		return getApp().Snapshot(cmd.Context(), opts)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotOut, "out", "", "Directory for charts and CSV (defaults to config)")
	snapshotCmd.Flags().BoolVar(&snapshotNoPNG, "no-png", false, "Skip PNG chart rendering")
	snapshotCmd.Flags().BoolVar(&snapshotCSV, "csv", false, "Also write the window as CSV")
}
