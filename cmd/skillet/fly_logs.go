package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillforge/skillet/pkg/flyio"
	"github.com/skillforge/skillet/pkg/presenter"
)

var flyLogsCmd = &cobra.Command{
	Use:   "fly-logs <app>",
	Short: "Capture a Fly.io app's recent logs",
	Long: `Snapshot an app's recent logs via the fly CLI and store them
gzip-compressed.

Examples:
  skillet fly-logs my-app
  skillet fly-logs my-app --output ./logs/my-app.log.gz`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = args[0] + ".log.gz"
		}

		dest, err := flyio.CaptureLogs(cmd.Context(), args[0], output)
		if err != nil {
			if errors.Is(err, flyio.ErrFlyNotInstalled) {
				presenter.Error(err, "Please install the Fly.io CLI (https://fly.io/docs/flyctl/install/)")
			} else {
				presenter.Error(err, "Failed to capture logs")
			}
			os.Exit(1)
		}

		presenter.Success(fmt.Sprintf("Logs written to %s", dest))
	},
}

func init() {
	flyLogsCmd.Flags().StringP("output", "o", "", "Destination file (default <app>.log.gz)")
	rootCmd.AddCommand(flyLogsCmd)
}
