package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitsnow/gitsnow/internal/version"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of gitsnow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gitsnow v%s\n", version.Full())
	},
}
