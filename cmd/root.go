package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitsnow/gitsnow/cmd/dbtofolder"
	"github.com/gitsnow/gitsnow/cmd/dependencies"
	"github.com/gitsnow/gitsnow/cmd/foldertoscript"
	"github.com/gitsnow/gitsnow/internal/logger"
	"github.com/gitsnow/gitsnow/internal/version"
)

var (
	Debug      bool
	ScriptsDir string
)

var RootCmd = &cobra.Command{
	Use:   "gitsnow",
	Short: "Snowflake schema sync between a warehouse and a scripts folder",
	Long: fmt.Sprintf(`gitsnow keeps the table and view definitions of a Snowflake database
in a folder of SQL scripts and compiles that folder back into one
deployment script ordered by dependencies.

Version: %s

Commands:
  db-to-folder        Write warehouse objects to the scripts directory
  folder-to-script    Compile the scripts directory into a deployment script
  show-dependencies   Print the dependency graph of the scripts directory

Use "gitsnow [command] --help" for more information about a command.`,
		version.Full()),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(os.Stderr, Debug)
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVar(&ScriptsDir, "scripts-dir", "", "Directory holding the object scripts")
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(dbtofolder.DbToFolderCmd)
	RootCmd.AddCommand(foldertoscript.FolderToScriptCmd)
	RootCmd.AddCommand(dependencies.ShowDependenciesCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
