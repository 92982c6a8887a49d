package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// Environment variables read by the command layer
const (
	EnvDatabase        = "SNOWFLAKE_DATABASE"
	EnvConnectionsFile = "SNOWFLAKE_CONNECTIONS_FILE"
	EnvFormatter       = "GITSNOW_FORMATTER"
	EnvWorkers         = "GITSNOW_WORKERS"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as int or a default value if not set
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// PreRunEWithEnvVars creates a PreRunE function that fills --db-name from
// SNOWFLAKE_DATABASE when the flag was not set, and fails when neither is given.
func PreRunEWithEnvVars(dbPtr *string) func(*cobra.Command, []string) error {
	return PreRunEWithEnvVarsAndFormatter(dbPtr, nil)
}

// PreRunEWithEnvVarsAndFormatter also fills --formatter-cmd from GITSNOW_FORMATTER
func PreRunEWithEnvVarsAndFormatter(dbPtr, formatterPtr *string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if GetEnvWithDefault(EnvDatabase, "") != "" && !cmd.Flags().Changed("db-name") {
			*dbPtr = GetEnvWithDefault(EnvDatabase, "")
		}
		if formatterPtr != nil && GetEnvWithDefault(EnvFormatter, "") != "" && !cmd.Flags().Changed("formatter-cmd") {
			*formatterPtr = GetEnvWithDefault(EnvFormatter, "")
		}

		if *dbPtr == "" {
			return fmt.Errorf("database name is required (use --db-name flag or %s environment variable)", EnvDatabase)
		}
		return nil
	}
}

// ScriptsDir returns the root --scripts-dir flag, which every command needs
func ScriptsDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("scripts-dir")
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", fmt.Errorf("scripts directory is required (use --scripts-dir flag)")
	}
	return dir, nil
}
