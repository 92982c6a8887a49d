package dbtofolder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitsnow/gitsnow/cmd/util"
	"github.com/gitsnow/gitsnow/internal/format"
	"github.com/gitsnow/gitsnow/internal/ignore"
	"github.com/gitsnow/gitsnow/internal/logger"
	"github.com/gitsnow/gitsnow/internal/warehouse"
	"github.com/gitsnow/gitsnow/internal/writer"
	"github.com/gitsnow/gitsnow/ir"
)

var (
	dbName             string
	schemas            []string
	connectionsFile    string
	formatterCmd       string
	forceCreateOrAlter bool
	workers            int
)

var DbToFolderCmd = &cobra.Command{
	Use:   "db-to-folder",
	Short: "Write warehouse object definitions to the scripts directory",
	Long: `Read the definition of every table, view, dynamic table and materialized view
of a database and write one file per object under the scripts directory,
laid out as <schema>/<type>/<name>.sql. Files whose content did not change
are left untouched.`,
	RunE:         runDbToFolder,
	SilenceUsage: true,
	PreRunE:      util.PreRunEWithEnvVarsAndFormatter(&dbName, &formatterCmd),
}

func init() {
	DbToFolderCmd.Flags().StringVar(&dbName, "db-name", "", "Database name (required) (env: SNOWFLAKE_DATABASE)")
	DbToFolderCmd.Flags().StringArrayVar(&schemas, "schema", nil, "Schema to export; repeat for several (default: all schemas)")
	DbToFolderCmd.Flags().StringVar(&connectionsFile, "connections-file", "", "Path to connections.toml (env: SNOWFLAKE_CONNECTIONS_FILE)")
	DbToFolderCmd.Flags().StringVar(&formatterCmd, "formatter-cmd", "", "External formatter reading SQL on stdin (env: GITSNOW_FORMATTER)")
	DbToFolderCmd.Flags().BoolVar(&forceCreateOrAlter, "force-create-or-alter", true, "Write tables as CREATE OR ALTER TABLE")
	DbToFolderCmd.Flags().IntVar(&workers, "workers", 4, "Number of schemas inspected in parallel")
}

func runDbToFolder(cmd *cobra.Command, args []string) error {
	scriptsDir, err := util.ScriptsDir(cmd)
	if err != nil {
		return err
	}

	config := &DbToFolderConfig{
		ScriptsDir:         scriptsDir,
		Database:           dbName,
		Schemas:            schemas,
		ConnectionsFile:    connectionsFile,
		FormatterCmd:       formatterCmd,
		ForceCreateOrAlter: forceCreateOrAlter,
		Workers:            workers,
	}

	result, err := ExecuteDbToFolder(cmd.Context(), config)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d objects to %s (%d written, %d unchanged)\n",
		result.Objects, scriptsDir, len(result.Written), len(result.Unchanged))
	return nil
}

// DbToFolderConfig holds configuration for a db-to-folder run
type DbToFolderConfig struct {
	ScriptsDir         string
	Database           string
	Schemas            []string
	ConnectionsFile    string
	FormatterCmd       string
	ForceCreateOrAlter bool
	Workers            int
}

// Result lists the files touched by a run, relative to the scripts directory
type Result struct {
	Objects   int
	Written   []string
	Unchanged []string
}

// ExecuteDbToFolder connects to the warehouse and materializes its objects
func ExecuteDbToFolder(ctx context.Context, config *DbToFolderConfig) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ignoreConfig, err := ignore.LoadForScriptsDir(config.ScriptsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ignore.IgnoreFileName, err)
	}

	db, err := util.OpenConnection(ctx, config.Database, config.ConnectionsFile)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return WriteObjects(ctx, db, config, ignoreConfig)
}

// WriteObjects inspects the database behind db and writes every object to
// the scripts directory
func WriteObjects(ctx context.Context, db *sql.DB, config *DbToFolderConfig, ignoreConfig *ir.IgnoreConfig) (*Result, error) {
	log := logger.Get()

	inspector := warehouse.NewInspector(db, config.Database, ignoreConfig)
	inspector.SetWorkers(config.Workers)

	targetSchemas := normalizeSchemas(config.Schemas)
	if len(targetSchemas) == 0 {
		var err error
		if targetSchemas, err = inspector.Schemas(ctx); err != nil {
			return nil, err
		}
	}
	log.Debug("Inspecting schemas", "database", config.Database, "schemas", targetSchemas)

	objects, err := inspector.Objects(ctx, targetSchemas)
	if err != nil {
		return nil, err
	}

	formatter, err := format.New(config.FormatterCmd, config.ForceCreateOrAlter)
	if err != nil {
		return nil, err
	}
	folder, err := writer.NewFolderWriter(config.ScriptsDir)
	if err != nil {
		return nil, err
	}
	if err := writer.Emit(ctx, folder, objects, formatter); err != nil {
		return nil, err
	}

	return &Result{
		Objects:   len(objects),
		Written:   folder.Written(),
		Unchanged: folder.Unchanged(),
	}, nil
}

// normalizeSchemas folds unquoted schema names the way the warehouse does
func normalizeSchemas(names []string) []string {
	var result []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if len(name) > 1 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
			result = append(result, ir.NormalizeIdentifier(strings.ReplaceAll(name[1:len(name)-1], `""`, `"`), true))
			continue
		}
		result = append(result, ir.NormalizeIdentifier(name, false))
	}
	return result
}
