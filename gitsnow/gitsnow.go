// Package gitsnow provides a programmatic API for syncing Snowflake object
// definitions between a warehouse and a folder of SQL scripts.
package gitsnow

import (
	"context"
	"fmt"
	"os"

	"github.com/gitsnow/gitsnow/cmd/dbtofolder"
	"github.com/gitsnow/gitsnow/cmd/foldertoscript"
	"github.com/gitsnow/gitsnow/internal/plan"
)

// FolderToScriptOptions configures how a scripts directory is compiled.
type FolderToScriptOptions struct {
	ScriptsDir        string // Directory holding <schema>/<type>/<name>.sql files
	Database          string // Database name shown in the script header
	OutputFile        string // Also write the script here when set
	FormatterCmd      string // External formatter reading SQL on stdin (optional)
	Workers           int    // Parallel parsers (default: one per CPU)
	ExpectFingerprint string // Fail unless the object set has this fingerprint
	NoComments        bool   // Omit the per-object comment lines
}

// DbToFolderOptions configures how warehouse objects are materialized.
type DbToFolderOptions struct {
	ScriptsDir          string
	Database            string
	Schemas             []string // Schemas to export (default: all)
	ConnectionsFile     string   // connections.toml path (default: ~/.snowflake/connections.toml)
	FormatterCmd        string
	KeepCreateOrReplace bool // Do not rewrite tables to CREATE OR ALTER
	Workers             int
}

// Client provides the main interface for gitsnow operations.
type Client struct {
	// Defaults used when an operation leaves them empty
	database   string
	scriptsDir string
}

// NewClient creates a client for database whose scripts live in scriptsDir.
func NewClient(database, scriptsDir string) *Client {
	return &Client{database: database, scriptsDir: scriptsDir}
}

func (c *Client) folderConfig(opts FolderToScriptOptions) *foldertoscript.FolderToScriptConfig {
	if opts.ScriptsDir == "" {
		opts.ScriptsDir = c.scriptsDir
	}
	if opts.Database == "" {
		opts.Database = c.database
	}
	return &foldertoscript.FolderToScriptConfig{
		ScriptsDir:        opts.ScriptsDir,
		Database:          opts.Database,
		FormatterCmd:      opts.FormatterCmd,
		Workers:           opts.Workers,
		ExpectFingerprint: opts.ExpectFingerprint,
		IncludeComments:   !opts.NoComments,
	}
}

// Plan parses and sequences the scripts directory without rendering it.
func (c *Client) Plan(ctx context.Context, opts FolderToScriptOptions) (*plan.Plan, error) {
	return foldertoscript.GeneratePlan(ctx, c.folderConfig(opts))
}

// FolderToScript compiles the scripts directory into one deployment script
// ordered by dependencies and returns it.
func (c *Client) FolderToScript(ctx context.Context, opts FolderToScriptOptions) (string, error) {
	deployPlan, err := c.Plan(ctx, opts)
	if err != nil {
		return "", err
	}
	script, err := deployPlan.ToSQL(ctx)
	if err != nil {
		return "", err
	}

	if opts.OutputFile != "" {
		if err := os.WriteFile(opts.OutputFile, []byte(script), 0644); err != nil {
			return "", fmt.Errorf("failed to write deployment script to %s: %w", opts.OutputFile, err)
		}
	}
	return script, nil
}

// DbToFolder writes every object of the database to the scripts directory.
func (c *Client) DbToFolder(ctx context.Context, opts DbToFolderOptions) (*DbToFolderResult, error) {
	if opts.ScriptsDir == "" {
		opts.ScriptsDir = c.scriptsDir
	}
	if opts.Database == "" {
		opts.Database = c.database
	}
	if opts.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}

	return dbtofolder.ExecuteDbToFolder(ctx, &dbtofolder.DbToFolderConfig{
		ScriptsDir:         opts.ScriptsDir,
		Database:           opts.Database,
		Schemas:            opts.Schemas,
		ConnectionsFile:    opts.ConnectionsFile,
		FormatterCmd:       opts.FormatterCmd,
		ForceCreateOrAlter: !opts.KeepCreateOrReplace,
		Workers:            opts.Workers,
	})
}
