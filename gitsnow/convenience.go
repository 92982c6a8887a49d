package gitsnow

import (
	"context"

	"github.com/gitsnow/gitsnow/ir"
)

// CompileScripts is a convenience function to compile a scripts directory
// into a deployment script.
func CompileScripts(ctx context.Context, scriptsDir, database string) (string, error) {
	return NewClient(database, scriptsDir).FolderToScript(ctx, FolderToScriptOptions{})
}

// SyncFolder is a convenience function to write every object of database to scriptsDir.
func SyncFolder(ctx context.Context, database, scriptsDir string) (*DbToFolderResult, error) {
	return NewClient(database, scriptsDir).DbToFolder(ctx, DbToFolderOptions{})
}

// ParseObject parses a single CREATE statement. Unqualified names take defaultSchema.
func ParseObject(text, defaultSchema string) (*SchemaObject, error) {
	return ir.ParseObject(text, "", defaultSchema)
}
