// Package ignore loads .gitsnowignore files.
package ignore

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/gitsnow/gitsnow/ir"
)

const (
	// IgnoreFileName is the default name of the ignore file
	IgnoreFileName = ".gitsnowignore"
)

// TomlConfig represents the TOML structure of the .gitsnowignore file
type TomlConfig struct {
	Schemas           PatternConfig `toml:"schemas,omitempty"`
	Tables            PatternConfig `toml:"tables,omitempty"`
	Views             PatternConfig `toml:"views,omitempty"`
	DynamicTables     PatternConfig `toml:"dynamic_tables,omitempty"`
	MaterializedViews PatternConfig `toml:"materialized_views,omitempty"`
}

// PatternConfig holds the glob patterns of one section; "!" negates a pattern
type PatternConfig struct {
	Patterns []string `toml:"patterns,omitempty"`
}

// LoadIgnoreFile loads the .gitsnowignore file from the current directory.
// Returns nil if the file doesn't exist (ignore functionality is optional)
func LoadIgnoreFile() (*ir.IgnoreConfig, error) {
	return LoadIgnoreFileFromPath(IgnoreFileName)
}

// LoadForScriptsDir looks for .gitsnowignore inside scriptsDir first and then
// in the current directory
func LoadForScriptsDir(scriptsDir string) (*ir.IgnoreConfig, error) {
	if scriptsDir != "" {
		path := filepath.Join(scriptsDir, IgnoreFileName)
		if _, err := os.Stat(path); err == nil {
			return LoadIgnoreFileFromPath(path)
		}
	}
	return LoadIgnoreFile()
}

// LoadIgnoreFileFromPath loads an ignore file from the specified path
func LoadIgnoreFileFromPath(filePath string) (*ir.IgnoreConfig, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		// File doesn't exist, return nil config (no filtering)
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var tomlConfig TomlConfig
	if _, err := toml.DecodeFile(filePath, &tomlConfig); err != nil {
		return nil, err
	}

	return &ir.IgnoreConfig{
		Schemas:           tomlConfig.Schemas.Patterns,
		Tables:            tomlConfig.Tables.Patterns,
		Views:             tomlConfig.Views.Patterns,
		DynamicTables:     tomlConfig.DynamicTables.Patterns,
		MaterializedViews: tomlConfig.MaterializedViews.Patterns,
	}, nil
}
