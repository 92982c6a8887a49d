// Package source reads the SQL files of a scripts directory.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// File is one SQL file. Path is relative to the scripts directory and uses
// forward slashes on every platform.
type File struct {
	Path string
	Text string
}

// LoadDir reads every .sql file below dir, ordered by path. Hidden files and
// directories are skipped.
func LoadDir(dir string) ([]File, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scripts directory %s is not a directory", dir)
	}

	var files []File
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".sql") {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, File{Path: filepath.ToSlash(rel), Text: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// DefaultSchema returns the schema implied by the folder layout
// <schema>/<type dir>/<name>.sql, or "" when the path is shallower
func DefaultSchema(relPath string) string {
	parts := strings.Split(path.Clean(filepath.ToSlash(relPath)), "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-3]
}
