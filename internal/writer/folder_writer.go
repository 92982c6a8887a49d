package writer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gitsnow/gitsnow/internal/logger"
	"github.com/gitsnow/gitsnow/ir"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// FolderWriter writes each object to its own file under baseDir, laid out as
// <schema>/<type dir>/<name>.sql. Files whose content is unchanged are left
// alone so re-running against the same warehouse state touches nothing.
type FolderWriter struct {
	baseDir   string
	written   []string
	unchanged []string
	paths     map[string]string // relative path -> object key
}

// NewFolderWriter creates baseDir if needed
func NewFolderWriter(baseDir string) (*FolderWriter, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FolderWriter{baseDir: baseDir, paths: make(map[string]string)}, nil
}

// ObjectPath returns the slash-separated path of obj relative to the scripts directory
func ObjectPath(obj *ir.SchemaObject) string {
	return sanitizeFileName(obj.Name.Schema) + "/" + obj.Type.Dir() + "/" + sanitizeFileName(obj.Name.Name) + ".sql"
}

// WriteStatementWithComment writes stmt as the whole content of obj's file.
// Materialized files carry no comment header.
func (w *FolderWriter) WriteStatementWithComment(obj *ir.SchemaObject, stmt string) error {
	relPath := ObjectPath(obj)
	if other, ok := w.paths[relPath]; ok && other != obj.Key() {
		return fmt.Errorf("objects %s and %s both map to file %s", other, obj.Key(), relPath)
	}
	w.paths[relPath] = obj.Key()

	fullPath := filepath.Join(w.baseDir, filepath.FromSlash(relPath))
	content := []byte(strings.TrimRight(stmt, "\n") + "\n")

	existing, err := os.ReadFile(fullPath)
	if err == nil && bytes.Equal(existing, content) {
		w.unchanged = append(w.unchanged, relPath)
		logger.Get().Debug("File unchanged", "path", relPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	w.written = append(w.written, relPath)
	logger.Get().Debug("File written", "path", relPath)
	return nil
}

// Written returns the relative paths whose content changed
func (w *FolderWriter) Written() []string {
	return w.written
}

// Unchanged returns the relative paths that already held the same content
func (w *FolderWriter) Unchanged() []string {
	return w.unchanged
}

// sanitizeFileName converts an object name to a valid filename
func sanitizeFileName(name string) string {
	// Replace non-alphanumeric characters with underscores
	sanitized := unsafeFileChars.ReplaceAllString(name, "_")

	sanitized = strings.Trim(sanitized, "_")

	// Convert to lowercase for consistency
	return strings.ToLower(sanitized)
}
