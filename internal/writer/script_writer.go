package writer

import (
	"fmt"
	"strings"

	"github.com/gitsnow/gitsnow/internal/version"
	"github.com/gitsnow/gitsnow/ir"
)

// ScriptHeader describes the deployment script in its leading comment
type ScriptHeader struct {
	Database    string
	Objects     int
	Fingerprint string
}

// ScriptWriter builds a single deployment script
type ScriptWriter struct {
	output          strings.Builder
	includeComments bool
}

// NewScriptWriter creates a new ScriptWriter with configurable comment inclusion
func NewScriptWriter(includeComments bool) *ScriptWriter {
	return &ScriptWriter{includeComments: includeComments}
}

// WriteHeader writes the leading comment block. It carries no timestamp so
// identical input always produces an identical script.
func (w *ScriptWriter) WriteHeader(h ScriptHeader) {
	w.output.WriteString("--\n")
	w.output.WriteString(fmt.Sprintf("-- gitsnow deployment script (version %s)\n", version.App()))
	w.output.WriteString("--\n")
	if h.Database != "" {
		w.output.WriteString(fmt.Sprintf("-- Database: %s\n", h.Database))
	}
	w.output.WriteString(fmt.Sprintf("-- Objects: %d\n", h.Objects))
	if h.Fingerprint != "" {
		w.output.WriteString(fmt.Sprintf("-- Fingerprint: %s\n", h.Fingerprint))
	}
	w.output.WriteString("\n")
}

// WriteSchemas writes one CREATE SCHEMA IF NOT EXISTS per schema
func (w *ScriptWriter) WriteSchemas(schemas []string) {
	if len(schemas) == 0 {
		return
	}
	for _, schema := range schemas {
		w.output.WriteString(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;\n", ir.QuoteIdentifier(schema)))
	}
	w.output.WriteString("\n")
}

// WriteStatementWithComment appends stmt followed by a blank line
func (w *ScriptWriter) WriteStatementWithComment(obj *ir.SchemaObject, stmt string) error {
	if w.includeComments {
		w.output.WriteString(fmt.Sprintf("-- Object: %s (%s)\n", obj.Key(), obj.Type))
		if obj.Origin != "" {
			w.output.WriteString(fmt.Sprintf("-- Source: %s\n", obj.Origin))
		}
	}
	w.output.WriteString(strings.Trim(stmt, "\n"))
	w.output.WriteString("\n\n")
	return nil
}

// String returns the script ending in exactly one newline
func (w *ScriptWriter) String() string {
	result := strings.TrimRight(w.output.String(), "\n")
	if result == "" {
		return ""
	}
	return result + "\n"
}
