package ir

import (
	"path/filepath"
	"strings"
)

// IgnoreConfig lists glob patterns of objects to leave out of every operation
type IgnoreConfig struct {
	Schemas           []string `toml:"schemas,omitempty"`
	Tables            []string `toml:"tables,omitempty"`
	Views             []string `toml:"views,omitempty"`
	DynamicTables     []string `toml:"dynamic_tables,omitempty"`
	MaterializedViews []string `toml:"materialized_views,omitempty"`
}

// ShouldIgnoreSchema checks if a whole schema should be ignored
func (c *IgnoreConfig) ShouldIgnoreSchema(schema string) bool {
	if c == nil {
		return false
	}
	return shouldIgnore(c.Schemas, schema)
}

// ShouldIgnore checks the object's schema and then the patterns for its type.
// Type patterns match either the bare object name or "SCHEMA.NAME".
func (c *IgnoreConfig) ShouldIgnore(obj *SchemaObject) bool {
	if c == nil || obj == nil {
		return false
	}
	if c.ShouldIgnoreSchema(obj.Name.Schema) {
		return true
	}

	var patterns []string
	switch obj.Type {
	case ObjectTypeTable:
		patterns = c.Tables
	case ObjectTypeView:
		patterns = c.Views
	case ObjectTypeDynamicTable:
		patterns = c.DynamicTables
	case ObjectTypeMaterializedView:
		patterns = c.MaterializedViews
	}
	return shouldIgnore(patterns, obj.Name.Name, obj.Name.String())
}

// shouldIgnore reports whether any candidate matches an inclusion pattern and
// no candidate matches a "!" negation pattern. Matching ignores case.
func shouldIgnore(patterns []string, candidates ...string) bool {
	if len(patterns) == 0 {
		return false
	}

	matched := false
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "!") {
			continue
		}
		if matchAny(pattern, candidates) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "!") && matchAny(pattern[1:], candidates) {
			return false
		}
	}
	return true
}

func matchAny(pattern string, candidates []string) bool {
	for _, name := range candidates {
		if matchPattern(pattern, name) {
			return true
		}
	}
	return false
}

// matchPattern matches a glob-style pattern; an invalid pattern only matches literally
func matchPattern(pattern, name string) bool {
	pattern, name = strings.ToUpper(pattern), strings.ToUpper(name)
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return pattern == name
	}
	return matched
}
