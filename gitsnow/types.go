package gitsnow

import (
	"github.com/gitsnow/gitsnow/cmd/dbtofolder"
	"github.com/gitsnow/gitsnow/internal/graph"
	"github.com/gitsnow/gitsnow/internal/plan"
	"github.com/gitsnow/gitsnow/ir"
)

// Re-export important types for external consumption

// Plan is the dependency-ordered set of objects of a scripts directory.
type Plan = plan.Plan

// DbToFolderResult lists the files written and left unchanged by DbToFolder.
type DbToFolderResult = dbtofolder.Result

// SchemaObject is one table, view, dynamic table or materialized view.
type SchemaObject = ir.SchemaObject

// QualifiedName is a schema-qualified object name in canonical case.
type QualifiedName = ir.QualifiedName

// ObjectType is the kind of a SchemaObject.
type ObjectType = ir.ObjectType

// IgnoreConfig represents configuration for ignoring objects during operations.
type IgnoreConfig = ir.IgnoreConfig

// ParseError reports malformed or unrecognized DDL.
type ParseError = ir.ParseError

// GraphError reports a duplicate definition or a dependency cycle.
type GraphError = graph.GraphError
