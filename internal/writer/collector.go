package writer

import (
	"strings"

	"github.com/gitsnow/gitsnow/ir"
)

// PlanStep is one statement of a deployment plan together with its object
type PlanStep struct {
	SQL          string   `json:"sql"`
	ObjectType   string   `json:"object_type"`
	ObjectPath   string   `json:"object_path"`
	Source       string   `json:"source,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	External     []string `json:"external_references,omitempty"`
}

// DependencyLookup reports the known dependencies and external references of an object
type DependencyLookup interface {
	Dependencies(name string) []string
	ExternalReferences(name string) []ir.QualifiedName
}

// SQLCollector collects statements as plan steps instead of text
type SQLCollector struct {
	steps []PlanStep
	deps  DependencyLookup
}

// NewSQLCollector creates a new SQLCollector; deps may be nil
func NewSQLCollector(deps DependencyLookup) *SQLCollector {
	return &SQLCollector{
		steps: []PlanStep{},
		deps:  deps,
	}
}

// WriteStatementWithComment records stmt as the next plan step
func (c *SQLCollector) WriteStatementWithComment(obj *ir.SchemaObject, stmt string) error {
	step := PlanStep{
		SQL:        strings.TrimSpace(stmt),
		ObjectType: strings.ToLower(string(obj.Type)),
		ObjectPath: obj.Key(),
		Source:     obj.Origin,
	}
	if c.deps != nil {
		step.Dependencies = c.deps.Dependencies(obj.Key())
		for _, ref := range c.deps.ExternalReferences(obj.Key()) {
			step.External = append(step.External, ref.String())
		}
	}
	c.steps = append(c.steps, step)
	return nil
}

// GetSteps returns all collected plan steps
func (c *SQLCollector) GetSteps() []PlanStep {
	return c.steps
}
