// Package plan runs the folder-to-script pipeline: parse every script file,
// build the dependency graph, sequence it and render the result.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gitsnow/gitsnow/internal/color"
	"github.com/gitsnow/gitsnow/internal/fingerprint"
	"github.com/gitsnow/gitsnow/internal/format"
	"github.com/gitsnow/gitsnow/internal/graph"
	"github.com/gitsnow/gitsnow/internal/logger"
	"github.com/gitsnow/gitsnow/internal/source"
	"github.com/gitsnow/gitsnow/internal/version"
	"github.com/gitsnow/gitsnow/internal/writer"
	"github.com/gitsnow/gitsnow/ir"
)

// Options configures how a plan is built and rendered
type Options struct {
	// Database is only shown in the script header
	Database string
	// Workers bounds parallel parsing; zero means one per CPU
	Workers   int
	Ignore    *ir.IgnoreConfig
	Formatter format.Formatter
	// IncludeComments adds an "-- Object:" line above each statement
	IncludeComments bool
}

// Plan is the deployment order of a set of script files
type Plan struct {
	Database    string
	Graph       *graph.Graph
	Sequence    []*ir.SchemaObject
	Fingerprint *fingerprint.SchemaFingerprint

	formatter       format.Formatter
	includeComments bool
}

// PlanJSON represents the structured JSON output format
type PlanJSON struct {
	Version            string            `json:"version"`
	GitsnowVersion     string            `json:"gitsnow_version"`
	Database           string            `json:"database,omitempty"`
	Fingerprint        string            `json:"fingerprint"`
	Summary            PlanSummary       `json:"summary"`
	Steps              []writer.PlanStep `json:"steps"`
	ExternalReferences []string          `json:"external_references,omitempty"`
}

// PlanSummary provides counts of objects by type
type PlanSummary struct {
	Total   int            `json:"total"`
	Schemas []string       `json:"schemas"`
	ByType  map[string]int `json:"by_type"`
}

// ParseFiles parses files in parallel. Each file's unqualified names take
// the schema of its folder. Objects are returned in file order and the first
// parse error cancels the remaining work.
func ParseFiles(ctx context.Context, files []source.File, workers int, ignore *ir.IgnoreConfig) ([]*ir.SchemaObject, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([][]*ir.SchemaObject, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parser := ir.NewParser(source.DefaultSchema(file.Path), ignore)
			objects, err := parser.ParseScript(file.Path, file.Text)
			if err != nil {
				errs[i] = err
				return err
			}
			if len(objects) == 0 {
				logger.Get().Debug("File defines no objects", "file", file.Path)
			}
			results[i] = objects
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// report the failing file that comes first rather than whichever finished first
		for _, fileErr := range errs {
			if fileErr != nil {
				return nil, fileErr
			}
		}
		return nil, err
	}

	var objects []*ir.SchemaObject
	for _, list := range results {
		objects = append(objects, list...)
	}
	return objects, nil
}

// Build parses files and sequences the objects they define
func Build(ctx context.Context, files []source.File, opts Options) (*Plan, error) {
	objects, err := ParseFiles(ctx, files, opts.Workers, opts.Ignore)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("Parsed script files", "files", len(files), "objects", len(objects))
	return FromObjects(objects, opts)
}

// FromObjects sequences already parsed objects
func FromObjects(objects []*ir.SchemaObject, opts Options) (*Plan, error) {
	g, err := graph.Build(objects)
	if err != nil {
		return nil, err
	}
	sequence, err := g.Sequence()
	if err != nil {
		return nil, err
	}
	fp, err := fingerprint.ComputeFingerprint(objects)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Database:        opts.Database,
		Graph:           g,
		Sequence:        sequence,
		Fingerprint:     fp,
		formatter:       opts.Formatter,
		includeComments: opts.IncludeComments,
	}, nil
}

// CheckFingerprint fails unless the plan's fingerprint starts with expected
func (p *Plan) CheckFingerprint(expected string) error {
	return fingerprint.Compare(expected, p.Fingerprint)
}

// ToSQL renders the deployment script
func (p *Plan) ToSQL(ctx context.Context) (string, error) {
	w := writer.NewScriptWriter(p.includeComments)
	w.WriteHeader(writer.ScriptHeader{
		Database:    p.Database,
		Objects:     len(p.Sequence),
		Fingerprint: p.Fingerprint.Short(),
	})
	w.WriteSchemas(p.Graph.Schemas())
	if err := writer.Emit(ctx, w, p.Sequence, p.formatter); err != nil {
		return "", err
	}
	return w.String(), nil
}

// ToJSON returns the plan as structured JSON
func (p *Plan) ToJSON(ctx context.Context) (string, error) {
	collector := writer.NewSQLCollector(p.Graph)
	if err := writer.Emit(ctx, collector, p.Sequence, p.formatter); err != nil {
		return "", err
	}

	planJSON := &PlanJSON{
		Version:        "1.0.0",
		GitsnowVersion: version.App(),
		Database:       p.Database,
		Fingerprint:    p.Fingerprint.Hash,
		Summary:        p.summary(),
		Steps:          collector.GetSteps(),
	}
	for _, ref := range p.Graph.AllExternalReferences() {
		planJSON.ExternalReferences = append(planJSON.ExternalReferences, ref.String())
	}

	data, err := json.MarshalIndent(planJSON, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan to JSON: %w", err)
	}
	return string(data), nil
}

func (p *Plan) summary() PlanSummary {
	s := PlanSummary{
		Total:   len(p.Sequence),
		Schemas: p.Graph.Schemas(),
		ByType:  make(map[string]int),
	}
	for _, obj := range p.Sequence {
		s.ByType[obj.Type.Dir()]++
	}
	return s
}

// HumanColored returns a human-readable summary of the plan with color support
func (p *Plan) HumanColored(enableColor bool) string {
	c := color.New(enableColor)
	var summary strings.Builder

	if len(p.Sequence) == 0 {
		summary.WriteString("No objects found.\n")
		return summary.String()
	}

	external := p.Graph.AllExternalReferences()
	summary.WriteString(c.FormatPlanHeader(len(p.Sequence), len(p.Graph.Schemas()), len(external)) + "\n\n")

	s := p.summary()
	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	summary.WriteString(c.Bold("Summary by type:") + "\n")
	for _, t := range types {
		summary.WriteString(fmt.Sprintf("  %s: %d\n", t, s.ByType[t]))
	}
	summary.WriteString("\n")

	summary.WriteString(c.Bold("Deployment order:") + "\n")
	for i, obj := range p.Sequence {
		summary.WriteString(c.FormatObjectLine(i+1, string(obj.Type), obj.Key()))
		if deps := p.Graph.Dependencies(obj.Key()); len(deps) > 0 {
			colored := make([]string, len(deps))
			for j, dep := range deps {
				colored[j] = c.Dependency(dep)
			}
			summary.WriteString(" <- " + strings.Join(colored, ", "))
		}
		summary.WriteString("\n")
	}
	summary.WriteString("\n")

	if len(external) > 0 {
		summary.WriteString(c.Bold("External references:") + "\n")
		for _, ref := range external {
			summary.WriteString("  " + c.External(ref.String()) + "\n")
		}
		summary.WriteString("\n")
	}

	summary.WriteString(p.Fingerprint.String() + "\n")
	return summary.String()
}
