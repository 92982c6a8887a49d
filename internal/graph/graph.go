// Package graph builds the dependency graph between schema objects and
// sequences them for deployment.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gitsnow/gitsnow/internal/lineage"
	"github.com/gitsnow/gitsnow/internal/logger"
	"github.com/gitsnow/gitsnow/ir"
)

// Graph error kinds; match with errors.Is
var (
	ErrDuplicateObject  = errors.New("duplicate object")
	ErrCyclicDependency = errors.New("cyclic dependency")
)

// GraphError reports a duplicate definition or a dependency cycle
type GraphError struct {
	Kind error
	// Name is the object defined more than once
	Name    string
	Origins []string
	// Cycle is a closed path of qualified names; the first name is repeated last
	Cycle []string
}

func (e *GraphError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrCyclicDependency):
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Cycle, " -> "))
	case errors.Is(e.Kind, ErrDuplicateObject):
		return fmt.Sprintf("%s %s defined in %s", e.Kind, e.Name, strings.Join(e.Origins, " and "))
	}
	return e.Kind.Error()
}

func (e *GraphError) Unwrap() error {
	return e.Kind
}

// Graph holds every known object and the edges "dependent depends on dependency".
// References to names outside the set are kept as external references.
type Graph struct {
	objects      map[string]*ir.SchemaObject
	dependencies map[string][]string // dependent -> dependencies
	dependents   map[string][]string // dependency -> dependents
	external     map[string][]ir.QualifiedName
}

// SourcesFunc returns the names an object reads from
type SourcesFunc func(obj *ir.SchemaObject) ([]ir.QualifiedName, error)

// Build creates the graph for objects using lineage.Sources to find references
func Build(objects []*ir.SchemaObject) (*Graph, error) {
	return BuildWith(objects, lineage.Sources)
}

// BuildWith creates the graph using sources to find each object's references.
// The result does not depend on the order of objects.
func BuildWith(objects []*ir.SchemaObject, sources SourcesFunc) (*Graph, error) {
	if err := checkDuplicates(objects); err != nil {
		return nil, err
	}

	g := &Graph{
		objects:      make(map[string]*ir.SchemaObject, len(objects)),
		dependencies: make(map[string][]string, len(objects)),
		dependents:   make(map[string][]string, len(objects)),
		external:     make(map[string][]ir.QualifiedName),
	}
	for _, obj := range objects {
		g.objects[obj.Key()] = obj
	}

	log := logger.Get()
	for _, key := range g.Names() {
		obj := g.objects[key]
		refs, err := sources(obj)
		if err != nil {
			return nil, fmt.Errorf("extracting references of %s: %w", key, err)
		}
		for _, ref := range refs {
			refKey := ref.String()
			switch _, known := g.objects[refKey]; {
			case refKey == key:
				log.Warn("Ignoring self reference", "object", key, "origin", obj.Origin)
			case known:
				g.dependencies[key] = append(g.dependencies[key], refKey)
				g.dependents[refKey] = append(g.dependents[refKey], key)
			default:
				log.Debug("External reference", "object", key, "reference", refKey)
				g.external[key] = append(g.external[key], ref)
			}
		}
	}

	for key := range g.dependencies {
		sort.Strings(g.dependencies[key])
	}
	for key := range g.dependents {
		sort.Strings(g.dependents[key])
	}
	for key := range g.external {
		sort.Slice(g.external[key], func(i, j int) bool {
			return g.external[key][i].String() < g.external[key][j].String()
		})
	}

	return g, nil
}

// checkDuplicates reports the smallest qualified name defined more than once
func checkDuplicates(objects []*ir.SchemaObject) error {
	origins := make(map[string][]string)
	for _, obj := range objects {
		origins[obj.Key()] = append(origins[obj.Key()], obj.Origin)
	}

	var duplicates []string
	for key, list := range origins {
		if len(list) > 1 {
			duplicates = append(duplicates, key)
		}
	}
	if len(duplicates) == 0 {
		return nil
	}

	sort.Strings(duplicates)
	name := duplicates[0]
	list := append([]string(nil), origins[name]...)
	sort.Strings(list)
	return &GraphError{Kind: ErrDuplicateObject, Name: name, Origins: list}
}

// Len returns the number of objects
func (g *Graph) Len() int {
	return len(g.objects)
}

// Names returns every object's qualified name in ascending order
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.objects))
	for name := range g.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Objects returns every object ordered by qualified name
func (g *Graph) Objects() []*ir.SchemaObject {
	names := g.Names()
	objects := make([]*ir.SchemaObject, 0, len(names))
	for _, name := range names {
		objects = append(objects, g.objects[name])
	}
	return objects
}

// Object looks up an object by qualified name
func (g *Graph) Object(name string) (*ir.SchemaObject, bool) {
	obj, ok := g.objects[name]
	return obj, ok
}

// Dependencies returns the known objects name depends on
func (g *Graph) Dependencies(name string) []string {
	return g.dependencies[name]
}

// Dependents returns the known objects that depend on name
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// ExternalReferences returns the names referenced by name that no object defines
func (g *Graph) ExternalReferences(name string) []ir.QualifiedName {
	return g.external[name]
}

// AllExternalReferences returns every external name, deduplicated and sorted
func (g *Graph) AllExternalReferences() []ir.QualifiedName {
	seen := make(map[ir.QualifiedName]bool)
	var refs []ir.QualifiedName
	for _, list := range g.external {
		for _, ref := range list {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
	return refs
}

// Unreferenced returns the objects no other object depends on
func (g *Graph) Unreferenced() []string {
	var names []string
	for _, name := range g.Names() {
		if len(g.dependents[name]) == 0 {
			names = append(names, name)
		}
	}
	return names
}

// EdgeCount returns the number of dependency edges
func (g *Graph) EdgeCount() int {
	count := 0
	for _, deps := range g.dependencies {
		count += len(deps)
	}
	return count
}

// Schemas returns the distinct schemas of all objects
func (g *Graph) Schemas() []string {
	seen := make(map[string]bool)
	var schemas []string
	for _, obj := range g.objects {
		if !seen[obj.Name.Schema] {
			seen[obj.Name.Schema] = true
			schemas = append(schemas, obj.Name.Schema)
		}
	}
	sort.Strings(schemas)
	return schemas
}
