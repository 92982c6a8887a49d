package graph

import (
	"sort"

	"github.com/gitsnow/gitsnow/ir"
)

// Sequence orders all objects so each comes after every object it depends on.
// Among objects that are ready at the same step the smallest qualified name
// goes first, so the result is fully deterministic.
func (g *Graph) Sequence() ([]*ir.SchemaObject, error) {
	inDegree := make(map[string]int, len(g.objects))
	for name := range g.objects {
		inDegree[name] = len(g.dependencies[name])
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	result := make([]*ir.SchemaObject, 0, len(g.objects))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, g.objects[current])

		for _, dependent := range g.dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				sort.Strings(queue)
			}
		}
	}

	if len(result) < len(g.objects) {
		remaining := make(map[string]bool)
		for name, degree := range inDegree {
			if degree > 0 {
				remaining[name] = true
			}
		}
		return nil, &GraphError{Kind: ErrCyclicDependency, Cycle: g.findCycle(remaining)}
	}

	return result, nil
}

// findCycle walks dependencies among the unsequenced objects. Every one of them
// still waits on another, so a walk from the smallest name must close a loop.
func (g *Graph) findCycle(remaining map[string]bool) []string {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(remaining))
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = onPath
		path = append(path, name)
		for _, dep := range g.dependencies[name] {
			if !remaining[dep] {
				continue
			}
			switch state[dep] {
			case onPath:
				for i, n := range path {
					if n == dep {
						cycle = append(append([]string(nil), path[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return false
	}

	names := make([]string, 0, len(remaining))
	for name := range remaining {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if state[name] == unvisited && visit(name) {
			return cycle
		}
	}
	return nil
}
