// Package domain contains the core domain models of the fingerprint engine.
package domain

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph is a resolved dependency graph of units.
type Graph struct {
	root           string
	units          map[string]Unit
	dependents     map[string][]string
	executionOrder []string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		units:      make(map[string]Unit),
		dependents: make(map[string][]string),
	}
}

// SetRoot sets the workspace root the graph was loaded from.
func (g *Graph) SetRoot(root string) {
	g.root = root
}

// Root returns the workspace root.
func (g *Graph) Root() string {
	return g.root
}

// AddUnit adds a unit to the graph.
// It returns an error if a unit with the same name already exists.
func (g *Graph) AddUnit(u *Unit) error {
	if _, exists := g.units[u.Name]; exists {
		return zerr.With(ErrUnitAlreadyExists, "unit", u.Name)
	}
	g.units[u.Name] = *u
	for _, dep := range u.Dependencies {
		g.dependents[dep.Unit] = append(g.dependents[dep.Unit], u.Name)
	}
	return nil
}

// GetUnit returns the unit with the given name.
func (g *Graph) GetUnit(name string) (Unit, bool) {
	u, ok := g.units[name]
	return u, ok
}

// UnitCount returns the number of units in the graph.
func (g *Graph) UnitCount() int {
	return len(g.units)
}

// Units returns an iterator over all units in name order.
func (g *Graph) Units() iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		for _, name := range slices.Sorted(maps.Keys(g.units)) {
			if !yield(g.units[name]) {
				return
			}
		}
	}
}

// Dependents returns the names of the units that depend on name.
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// Validate checks for missing dependencies and cycles using a topological sort.
// It populates the execution order if successful. Units are visited in name
// order so the resulting order is deterministic.
func (g *Graph) Validate() error {
	g.executionOrder = make([]string, 0, len(g.units))
	visited := make(map[string]int) // 0: unvisited, 1: visiting, 2: visited
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		visited[name] = 1
		path = append(path, name)

		unit, exists := g.units[name]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", name)
		}

		for _, dep := range unit.Dependencies {
			if visited[dep.Unit] == 1 {
				return g.buildCycleError(path, dep.Unit)
			}
			if visited[dep.Unit] == 0 {
				if err := visit(dep.Unit); err != nil {
					return err
				}
			}
		}

		visited[name] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, name)
		return nil
	}

	names := make([]string, 0, len(g.units))
	for name := range g.units {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []string, dep string) error {
	start := slices.Index(path, dep)
	cycle := append(slices.Clone(path[start:]), dep)
	return zerr.With(zerr.Wrap(ErrCycleDetected, ""), "cycle", strings.Join(cycle, " -> "))
}

// Walk returns an iterator that yields units in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.units[name]) {
				return
			}
		}
	}
}
