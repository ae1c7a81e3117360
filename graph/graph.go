package graph

import (
	"fmt"
	"strings"

	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/stage"
)

// Graph is a validated pipeline: stages in declaration order with an
// acyclic dependency structure.
type Graph struct {
	stages []stage.Stage
	index  map[string]int
}

// New validates the stage list and builds a graph. All validation
// issues are collected and returned together in one error.
func New(stages []stage.Stage) (*Graph, error) {
	g := &Graph{
		stages: stages,
		index:  make(map[string]int, len(stages)),
	}

	var issues []string

	for i, s := range stages {
		if s.Name == "" {
			issues = append(issues, fmt.Sprintf("stage %d has no name", i))
			continue
		}
		if _, dup := g.index[s.Name]; dup {
			issues = append(issues, fmt.Sprintf("duplicate stage name %q", s.Name))
			continue
		}
		g.index[s.Name] = i
	}

	for _, s := range stages {
		for _, dep := range s.DependsOn {
			if dep == s.Name {
				issues = append(issues, fmt.Sprintf("stage %q depends on itself", s.Name))
				continue
			}
			if _, ok := g.index[dep]; !ok {
				issues = append(issues, fmt.Sprintf("stage %q depends on unknown stage %q", s.Name, dep))
			}
		}
	}

	if cycle := g.findCycle(); len(cycle) > 0 {
		issues = append(issues, fmt.Sprintf("cyclic dependency: %s", strings.Join(cycle, " -> ")))
	}

	if len(issues) > 0 {
		return nil, goerrors.ValidationIssues(issues)
	}
	return g, nil
}

// Stages returns the stages in declaration order.
func (g *Graph) Stages() []stage.Stage {
	return g.stages
}

// Stage looks up a stage by name.
func (g *Graph) Stage(name string) (stage.Stage, bool) {
	i, ok := g.index[name]
	if !ok {
		return stage.Stage{}, false
	}
	return g.stages[i], true
}

// Len returns the number of stages.
func (g *Graph) Len() int {
	return len(g.stages)
}

// Levels groups stages by dependency depth using Kahn's algorithm.
// Stages within a level have no ordering between them and could run in
// parallel; levels and their members are in declaration order.
func (g *Graph) Levels() [][]string {
	inDegree := make(map[string]int, len(g.stages))
	dependents := make(map[string][]string)

	for _, s := range g.stages {
		inDegree[s.Name] += 0
		for _, dep := range s.DependsOn {
			inDegree[s.Name]++
			dependents[dep] = append(dependents[dep], s.Name)
		}
	}

	var queue []string
	for _, s := range g.stages {
		if inDegree[s.Name] == 0 {
			queue = append(queue, s.Name)
		}
	}

	var levels [][]string
	for len(queue) > 0 {
		levels = append(levels, queue)

		ready := make(map[string]bool, len(queue))
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					ready[dep] = true
				}
			}
		}

		// Rebuild the next level in declaration order.
		var next []string
		for _, s := range g.stages {
			if ready[s.Name] {
				next = append(next, s.Name)
			}
		}
		queue = next
	}

	return levels
}

// findCycle looks for a dependency cycle and returns its path, e.g.
// ["lint", "test", "lint"]. Unknown and self dependencies are skipped;
// they are reported separately.
func (g *Graph) findCycle() []string {
	const (
		white = iota // unvisited
		gray         // on the current path
		black        // fully explored
	)

	color := make(map[string]int, len(g.stages))
	var path []string
	var cycle []string

	var visit func(name string)
	visit = func(name string) {
		if cycle != nil {
			return
		}
		color[name] = gray
		path = append(path, name)

		i := g.index[name]
		for _, dep := range g.stages[i].DependsOn {
			if dep == name {
				continue
			}
			if _, ok := g.index[dep]; !ok {
				continue
			}
			switch color[dep] {
			case white:
				visit(dep)
			case gray:
				// Close the loop from the first occurrence of dep.
				for j, n := range path {
					if n == dep {
						cycle = append(append([]string{}, path[j:]...), dep)
						return
					}
				}
			}
			if cycle != nil {
				return
			}
		}

		color[name] = black
		path = path[:len(path)-1]
	}

	for _, s := range g.stages {
		if _, ok := g.index[s.Name]; !ok {
			continue
		}
		if color[s.Name] == white {
			visit(s.Name)
		}
		if cycle != nil {
			break
		}
	}
	return cycle
}
