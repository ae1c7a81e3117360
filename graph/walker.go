package graph

import "github.com/kbukum/gatekit/stage"

// Walker hands out ready stages batch by batch. It tracks only what it
// has handed out; the caller decides when a dependency counts as
// satisfied and reports that back through Next.
type Walker struct {
	g       *Graph
	started map[string]bool
}

// Walk starts a traversal of the graph.
func (g *Graph) Walk() *Walker {
	return &Walker{
		g:       g,
		started: make(map[string]bool, len(g.stages)),
	}
}

// Next returns the unstarted stages whose dependencies are all
// satisfied, in declaration order, and marks them started. An empty
// result with stages remaining means the caller must satisfy more
// dependencies first (or, after a failure, that the rest are
// unreachable).
func (w *Walker) Next(satisfied map[string]bool) []stage.Stage {
	var batch []stage.Stage
	for _, s := range w.g.stages {
		if w.started[s.Name] {
			continue
		}
		if s.Ready(satisfied) {
			w.started[s.Name] = true
			batch = append(batch, s)
		}
	}
	return batch
}

// Remaining lists the stages not yet handed out, in declaration order.
// After a halt these are the stages to mark skipped.
func (w *Walker) Remaining() []string {
	var names []string
	for _, s := range w.g.stages {
		if !w.started[s.Name] {
			names = append(names, s.Name)
		}
	}
	return names
}
