package graph

import (
	"fmt"

	"github.com/gammazero/toposort"
)

// Order returns the task IDs of the snapshot in topological order,
// prerequisites before their dependents. Returns an error wrapping ErrCycle if
// the acyclicity invariant has been broken. Prerequisites that are missing from
// the snapshot are ignored.
func Order(snap *Snapshot) ([]int64, error) {
	idx := snap.index()

	var edges []toposort.Edge
	for _, n := range snap.Nodes {
		linked := false
		for _, p := range n.Prerequisites {
			if _, ok := idx[p.ID]; !ok {
				continue
			}
			// Edge (prerequisite, task) means prerequisite comes first
			edges = append(edges, toposort.Edge{p.ID, n.Task.ID})
			linked = true
		}
		if !linked {
			// Anchor tasks without known prerequisites so they are included
			edges = append(edges, toposort.Edge{nil, n.Task.ID})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	order := make([]int64, 0, len(snap.Nodes))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(int64))
		}
	}

	if len(order) != len(snap.Nodes) {
		return nil, fmt.Errorf("%w: topological sort placed %d of %d tasks", ErrCycle, len(order), len(snap.Nodes))
	}

	return order, nil
}
