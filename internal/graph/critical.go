package graph

import (
	"slices"
)

// Analysis is the outcome of a critical path computation over one snapshot.
type Analysis struct {
	EarliestStart map[int64]int // Task ID -> earliest start offset in days
	CriticalPath  []int64       // Root-to-sink order
	TotalDuration int           // Sum of durations along CriticalPath

	// Cyclic is set when either pass ran into a cycle. The other fields are
	// then meaningless and must not be shown to users.
	Cyclic bool
}

// OnCriticalPath reports whether the task is part of the critical path.
func (a *Analysis) OnCriticalPath(taskID int64) bool {
	return a != nil && slices.Contains(a.CriticalPath, taskID)
}

// Analyze runs both passes over the snapshot. The passes are independent:
// EarliestStart values are reported alongside, but CriticalPath comes only from
// LongestPath's enumeration.
func Analyze(snap *Snapshot) *Analysis {
	if snap == nil {
		snap = &Snapshot{}
	}

	start, cyclicStart := EarliestStart(snap)
	path, total, cyclicPath := LongestPath(snap)

	return &Analysis{
		EarliestStart: start,
		CriticalPath:  path,
		TotalDuration: total,
		Cyclic:        cyclicStart || cyclicPath,
	}
}

type visitState int

const (
	unvisited visitState = iota
	expanded
	finished
)

// EarliestStart computes, for every task, the maximum over its prerequisites
// of (prerequisite start + prerequisite duration), or 0 without prerequisites.
// Each task is evaluated once. Prerequisites missing from the snapshot count as
// starting at 0 with their recorded duration. The second return value is true
// when a cycle was met; evaluation still terminates.
func EarliestStart(snap *Snapshot) (map[int64]int, bool) {
	idx := snap.index()
	start := make(map[int64]int, len(snap.Nodes))
	state := make(map[int64]visitState, len(snap.Nodes))
	cyclic := false

	for _, root := range snap.Nodes {
		if state[root.Task.ID] == finished {
			continue
		}

		stack := []int64{root.Task.ID}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			node := idx[id]

			switch state[id] {
			case finished:
				stack = stack[:len(stack)-1]

			case unvisited:
				// Leave the node on the stack; it is finalized once every
				// prerequisite pushed above it has been.
				state[id] = expanded
				for i := len(node.Prerequisites) - 1; i >= 0; i-- {
					p := node.Prerequisites[i].ID
					if _, ok := idx[p]; !ok {
						continue
					}
					switch state[p] {
					case unvisited:
						stack = append(stack, p)
					case expanded:
						// p is still being evaluated below us: it depends on id.
						cyclic = true
					}
				}

			case expanded:
				es := 0
				for _, p := range node.Prerequisites {
					if end := start[p.ID] + p.Duration(); end > es {
						es = end
					}
				}
				start[id] = es
				state[id] = finished
				stack = stack[:len(stack)-1]
			}
		}
	}

	return start, cyclic
}

type pathFrame struct {
	id    int64
	path  []int64 // Members before id
	total int     // Duration of path
}

// LongestPath enumerates every path from a root (a task without prerequisites)
// to a sink (a task nothing depends on), following edges from prerequisite to
// dependent, and returns the one with the largest summed duration. The first
// path discovered wins ties. Roots and dependents are visited in snapshot
// order. The third return value is true when a cycle was met.
func LongestPath(snap *Snapshot) ([]int64, int, bool) {
	idx := snap.index()
	dependents := dependentsOf(snap)

	best := []int64{}
	bestTotal := 0
	cyclic := false

	for _, root := range snap.Nodes {
		if len(root.Prerequisites) > 0 {
			continue
		}

		stack := []pathFrame{{id: root.Task.ID}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			path := append(slices.Clone(f.path), f.id)
			total := f.total + idx[f.id].Task.Duration()

			next := dependents[f.id]
			if len(next) == 0 {
				if total > bestTotal {
					bestTotal = total
					best = path
				}
				continue
			}

			// Push in reverse so the first dependent is explored first.
			for i := len(next) - 1; i >= 0; i-- {
				if slices.Contains(path, next[i]) {
					cyclic = true
					continue
				}
				stack = append(stack, pathFrame{id: next[i], path: path, total: total})
			}
		}
	}

	return best, bestTotal, cyclic
}

// dependentsOf inverts the prerequisite lists, keeping snapshot order.
func dependentsOf(snap *Snapshot) map[int64][]int64 {
	dependents := make(map[int64][]int64)
	for _, n := range snap.Nodes {
		seen := make(map[int64]bool, len(n.Prerequisites))
		for _, p := range n.Prerequisites {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			dependents[p.ID] = append(dependents[p.ID], n.Task.ID)
		}
	}
	return dependents
}
