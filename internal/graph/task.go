package graph

import (
	"context"
	"time"
)

// DefaultDuration is used wherever a task has no usable estimate.
const DefaultDuration = 1

// Image is the stock photo attached to a task.
type Image struct {
	URL string
	Alt string
}

// Task represents a todo item, one node of the dependency graph.
type Task struct {
	ID                int64      // Assigned by the store
	Title             string     // Never empty
	DueDate           *time.Time // Optional
	EstimatedDuration *int       // Days; nil when unset
	Image             *Image     // Optional
	CreatedAt         time.Time
}

// Duration returns the estimated duration in days, or DefaultDuration.
func (t Task) Duration() int {
	return durationOf(t.EstimatedDuration)
}

// Edge means SuccessorID cannot start before PrerequisiteID completes.
type Edge struct {
	SuccessorID    int64
	PrerequisiteID int64
}

// Prerequisite is a prerequisite task as resolved for one of its dependents.
type Prerequisite struct {
	ID                int64
	Title             string
	EstimatedDuration *int
}

// Duration returns the prerequisite's duration in days, or DefaultDuration.
func (p Prerequisite) Duration() int {
	return durationOf(p.EstimatedDuration)
}

// Node is a task together with its resolved prerequisite list.
type Node struct {
	Task          Task
	Prerequisites []Prerequisite
}

// Snapshot is a request-scoped view of every task and its prerequisites.
// It reflects the store at the instant it was read and is never cached.
type Snapshot struct {
	Nodes []Node
}

// NewSnapshot builds a snapshot from flat task and edge lists.
// Node order follows the order of tasks. Edges whose prerequisite is not
// among tasks are kept with only the id filled in.
func NewSnapshot(tasks []Task, edges []Edge) *Snapshot {
	byID := make(map[int64]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	prereqs := make(map[int64][]Prerequisite)
	for _, e := range edges {
		p := Prerequisite{ID: e.PrerequisiteID}
		if t, ok := byID[e.PrerequisiteID]; ok {
			p.Title = t.Title
			p.EstimatedDuration = t.EstimatedDuration
		}
		prereqs[e.SuccessorID] = append(prereqs[e.SuccessorID], p)
	}

	snap := &Snapshot{Nodes: make([]Node, 0, len(tasks))}
	for _, t := range tasks {
		snap.Nodes = append(snap.Nodes, Node{Task: t, Prerequisites: prereqs[t.ID]})
	}
	return snap
}

// Prerequisites implements PrerequisiteSource over the snapshot.
func (s *Snapshot) Prerequisites(_ context.Context, taskID int64) ([]int64, error) {
	for _, n := range s.Nodes {
		if n.Task.ID != taskID {
			continue
		}
		ids := make([]int64, 0, len(n.Prerequisites))
		for _, p := range n.Prerequisites {
			ids = append(ids, p.ID)
		}
		return ids, nil
	}
	return nil, nil
}

// Len returns the number of tasks in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}

func (s *Snapshot) index() map[int64]*Node {
	idx := make(map[int64]*Node, len(s.Nodes))
	for i := range s.Nodes {
		idx[s.Nodes[i].Task.ID] = &s.Nodes[i]
	}
	return idx
}

func durationOf(d *int) int {
	if d == nil || *d <= 0 {
		return DefaultDuration
	}
	return *d
}
