package graph

import (
	"context"
	"fmt"
)

// PrerequisiteSource answers "which tasks does this task directly depend on".
// Unknown ids yield an empty list, not an error.
type PrerequisiteSource interface {
	Prerequisites(ctx context.Context, taskID int64) ([]int64, error)
}

// WouldCreateCycle reports whether adding successorID -> prerequisiteID would
// close a cycle. It walks everything prerequisiteID transitively depends on and
// answers true if successorID is among them. The error only carries source
// read failures; callers validate that both ids exist.
func WouldCreateCycle(ctx context.Context, src PrerequisiteSource, successorID, prerequisiteID int64) (bool, error) {
	if successorID == prerequisiteID {
		return true, nil
	}

	visited := make(map[int64]bool)
	stack := []int64{prerequisiteID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == successorID {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		if err := ctx.Err(); err != nil {
			return false, err
		}

		next, err := src.Prerequisites(ctx, current)
		if err != nil {
			return false, fmt.Errorf("loading prerequisites of task %d: %w", current, err)
		}
		for _, id := range next {
			if !visited[id] {
				stack = append(stack, id)
			}
		}
	}

	return false, nil
}

// Propose validates a new edge. It returns nil when the edge may be persisted,
// a *RejectionError wrapping ErrSelfDependency or ErrCycle when it must not,
// and any other error when the source could not be read.
func Propose(ctx context.Context, src PrerequisiteSource, successorID, prerequisiteID int64) error {
	if successorID == prerequisiteID {
		return reject(ErrSelfDependency, successorID, prerequisiteID)
	}

	cyclic, err := WouldCreateCycle(ctx, src, successorID, prerequisiteID)
	if err != nil {
		return err
	}
	if cyclic {
		return reject(ErrCycle, successorID, prerequisiteID)
	}
	return nil
}
