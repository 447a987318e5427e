package graph

import (
	"errors"
	"fmt"
)

var (
	ErrSelfDependency = errors.New("task cannot depend on itself")
	ErrCycle          = errors.New("circular dependency")
)

// RejectionError reports why a proposed edge was refused.
type RejectionError struct {
	Kind error
	Edge Edge
}

func (e *RejectionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: task %d -> task %d", e.Kind.Error(), e.Edge.SuccessorID, e.Edge.PrerequisiteID)
}

func (e *RejectionError) Unwrap() error { return e.Kind }

func reject(kind error, successorID, prerequisiteID int64) error {
	return &RejectionError{Kind: kind, Edge: Edge{SuccessorID: successorID, PrerequisiteID: prerequisiteID}}
}
