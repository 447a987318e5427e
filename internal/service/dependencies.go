package service

import (
	"context"
	"errors"

	"github.com/aristath/todograph/internal/events"
	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/logging"
)

// AddDependency records that successorID depends on prerequisiteID.
//
// Errors, checked in this order: ErrNotFound when either task is missing,
// graph.ErrSelfDependency or graph.ErrCycle (as *graph.RejectionError) when
// the edge is refused, persistence.ErrDuplicateEdge when it already exists.
// Nothing is written unless the edge is accepted.
func (s *Service) AddDependency(ctx context.Context, successorID, prerequisiteID int64) error {
	if err := s.requireTasks(ctx, successorID, prerequisiteID); err != nil {
		return err
	}

	edge := graph.Edge{SuccessorID: successorID, PrerequisiteID: prerequisiteID}

	// Guard and insert run under the writer lock and inside one store transaction
	s.writeMu.Lock()
	err := s.store.InsertEdge(ctx, edge, graph.Propose)
	s.writeMu.Unlock()

	var rej *graph.RejectionError
	switch {
	case errors.As(err, &rej):
		logging.Info("Service", "rejected dependency: %v", rej)
		s.publish(events.DependencyRejectedEvent{
			SuccessorID:    successorID,
			PrerequisiteID: prerequisiteID,
			Reason:         rej.Kind,
			Timestamp:      s.now(),
		})
		return err
	case err != nil:
		return translate(err)
	}

	logging.Info("Service", "task %d now depends on task %d", successorID, prerequisiteID)
	s.publish(events.DependencyAddedEvent{
		SuccessorID:    successorID,
		PrerequisiteID: prerequisiteID,
		Timestamp:      s.now(),
	})
	return nil
}

// RemoveDependency deletes the edge if present. Removing an edge can never
// create a cycle, so no check runs. Reports whether an edge was removed.
func (s *Service) RemoveDependency(ctx context.Context, successorID, prerequisiteID int64) (bool, error) {
	removed, err := s.store.DeleteEdge(ctx, graph.Edge{SuccessorID: successorID, PrerequisiteID: prerequisiteID})
	if err != nil {
		return false, err
	}

	if removed {
		logging.Info("Service", "task %d no longer depends on task %d", successorID, prerequisiteID)
		s.publish(events.DependencyRemovedEvent{
			SuccessorID:    successorID,
			PrerequisiteID: prerequisiteID,
			Timestamp:      s.now(),
		})
	}
	return removed, nil
}

// WouldCreateCycle answers the guard question against the current store
// without writing anything.
func (s *Service) WouldCreateCycle(ctx context.Context, successorID, prerequisiteID int64) (bool, error) {
	return graph.WouldCreateCycle(ctx, s.store, successorID, prerequisiteID)
}
