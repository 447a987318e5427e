package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/todograph/internal/events"
	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/logging"
)

// CriticalPath computes earliest starts and the critical path over a fresh
// snapshot. If the stored graph turns out to be cyclic the result is withheld
// and ErrInconsistentGraph is returned.
func (s *Service) CriticalPath(ctx context.Context) (*graph.Analysis, *graph.Snapshot, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reading graph: %w", err)
	}

	analysis := graph.Analyze(snap)
	s.publish(events.CriticalPathComputedEvent{
		Path:          analysis.CriticalPath,
		TotalDuration: analysis.TotalDuration,
		Tasks:         snap.Len(),
		Cyclic:        analysis.Cyclic,
		Timestamp:     s.now(),
	})

	if analysis.Cyclic {
		_, orderErr := graph.Order(snap)
		if orderErr == nil {
			orderErr = graph.ErrCycle
		}
		logging.Error("Graph", orderErr, "stored dependencies contain a cycle; critical path withheld (%d tasks)", snap.Len())
		return nil, snap, fmt.Errorf("%w: %w", ErrInconsistentGraph, orderErr)
	}

	logging.Debug("Graph", "critical path over %d tasks: %v (%d days)", snap.Len(), analysis.CriticalPath, analysis.TotalDuration)
	return analysis, snap, nil
}

// CheckResult is the outcome of an acyclicity check.
type CheckResult struct {
	Acyclic bool
	Order   []int64 // Prerequisites first; empty when cyclic
	Tasks   int
}

// Check verifies that the stored graph is acyclic.
func (s *Service) Check(ctx context.Context) (*CheckResult, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading graph: %w", err)
	}

	order, err := graph.Order(snap)
	if errors.Is(err, graph.ErrCycle) {
		logging.Error("Graph", err, "acyclicity check failed")
		return &CheckResult{Acyclic: false, Order: []int64{}, Tasks: snap.Len()}, nil
	}
	if err != nil {
		return nil, err
	}

	return &CheckResult{Acyclic: true, Order: order, Tasks: snap.Len()}, nil
}
