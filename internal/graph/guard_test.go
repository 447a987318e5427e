package graph

import (
	"context"
	"errors"
	"testing"
)

// countingSource wraps a snapshot and records how often each task is queried.
type countingSource struct {
	snap  *Snapshot
	calls map[int64]int
}

func newCountingSource(snap *Snapshot) *countingSource {
	return &countingSource{snap: snap, calls: make(map[int64]int)}
}

func (c *countingSource) Prerequisites(ctx context.Context, taskID int64) ([]int64, error) {
	c.calls[taskID]++
	return c.snap.Prerequisites(ctx, taskID)
}

type failingSource struct{}

func (failingSource) Prerequisites(context.Context, int64) ([]int64, error) {
	return nil, errors.New("database is locked")
}

func tasks(ids ...int64) []Task {
	out := make([]Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, Task{ID: id, Title: "task"})
	}
	return out
}

// dependsOn builds edges from successor/prerequisite pairs.
func dependsOn(pairs ...[2]int64) []Edge {
	out := make([]Edge, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Edge{SuccessorID: p[0], PrerequisiteID: p[1]})
	}
	return out
}

const (
	taskA int64 = iota + 1
	taskB
	taskC
	taskD
	taskE
)

func TestWouldCreateCycle(t *testing.T) {
	chain := NewSnapshot(tasks(taskA, taskB, taskC, taskD, taskE),
		dependsOn([2]int64{taskA, taskB}, [2]int64{taskB, taskC}, [2]int64{taskC, taskD}))
	diamond := NewSnapshot(tasks(taskA, taskB, taskC, taskD, taskE),
		dependsOn([2]int64{taskA, taskB}, [2]int64{taskA, taskC}, [2]int64{taskB, taskD}, [2]int64{taskC, taskD}))
	direct := NewSnapshot(tasks(taskA, taskB), dependsOn([2]int64{taskA, taskB}))
	empty := NewSnapshot(nil, nil)

	tests := []struct {
		name         string
		snap         *Snapshot
		successor    int64
		prerequisite int64
		want         bool
	}{
		{"self loop on empty graph", empty, taskA, taskA, true},
		{"self loop on populated graph", chain, taskC, taskC, true},
		{"direct cycle", direct, taskB, taskA, true},
		{"direct edge already present in same direction", direct, taskA, taskB, false},
		{"transitive cycle to head", chain, taskD, taskA, true},
		{"transitive cycle to middle", chain, taskD, taskB, true},
		{"unrelated edge onto chain head", chain, taskE, taskA, false},
		{"shortcut along chain", chain, taskA, taskD, false},
		{"diamond sink onto new task", diamond, taskD, taskE, false},
		{"new task onto diamond top", diamond, taskE, taskA, false},
		{"diamond sink onto top", diamond, taskD, taskA, true},
		{"diamond side onto top", diamond, taskC, taskA, true},
		{"unknown tasks", empty, 41, 42, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WouldCreateCycle(context.Background(), tt.snap, tt.successor, tt.prerequisite)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("WouldCreateCycle(%d, %d) = %v, want %v", tt.successor, tt.prerequisite, got, tt.want)
			}
		})
	}
}

func TestWouldCreateCycle_SelfLoopSkipsTraversal(t *testing.T) {
	src := newCountingSource(NewSnapshot(tasks(taskA), nil))

	got, err := WouldCreateCycle(context.Background(), src, taskA, taskA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("expected self loop to be reported as a cycle")
	}
	if len(src.calls) != 0 {
		t.Errorf("expected no source queries, got %v", src.calls)
	}
}

func TestWouldCreateCycle_DiamondVisitsEachTaskOnce(t *testing.T) {
	// E depends on A, A on B and C, both on D
	snap := NewSnapshot(tasks(taskA, taskB, taskC, taskD, taskE),
		dependsOn([2]int64{taskE, taskA}, [2]int64{taskA, taskB}, [2]int64{taskA, taskC}, [2]int64{taskB, taskD}, [2]int64{taskC, taskD}))
	src := newCountingSource(snap)

	got, err := WouldCreateCycle(context.Background(), src, 99, taskE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("expected no cycle")
	}
	for id, n := range src.calls {
		if n != 1 {
			t.Errorf("task %d queried %d times, want 1", id, n)
		}
	}
	if len(src.calls) != 5 {
		t.Errorf("expected 5 tasks queried, got %d", len(src.calls))
	}
}

func TestWouldCreateCycle_TerminatesOnCyclicGraph(t *testing.T) {
	// A <-> B already broken; asking about an unrelated task must still return
	snap := NewSnapshot(tasks(taskA, taskB, taskC), dependsOn([2]int64{taskA, taskB}, [2]int64{taskB, taskA}))

	got, err := WouldCreateCycle(context.Background(), snap, taskC, taskA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("expected no cycle through C")
	}
}

func TestWouldCreateCycle_SourceError(t *testing.T) {
	_, err := WouldCreateCycle(context.Background(), failingSource{}, taskA, taskB)
	if err == nil {
		t.Fatal("expected error from failing source")
	}
}

func TestWouldCreateCycle_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WouldCreateCycle(ctx, NewSnapshot(tasks(taskA, taskB), nil), taskA, taskB)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPropose(t *testing.T) {
	snap := NewSnapshot(tasks(taskA, taskB, taskC), dependsOn([2]int64{taskA, taskB}, [2]int64{taskB, taskC}))
	ctx := context.Background()

	if err := Propose(ctx, snap, taskA, taskA); !errors.Is(err, ErrSelfDependency) {
		t.Errorf("self dependency: got %v, want ErrSelfDependency", err)
	}

	if err := Propose(ctx, snap, taskA, taskC); err != nil {
		t.Errorf("shortcut edge should be accepted, got %v", err)
	}

	// Rejection is stable when nothing changes between attempts
	for i := 0; i < 2; i++ {
		err := Propose(ctx, snap, taskC, taskA)
		if !errors.Is(err, ErrCycle) {
			t.Fatalf("attempt %d: got %v, want ErrCycle", i+1, err)
		}
		var rej *RejectionError
		if !errors.As(err, &rej) {
			t.Fatalf("attempt %d: expected *RejectionError, got %T", i+1, err)
		}
		if rej.Edge.SuccessorID != taskC || rej.Edge.PrerequisiteID != taskA {
			t.Errorf("attempt %d: rejected edge = %+v", i+1, rej.Edge)
		}
	}
}

func TestWouldCreateCycle_SelfLoopAlwaysTrue(t *testing.T) {
	snap := NewSnapshot(tasks(taskA, taskB), dependsOn([2]int64{taskA, taskB}))
	for _, id := range []int64{0, taskA, taskB, 1 << 40, -7} {
		got, err := WouldCreateCycle(context.Background(), snap, id, id)
		if err != nil || !got {
			t.Errorf("WouldCreateCycle(%d, %d) = %v, %v; want true, nil", id, id, got, err)
		}
	}
}
