// Package service implements the task operations on top of the store and the
// dependency graph engine.
//
// All writes that can add edges go through one mutex so a cycle check and the
// insert it approved cannot interleave with another request's check and
// insert. Reads never take the lock; each critical path computation works on
// its own fresh snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/todograph/internal/events"
	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/persistence"
)

var (
	// ErrNotFound means a referenced task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks input that failed validation.
	ErrInvalid = errors.New("invalid input")
	// ErrInconsistentGraph means stored edges form a cycle. Results computed
	// from such a graph are withheld.
	ErrInconsistentGraph = errors.New("dependency graph is inconsistent")
)

// Store is the persistence the service needs.
type Store interface {
	graph.PrerequisiteSource

	CreateTask(ctx context.Context, task graph.Task, prerequisites []int64, approve persistence.Approver) (graph.Task, error)
	GetTask(ctx context.Context, taskID int64) (*persistence.TaskRecord, error)
	TaskExists(ctx context.Context, taskID int64) (bool, error)
	ListTasks(ctx context.Context) ([]persistence.TaskRecord, error)
	DeleteTask(ctx context.Context, taskID int64) error
	AttachImage(ctx context.Context, taskID int64, img graph.Image) error

	InsertEdge(ctx context.Context, edge graph.Edge, approve persistence.Approver) error
	DeleteEdge(ctx context.Context, edge graph.Edge) (bool, error)
	Snapshot(ctx context.Context) (*graph.Snapshot, error)
}

// ImageFinder returns a photo for a task title, or nil. It must not fail.
type ImageFinder interface {
	Lookup(ctx context.Context, query string) *graph.Image
}

// Service coordinates task and dependency operations.
type Service struct {
	store  Store
	images ImageFinder
	bus    *events.EventBus

	writeMu sync.Mutex
	now     func() time.Time
}

// New creates a service. images and bus may be nil.
func New(store Store, images ImageFinder, bus *events.EventBus) *Service {
	return &Service{
		store:  store,
		images: images,
		bus:    bus,
		now:    time.Now,
	}
}

func (s *Service) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// requireTasks checks that every id exists, querying in parallel.
func (s *Service) requireTasks(ctx context.Context, ids ...int64) error {
	g, gctx := errgroup.WithContext(ctx)
	missing := make([]bool, len(ids))

	for i, id := range ids {
		g.Go(func() error {
			ok, err := s.store.TaskExists(gctx, id)
			if err != nil {
				return err
			}
			missing[i] = !ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("checking tasks: %w", err)
	}

	for i, m := range missing {
		if m {
			return fmt.Errorf("%w: task %d", ErrNotFound, ids[i])
		}
	}
	return nil
}

// translate maps store errors onto the service's error kinds.
func translate(err error) error {
	if errors.Is(err, persistence.ErrTaskNotFound) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
