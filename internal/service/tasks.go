package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aristath/todograph/internal/events"
	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/logging"
	"github.com/aristath/todograph/internal/persistence"
)

// NewTask is the input for CreateTask.
type NewTask struct {
	Title             string
	DueDate           *time.Time
	EstimatedDuration *int    // Days; must be positive when set
	Dependencies      []int64 // Prerequisites, each checked by the cycle guard
}

// Validate trims the title and checks the fields.
func (n *NewTask) Validate() error {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if n.EstimatedDuration != nil && *n.EstimatedDuration <= 0 {
		return fmt.Errorf("%w: estimated duration must be a positive number of days", ErrInvalid)
	}
	return nil
}

// CreateTask stores a new task with its initial prerequisites and a stock
// photo when one is found. The task and its edges are stored together or not
// at all.
func (s *Service) CreateTask(ctx context.Context, in NewTask) (*persistence.TaskRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	deps := dedupe(in.Dependencies)
	if len(deps) > 0 {
		if err := s.requireTasks(ctx, deps...); err != nil {
			return nil, err
		}
	}

	task := graph.Task{
		Title:             in.Title,
		DueDate:           in.DueDate,
		EstimatedDuration: in.EstimatedDuration,
		CreatedAt:         s.now(),
	}
	if s.images != nil {
		task.Image = s.images.Lookup(ctx, in.Title)
	}

	s.writeMu.Lock()
	created, err := s.store.CreateTask(ctx, task, deps, graph.Propose)
	s.writeMu.Unlock()
	if err != nil {
		var rej *graph.RejectionError
		if errors.As(err, &rej) {
			logging.Info("Service", "rejected initial dependency: %v", rej)
		}
		return nil, translate(err)
	}

	logging.Info("Service", "created task %d %q with %d dependencies", created.ID, created.Title, len(deps))
	s.publish(events.TaskCreatedEvent{
		ID:            created.ID,
		Title:         created.Title,
		Prerequisites: deps,
		Timestamp:     s.now(),
	})
	if created.Image != nil {
		s.publish(events.TaskImageAttachedEvent{ID: created.ID, URL: created.Image.URL, Timestamp: s.now()})
	}

	rec, err := s.store.GetTask(ctx, created.ID)
	if err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

// GetTask returns one task with its neighbours.
func (s *Service) GetTask(ctx context.Context, taskID int64) (*persistence.TaskRecord, error) {
	rec, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

// ListTasks returns every task, newest first, with dependencies and dependents.
func (s *Service) ListTasks(ctx context.Context) ([]persistence.TaskRecord, error) {
	return s.store.ListTasks(ctx)
}

// DeleteTask removes a task together with every edge touching it.
func (s *Service) DeleteTask(ctx context.Context, taskID int64) error {
	s.writeMu.Lock()
	err := s.store.DeleteTask(ctx, taskID)
	s.writeMu.Unlock()
	if err != nil {
		return translate(err)
	}

	logging.Info("Service", "deleted task %d", taskID)
	s.publish(events.TaskDeletedEvent{ID: taskID, Timestamp: s.now()})
	return nil
}

// RefreshImage looks up a photo for an existing task and stores it.
// Returns the stored image, or nil when none was found.
func (s *Service) RefreshImage(ctx context.Context, taskID int64) (*graph.Image, error) {
	rec, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, translate(err)
	}
	if s.images == nil {
		return nil, nil
	}

	img := s.images.Lookup(ctx, rec.Title)
	if img == nil {
		return nil, nil
	}
	if err := s.store.AttachImage(ctx, taskID, *img); err != nil {
		return nil, translate(err)
	}

	s.publish(events.TaskImageAttachedEvent{ID: taskID, URL: img.URL, Timestamp: s.now()})
	return img, nil
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
