package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Topic() string
	TaskID() int64 // Primary task the event is about; 0 for graph-wide events
}

// Topic constants
const (
	TopicTask       = "task"
	TopicDependency = "dependency"
	TopicAnalysis   = "analysis"
)

// Event type constants
const (
	EventTypeTaskCreated          = "task.created"
	EventTypeTaskDeleted          = "task.deleted"
	EventTypeTaskImageAttached    = "task.image_attached"
	EventTypeDependencyAdded      = "dependency.added"
	EventTypeDependencyRemoved    = "dependency.removed"
	EventTypeDependencyRejected   = "dependency.rejected"
	EventTypeCriticalPathComputed = "analysis.critical_path"
)

// TaskCreatedEvent is published after a task and its initial edges are stored.
type TaskCreatedEvent struct {
	ID            int64
	Title         string
	Prerequisites []int64
	Timestamp     time.Time
}

func (e TaskCreatedEvent) EventType() string { return EventTypeTaskCreated }
func (e TaskCreatedEvent) Topic() string     { return TopicTask }
func (e TaskCreatedEvent) TaskID() int64     { return e.ID }

// TaskDeletedEvent is published after a task (and its edges) are removed.
type TaskDeletedEvent struct {
	ID        int64
	Timestamp time.Time
}

func (e TaskDeletedEvent) EventType() string { return EventTypeTaskDeleted }
func (e TaskDeletedEvent) Topic() string     { return TopicTask }
func (e TaskDeletedEvent) TaskID() int64     { return e.ID }

// TaskImageAttachedEvent is published when a stock photo was found for a task.
type TaskImageAttachedEvent struct {
	ID        int64
	URL       string
	Timestamp time.Time
}

func (e TaskImageAttachedEvent) EventType() string { return EventTypeTaskImageAttached }
func (e TaskImageAttachedEvent) Topic() string     { return TopicTask }
func (e TaskImageAttachedEvent) TaskID() int64     { return e.ID }

// DependencyAddedEvent is published when an edge is persisted.
type DependencyAddedEvent struct {
	SuccessorID    int64
	PrerequisiteID int64
	Timestamp      time.Time
}

func (e DependencyAddedEvent) EventType() string { return EventTypeDependencyAdded }
func (e DependencyAddedEvent) Topic() string     { return TopicDependency }
func (e DependencyAddedEvent) TaskID() int64     { return e.SuccessorID }

// DependencyRemovedEvent is published when an existing edge is deleted.
type DependencyRemovedEvent struct {
	SuccessorID    int64
	PrerequisiteID int64
	Timestamp      time.Time
}

func (e DependencyRemovedEvent) EventType() string { return EventTypeDependencyRemoved }
func (e DependencyRemovedEvent) Topic() string     { return TopicDependency }
func (e DependencyRemovedEvent) TaskID() int64     { return e.SuccessorID }

// DependencyRejectedEvent is published when a proposed edge is refused.
type DependencyRejectedEvent struct {
	SuccessorID    int64
	PrerequisiteID int64
	Reason         error
	Timestamp      time.Time
}

func (e DependencyRejectedEvent) EventType() string { return EventTypeDependencyRejected }
func (e DependencyRejectedEvent) Topic() string     { return TopicDependency }
func (e DependencyRejectedEvent) TaskID() int64     { return e.SuccessorID }

// CriticalPathComputedEvent is published after each critical path computation.
type CriticalPathComputedEvent struct {
	Path          []int64
	TotalDuration int
	Tasks         int
	Cyclic        bool
	Timestamp     time.Time
}

func (e CriticalPathComputedEvent) EventType() string { return EventTypeCriticalPathComputed }
func (e CriticalPathComputedEvent) Topic() string     { return TopicAnalysis }
func (e CriticalPathComputedEvent) TaskID() int64     { return 0 }
