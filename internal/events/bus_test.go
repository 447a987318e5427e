package events

import (
	"errors"
	"testing"
	"time"
)

// TestPublishSubscribe verifies basic publish/subscribe functionality.
func TestPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := bus.Subscribe(TopicTask, 10)

	bus.Publish(TaskCreatedEvent{
		ID:            1,
		Title:         "Write report",
		Prerequisites: []int64{},
		Timestamp:     time.Now(),
	})

	select {
	case received := <-ch:
		if received.TaskID() != 1 {
			t.Errorf("expected task ID 1, got %d", received.TaskID())
		}
		if received.EventType() != EventTypeTaskCreated {
			t.Errorf("expected event type '%s', got '%s'", EventTypeTaskCreated, received.EventType())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
}

// TestMultipleSubscribers verifies multiple subscribers receive the same event.
func TestMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch1 := bus.Subscribe(TopicDependency, 10)
	ch2 := bus.Subscribe(TopicDependency, 10)

	bus.Publish(DependencyAddedEvent{SuccessorID: 2, PrerequisiteID: 1, Timestamp: time.Now()})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			if received.TaskID() != 2 {
				t.Errorf("subscriber %d: expected task ID 2, got %d", i+1, received.TaskID())
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("subscriber %d: timeout waiting for event", i+1)
		}
	}
}

// TestNonBlockingSend verifies that publishing doesn't block when channels are full.
func TestNonBlockingSend(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := bus.Subscribe(TopicTask, 1)

	done := make(chan bool)
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(TaskDeletedEvent{ID: int64(i + 1), Timestamp: time.Now()})
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("publisher blocked (expected non-blocking behavior)")
	}

	select {
	case received := <-ch:
		if received.TaskID() != 1 {
			t.Errorf("expected the first event to be kept, got task %d", received.TaskID())
		}
	default:
		t.Error("expected at least one event in buffer")
	}

	if got := bus.Dropped(); got != 9 {
		t.Errorf("Dropped() = %d, want 9", got)
	}
}

// TestCloseSignalsSubscribers verifies that closing the bus closes subscriber channels.
func TestCloseSignalsSubscribers(t *testing.T) {
	bus := NewEventBus()

	ch := bus.Subscribe(TopicTask, 10)
	bus.Close()

	received := 0
	for range ch {
		received++
	}

	if received != 0 {
		t.Errorf("expected 0 events after close, got %d", received)
	}

	// Subscribing to a closed bus yields a closed channel
	if _, ok := <-bus.SubscribeAll(1); ok {
		t.Error("expected closed channel from closed bus")
	}
}

// TestPublishAfterClose verifies publishing after close doesn't panic.
func TestPublishAfterClose(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(TopicTask, 10)

	bus.Close()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("publishing after close caused panic: %v", r)
		}
	}()

	bus.Publish(TaskDeletedEvent{ID: 1, Timestamp: time.Now()})

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event after bus was closed")
		}
	default:
	}
}

// TestMultipleTopics verifies topic isolation.
func TestMultipleTopics(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	depCh := bus.Subscribe(TopicDependency, 10)
	analysisCh := bus.Subscribe(TopicAnalysis, 10)

	bus.Publish(DependencyRejectedEvent{
		SuccessorID:    1,
		PrerequisiteID: 3,
		Reason:         errors.New("circular dependency"),
		Timestamp:      time.Now(),
	})
	bus.Publish(CriticalPathComputedEvent{
		Path:          []int64{1, 2, 3},
		TotalDuration: 6,
		Tasks:         3,
		Timestamp:     time.Now(),
	})

	select {
	case received := <-depCh:
		if received.EventType() != EventTypeDependencyRejected {
			t.Errorf("dependency channel: expected rejection, got %s", received.EventType())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("dependency channel: timeout waiting for event")
	}

	select {
	case received := <-analysisCh:
		if received.EventType() != EventTypeCriticalPathComputed {
			t.Errorf("analysis channel: expected critical path event, got %s", received.EventType())
		}
		if received.TaskID() != 0 {
			t.Errorf("graph-wide event should have task ID 0, got %d", received.TaskID())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("analysis channel: timeout waiting for event")
	}

	select {
	case <-depCh:
		t.Error("dependency channel received unexpected event")
	case <-time.After(10 * time.Millisecond):
	}

	select {
	case <-analysisCh:
		t.Error("analysis channel received unexpected event")
	case <-time.After(10 * time.Millisecond):
	}
}

// TestSubscribeAll verifies that SubscribeAll receives events from all topics.
func TestSubscribeAll(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	allCh := bus.SubscribeAll(20)

	bus.Publish(TaskImageAttachedEvent{ID: 4, URL: "https://img/4.jpg", Timestamp: time.Now()})
	bus.Publish(DependencyRemovedEvent{SuccessorID: 4, PrerequisiteID: 2, Timestamp: time.Now()})

	receivedTypes := make(map[string]bool)
	for i := 0; i < 2; i++ {
		select {
		case received := <-allCh:
			receivedTypes[received.EventType()] = true
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for event")
		}
	}

	if !receivedTypes[EventTypeTaskImageAttached] {
		t.Error("SubscribeAll did not receive task event")
	}
	if !receivedTypes[EventTypeDependencyRemoved] {
		t.Error("SubscribeAll did not receive dependency event")
	}

	select {
	case <-allCh:
		t.Error("received unexpected third event")
	case <-time.After(10 * time.Millisecond):
	}
}

// TestUnsubscribe verifies that an unsubscribed channel is closed and skipped.
func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	kept := bus.Subscribe(TopicTask, 10)
	gone := bus.Subscribe(TopicTask, 10)
	all := bus.SubscribeAll(10)

	bus.Unsubscribe(gone)
	bus.Unsubscribe(all)

	if _, ok := <-gone; ok {
		t.Error("unsubscribed topic channel should be closed")
	}
	if _, ok := <-all; ok {
		t.Error("unsubscribed all-topics channel should be closed")
	}

	bus.Publish(TaskDeletedEvent{ID: 9, Timestamp: time.Now()})

	select {
	case received := <-kept:
		if received.TaskID() != 9 {
			t.Errorf("expected task 9, got %d", received.TaskID())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("remaining subscriber missed the event")
	}

	// Unknown channels are ignored
	bus.Unsubscribe(make(chan Event))
}
