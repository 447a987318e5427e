package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/todograph/internal/config"
	"github.com/aristath/todograph/internal/events"
	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/persistence"
	"github.com/aristath/todograph/internal/service"
)

type fakeBackend struct {
	tasks   []persistence.TaskRecord
	pathErr error
	added   []graph.Edge
	deleted []int64
}

func (f *fakeBackend) ListTasks(context.Context) ([]persistence.TaskRecord, error) {
	return f.tasks, nil
}

func (f *fakeBackend) CriticalPath(context.Context) (*graph.Analysis, *graph.Snapshot, error) {
	if f.pathErr != nil {
		return nil, nil, f.pathErr
	}
	tasks := make([]graph.Task, len(f.tasks))
	for i, t := range f.tasks {
		tasks[i] = t.Task
	}
	snap := graph.NewSnapshot(tasks, nil)
	return graph.Analyze(snap), snap, nil
}

func (f *fakeBackend) CreateTask(_ context.Context, in service.NewTask) (*persistence.TaskRecord, error) {
	return &persistence.TaskRecord{Task: graph.Task{ID: 99, Title: in.Title}}, nil
}

func (f *fakeBackend) DeleteTask(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) AddDependency(_ context.Context, succ, prereq int64) error {
	f.added = append(f.added, graph.Edge{SuccessorID: succ, PrerequisiteID: prereq})
	return nil
}

func (f *fakeBackend) RemoveDependency(context.Context, int64, int64) (bool, error) {
	return true, nil
}

func (f *fakeBackend) RefreshImage(context.Context, int64) (*graph.Image, error) {
	return nil, nil
}

func record(id int64, title string, deps ...int64) persistence.TaskRecord {
	rec := persistence.TaskRecord{Task: graph.Task{ID: id, Title: title}}
	for _, d := range deps {
		rec.Dependencies = append(rec.Dependencies, graph.Prerequisite{ID: d, Title: fmt.Sprintf("task %d", d)})
	}
	return rec
}

func testModel(t *testing.T, b *fakeBackend) Model {
	t.Helper()
	bus := events.NewEventBus()
	t.Cleanup(bus.Close)

	m := New(b, bus, config.DefaultConfig(), "", "")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated, _ = updated.Update(loadData(b)())
	return updated.(Model)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_SelectionFollowsKeys(t *testing.T) {
	b := &fakeBackend{tasks: []persistence.TaskRecord{record(2, "second"), record(1, "first")}}
	m := testModel(t, b)

	sel, ok := m.taskPane.Selected()
	if !ok || sel.ID != 2 {
		t.Fatalf("initial selection = %+v, want task 2", sel)
	}

	updated, _ := m.Update(key(KeyJ))
	m = updated.(Model)
	if sel, _ := m.taskPane.Selected(); sel.ID != 1 {
		t.Errorf("after j selection = %d, want 1", sel.ID)
	}

	// Reload keeps the selection on the same task.
	b.tasks = append([]persistence.TaskRecord{record(3, "third")}, b.tasks...)
	updated, _ = m.Update(loadData(b)())
	m = updated.(Model)
	if sel, _ := m.taskPane.Selected(); sel.ID != 1 {
		t.Errorf("after reload selection = %d, want 1", sel.ID)
	}
}

func TestModel_DependWithoutCandidates(t *testing.T) {
	b := &fakeBackend{tasks: []persistence.TaskRecord{record(1, "only")}}
	m := testModel(t, b)

	updated, _ := m.Update(key(KeyDepend))
	m = updated.(Model)

	if m.form != nil {
		t.Error("form opened with nothing to depend on")
	}
	if m.status != "No other task to depend on" {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_EscClosesForm(t *testing.T) {
	b := &fakeBackend{tasks: []persistence.TaskRecord{record(1, "a")}}
	m := testModel(t, b)

	updated, _ := m.Update(key(KeyAdd))
	m = updated.(Model)
	if m.form == nil || m.form.kind != formAddTask {
		t.Fatal("add form not opened")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.form != nil {
		t.Error("esc did not close the form")
	}
}

func TestModel_OpResultSetsStatus(t *testing.T) {
	m := testModel(t, &fakeBackend{})

	cycle := &graph.RejectionError{Kind: graph.ErrCycle, Edge: graph.Edge{SuccessorID: 1, PrerequisiteID: 2}}
	updated, _ := m.Update(opResultMsg{err: cycle})
	m = updated.(Model)

	if !m.statusErr {
		t.Error("expected error status")
	}
	if !strings.Contains(m.status, "circular dependency with task 2") {
		t.Errorf("status = %q", m.status)
	}
}

func TestLoadData_WithheldPath(t *testing.T) {
	b := &fakeBackend{
		tasks:   []persistence.TaskRecord{record(1, "a")},
		pathErr: fmt.Errorf("%w: %w", service.ErrInconsistentGraph, graph.ErrCycle),
	}

	msg := loadData(b)().(dataMsg)
	if msg.err != nil {
		t.Fatalf("unexpected error: %v", msg.err)
	}
	if len(msg.tasks) != 1 {
		t.Errorf("tasks = %d, want 1", len(msg.tasks))
	}
	if msg.analysis != nil {
		t.Error("analysis should be withheld")
	}
	if msg.pathErr == nil || !strings.Contains(msg.pathErr.Error(), "withheld") {
		t.Errorf("pathErr = %v", msg.pathErr)
	}
}

func TestFormSubmit(t *testing.T) {
	b := &fakeBackend{}
	tasks := []persistence.TaskRecord{record(1, "a"), record(2, "b", 3), record(3, "c")}

	f := newAddDependencyForm(tasks[1], tasks)
	if f == nil {
		t.Fatal("expected a form")
	}
	f.prereq = 1
	msg := f.submit(b)().(opResultMsg)
	if msg.err != nil {
		t.Fatalf("submit failed: %v", msg.err)
	}
	if len(b.added) != 1 || b.added[0] != (graph.Edge{SuccessorID: 2, PrerequisiteID: 1}) {
		t.Errorf("added = %v", b.added)
	}

	del := newDeleteTaskForm(tasks[0])
	if cmd := del.submit(b); cmd != nil {
		t.Error("unconfirmed delete should not run")
	}
	del.confirm = true
	del.submit(b)()
	if len(b.deleted) != 1 || b.deleted[0] != 1 {
		t.Errorf("deleted = %v", b.deleted)
	}

	if newRemoveDependencyForm(tasks[0]) != nil {
		t.Error("remove form for task without dependencies")
	}
}

func TestParseDueAndDuration(t *testing.T) {
	if due, err := parseDue(""); err != nil || due != nil {
		t.Errorf("empty due = %v, %v", due, err)
	}
	if due, err := parseDue("2026-03-01"); err != nil || due.Day() != 1 {
		t.Errorf("due = %v, %v", due, err)
	}
	if _, err := parseDue("March 1"); err == nil {
		t.Error("expected error for malformed date")
	}

	if d, err := parseDuration(" 3 "); err != nil || *d != 3 {
		t.Errorf("duration = %v, %v", d, err)
	}
	for _, bad := range []string{"0", "-2", "two"} {
		if _, err := parseDuration(bad); err == nil {
			t.Errorf("parseDuration(%q) should fail", bad)
		}
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&graph.RejectionError{Kind: graph.ErrSelfDependency}, "A task cannot depend on itself"},
		{fmt.Errorf("wrap: %w", persistence.ErrDuplicateEdge), "Dependency already exists"},
		{fmt.Errorf("%w: task 4", service.ErrNotFound), "Task not found"},
		{fmt.Errorf("%w: title is required", service.ErrInvalid), "title is required"},
		{errors.New("disk full"), "disk full"},
	}
	for _, tt := range tests {
		if got := describeError(tt.err); got != tt.want {
			t.Errorf("describeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRenderGantt(t *testing.T) {
	two, three := 2, 3
	snap := graph.NewSnapshot(
		[]graph.Task{
			{ID: 1, Title: "design", EstimatedDuration: &two},
			{ID: 2, Title: "build", EstimatedDuration: &three},
		},
		[]graph.Edge{{SuccessorID: 2, PrerequisiteID: 1}},
	)
	out := renderGantt(snap, graph.Analyze(snap), 40)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "design") || !strings.Contains(lines[0], "0+2") {
		t.Errorf("first row = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "build") || !strings.Contains(lines[1], "2+3") {
		t.Errorf("second row = %q", lines[1])
	}
}
