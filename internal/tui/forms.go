package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/persistence"
	"github.com/aristath/todograph/internal/service"
)

// opTimeout bounds every backend call made from the TUI.
const opTimeout = 15 * time.Second

// opResultMsg reports the outcome of a form submission.
type opResultMsg struct {
	status string
	err    error
}

type formKind int

const (
	formAddTask formKind = iota
	formAddDependency
	formRemoveDependency
	formDeleteTask
)

// taskForm is a modal huh form together with the values it binds.
type taskForm struct {
	kind   formKind
	form   *huh.Form
	target persistence.TaskRecord

	title    string
	due      string
	duration string
	deps     []int64
	prereq   int64
	confirm  bool
}

func newAddTaskForm(tasks []persistence.TaskRecord) *taskForm {
	f := &taskForm{kind: formAddTask}

	fields := []huh.Field{
		huh.NewInput().
			Key("title").
			Title("Title").
			Value(&f.title).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("title is required")
				}
				return nil
			}),

		huh.NewInput().
			Key("due").
			Title("Due date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&f.due).
			Validate(func(s string) error {
				_, err := parseDue(s)
				return err
			}),

		huh.NewInput().
			Key("duration").
			Title("Estimated duration (days)").
			Placeholder("1").
			Value(&f.duration).
			Validate(func(s string) error {
				_, err := parseDuration(s)
				return err
			}),
	}

	if len(tasks) > 0 {
		fields = append(fields, huh.NewMultiSelect[int64]().
			Key("deps").
			Title("Depends on").
			Options(taskOptions(tasks, nil)...).
			Value(&f.deps))
	}

	f.form = huh.NewForm(huh.NewGroup(fields...).Title("New task"))
	return f
}

// newAddDependencyForm offers every task target does not already depend on.
// Returns nil when there is nothing to offer.
func newAddDependencyForm(target persistence.TaskRecord, tasks []persistence.TaskRecord) *taskForm {
	exclude := map[int64]bool{target.ID: true}
	for _, d := range target.Dependencies {
		exclude[d.ID] = true
	}

	options := taskOptions(tasks, exclude)
	if len(options) == 0 {
		return nil
	}

	f := &taskForm{kind: formAddDependency, target: target}
	f.form = huh.NewForm(huh.NewGroup(
		huh.NewSelect[int64]().
			Key("prereq").
			Title(fmt.Sprintf("%q depends on", target.Title)).
			Options(options...).
			Value(&f.prereq),
	))
	return f
}

// newRemoveDependencyForm returns nil when target has no prerequisites.
func newRemoveDependencyForm(target persistence.TaskRecord) *taskForm {
	if len(target.Dependencies) == 0 {
		return nil
	}

	options := make([]huh.Option[int64], len(target.Dependencies))
	for i, d := range target.Dependencies {
		options[i] = huh.NewOption(fmt.Sprintf("#%d %s", d.ID, d.Title), d.ID)
	}

	f := &taskForm{kind: formRemoveDependency, target: target}
	f.form = huh.NewForm(huh.NewGroup(
		huh.NewSelect[int64]().
			Key("prereq").
			Title(fmt.Sprintf("%q no longer depends on", target.Title)).
			Options(options...).
			Value(&f.prereq),
	))
	return f
}

func newDeleteTaskForm(target persistence.TaskRecord) *taskForm {
	f := &taskForm{kind: formDeleteTask, target: target}

	desc := "Its dependencies go with it."
	if n := len(target.Dependents); n > 0 {
		desc = fmt.Sprintf("%d task(s) depend on it and will lose that dependency.", n)
	}

	f.form = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Key("confirm").
			Title(fmt.Sprintf("Delete %q?", target.Title)).
			Description(desc).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&f.confirm),
	))
	return f
}

// submit turns the completed form into a backend call.
func (f *taskForm) submit(b Backend) tea.Cmd {
	switch f.kind {
	case formAddTask:
		in := service.NewTask{Title: f.title, Dependencies: f.deps}
		in.DueDate, _ = parseDue(f.due)
		in.EstimatedDuration, _ = parseDuration(f.duration)
		return runOp(func(ctx context.Context) (string, error) {
			rec, err := b.CreateTask(ctx, in)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Created #%d %s", rec.ID, rec.Title), nil
		})

	case formAddDependency:
		succ, prereq := f.target.ID, f.prereq
		return runOp(func(ctx context.Context) (string, error) {
			if err := b.AddDependency(ctx, succ, prereq); err != nil {
				return "", err
			}
			return fmt.Sprintf("#%d now depends on #%d", succ, prereq), nil
		})

	case formRemoveDependency:
		succ, prereq := f.target.ID, f.prereq
		return runOp(func(ctx context.Context) (string, error) {
			if _, err := b.RemoveDependency(ctx, succ, prereq); err != nil {
				return "", err
			}
			return fmt.Sprintf("#%d no longer depends on #%d", succ, prereq), nil
		})

	case formDeleteTask:
		if !f.confirm {
			return nil
		}
		id, title := f.target.ID, f.target.Title
		return runOp(func(ctx context.Context) (string, error) {
			if err := b.DeleteTask(ctx, id); err != nil {
				return "", err
			}
			return fmt.Sprintf("Deleted %s", title), nil
		})
	}
	return nil
}

func runOp(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		status, err := fn(ctx)
		return opResultMsg{status: status, err: err}
	}
}

// describeError turns backend errors into a status line.
func describeError(err error) string {
	var rej *graph.RejectionError
	switch {
	case errors.As(err, &rej) && errors.Is(err, graph.ErrSelfDependency):
		return "A task cannot depend on itself"
	case errors.As(err, &rej) && errors.Is(err, graph.ErrCycle):
		return fmt.Sprintf("That would create a circular dependency with task %d", rej.Edge.PrerequisiteID)
	case errors.Is(err, persistence.ErrDuplicateEdge):
		return "Dependency already exists"
	case errors.Is(err, service.ErrNotFound):
		return "Task not found"
	case errors.Is(err, service.ErrInvalid):
		return strings.TrimPrefix(err.Error(), service.ErrInvalid.Error()+": ")
	default:
		return err.Error()
	}
}

func taskOptions(tasks []persistence.TaskRecord, exclude map[int64]bool) []huh.Option[int64] {
	var options []huh.Option[int64]
	for _, t := range tasks {
		if exclude[t.ID] {
			continue
		}
		options = append(options, huh.NewOption(fmt.Sprintf("#%d %s", t.ID, t.Title), t.ID))
	}
	return options
}

func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return nil, errors.New("use YYYY-MM-DD")
	}
	return &t, nil
}

func parseDuration(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return nil, errors.New("must be a positive whole number of days")
	}
	return &n, nil
}
