// Package tui is the terminal interface: a task list with details, a critical
// path chart, and modal forms for every task and dependency operation.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/todograph/internal/config"
	"github.com/aristath/todograph/internal/events"
	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/persistence"
	"github.com/aristath/todograph/internal/service"
)

// Backend is the set of operations the TUI drives. *service.Service
// satisfies it.
type Backend interface {
	ListTasks(ctx context.Context) ([]persistence.TaskRecord, error)
	CriticalPath(ctx context.Context) (*graph.Analysis, *graph.Snapshot, error)
	CreateTask(ctx context.Context, in service.NewTask) (*persistence.TaskRecord, error)
	DeleteTask(ctx context.Context, taskID int64) error
	AddDependency(ctx context.Context, successorID, prerequisiteID int64) error
	RemoveDependency(ctx context.Context, successorID, prerequisiteID int64) (bool, error)
	RefreshImage(ctx context.Context, taskID int64) (*graph.Image, error)
}

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneTasks PaneID = iota
	PanePath
)

// dataMsg carries a fresh read of the store.
type dataMsg struct {
	tasks    []persistence.TaskRecord
	analysis *graph.Analysis
	snap     *graph.Snapshot
	pathErr  error
	err      error
}

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	backend      Backend
	taskPane     TaskPaneModel
	pathPane     PathPaneModel
	settingsPane SettingsPaneModel
	form         *taskForm
	focusedPane  PaneID
	eventSub     <-chan events.Event
	status       string
	statusErr    bool
	width        int
	height       int
	quitting     bool
	showSettings bool
}

// New creates a new TUI model.
// It subscribes to all events from the event bus using SubscribeAll, so
// changes made through any front end sharing the bus show up here.
func New(backend Backend, eventBus *events.EventBus, cfg *config.Config, globalPath, projectPath string) Model {
	m := Model{
		backend:      backend,
		taskPane:     NewTaskPaneModel(),
		pathPane:     NewPathPaneModel(),
		settingsPane: NewSettingsPaneModel(cfg, globalPath, projectPath),
		focusedPane:  PaneTasks,
		eventSub:     eventBus.SubscribeAll(256),
	}
	m.updateFocusStates()
	return m
}

// Init loads the initial data and starts listening for events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadData(m.backend), waitForEvent(m.eventSub))
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// loadData reads tasks and the critical path. A withheld critical path is
// reported through pathErr so the task list still shows.
func loadData(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		tasks, err := b.ListTasks(ctx)
		if err != nil {
			return dataMsg{err: err}
		}

		analysis, snap, pathErr := b.CriticalPath(ctx)
		if errors.Is(pathErr, service.ErrInconsistentGraph) {
			pathErr = errors.New("stored dependencies contain a cycle; critical path withheld")
		}
		return dataMsg{tasks: tasks, analysis: analysis, snap: snap, pathErr: pathErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

		// If settings panel is open, route all keys to it (modal behavior)
		if m.showSettings {
			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			if !m.settingsPane.IsVisible() {
				m.showSettings = false
				if m.settingsPane.Saved() {
					m.setStatus("Settings saved; restart to apply", nil)
				}
			}
			return m, cmd
		}

		if m.form != nil {
			return m.updateForm(msg)
		}

		switch msg.String() {
		case KeyQuit:
			m.quitting = true
			return m, tea.Quit

		case KeySettings:
			m.showSettings = true
			m.settingsPane.SetVisible(true)
			cmds = append(cmds, m.settingsPane.Init())

		case KeyTab, KeyShiftTab:
			m.focusedPane = (m.focusedPane + 1) % 2
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneTasks
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PanePath
			m.updateFocusStates()

		case KeyRefresh:
			cmds = append(cmds, loadData(m.backend))

		case KeyAdd:
			cmds = append(cmds, m.openForm(newAddTaskForm(m.taskPane.Tasks())))

		case KeyDepend:
			if t, ok := m.taskPane.Selected(); ok {
				f := newAddDependencyForm(t, m.taskPane.Tasks())
				if f == nil {
					m.setStatus("No other task to depend on", nil)
				} else {
					cmds = append(cmds, m.openForm(f))
				}
			}

		case KeyUndepend:
			if t, ok := m.taskPane.Selected(); ok {
				f := newRemoveDependencyForm(t)
				if f == nil {
					m.setStatus(fmt.Sprintf("%s has no dependencies", t.Title), nil)
				} else {
					cmds = append(cmds, m.openForm(f))
				}
			}

		case KeyDelete:
			if t, ok := m.taskPane.Selected(); ok {
				cmds = append(cmds, m.openForm(newDeleteTaskForm(t)))
			}

		case KeyImage:
			if t, ok := m.taskPane.Selected(); ok {
				cmds = append(cmds, refreshImage(m.backend, t))
			}

		default:
			// Delegate to focused pane
			var cmd tea.Cmd
			switch m.focusedPane {
			case PaneTasks:
				m.taskPane, cmd = m.taskPane.Update(msg)
			case PanePath:
				m.pathPane, cmd = m.pathPane.Update(msg)
			}
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		m.settingsPane.SetSize(msg.Width, msg.Height)

	case dataMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
			break
		}
		m.taskPane.SetData(msg.tasks, msg.analysis)
		m.pathPane.SetData(msg.analysis, msg.snap, msg.pathErr)

	case opResultMsg:
		m.setStatus(msg.status, msg.err)

	case events.TaskCreatedEvent, events.TaskDeletedEvent, events.TaskImageAttachedEvent,
		events.DependencyAddedEvent, events.DependencyRemovedEvent:
		cmds = append(cmds, loadData(m.backend), waitForEvent(m.eventSub))

	case events.Event:
		// Rejections and analysis results change nothing on screen.
		cmds = append(cmds, waitForEvent(m.eventSub))

	default:
		// Non-key messages (cursor blink, form internals) go to an open form.
		if m.form != nil {
			return m.updateForm(msg)
		}
		if m.showSettings {
			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) openForm(f *taskForm) tea.Cmd {
	m.form = f
	m.form.form.WithWidth(max(m.width-8, 20))
	return m.form.form.Init()
}

// updateForm routes a message to the open form and submits it on completion.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == KeyEsc {
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form.form = f
	}

	switch m.form.form.State {
	case huh.StateCompleted:
		submit := m.form.submit(m.backend)
		m.form = nil
		return m, submit
	case huh.StateAborted:
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func refreshImage(b Backend, t persistence.TaskRecord) tea.Cmd {
	return runOp(func(ctx context.Context) (string, error) {
		img, err := b.RefreshImage(ctx, t.ID)
		if err != nil {
			return "", err
		}
		if img == nil {
			return fmt.Sprintf("No image found for %s", t.Title), nil
		}
		return fmt.Sprintf("Image attached to %s", t.Title), nil
	})
}

func (m *Model) setStatus(status string, err error) {
	if err != nil {
		m.status = describeError(err)
		m.statusErr = true
		return
	}
	m.status = status
	m.statusErr = false
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showSettings {
		return m.settingsPane.View()
	}

	if m.form != nil {
		return StyleFocusedBorder.
			Padding(1, 2).
			Width(m.width - 2).
			Height(m.height - 2).
			Render(m.form.form.View())
	}

	mainContent := lipgloss.JoinVertical(lipgloss.Left, m.taskPane.View(), m.pathPane.View())
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.statusView(), HelpView())
}

func (m Model) statusView() string {
	if m.statusErr {
		return StyleStatusErr.Render("✗ " + m.status)
	}
	if m.status == "" {
		return ""
	}
	return StyleStatusOK.Render("✓ " + m.status)
}

// computeLayout calculates pane dimensions and updates all child models.
// The task pane takes 60% of the height above the status and help lines.
func (m *Model) computeLayout() {
	availableHeight := m.height - 2
	taskHeight := (availableHeight * 60) / 100

	m.taskPane.SetSize(m.width, taskHeight)
	m.pathPane.SetSize(m.width, availableHeight-taskHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.taskPane.SetFocused(m.focusedPane == PaneTasks)
	m.pathPane.SetFocused(m.focusedPane == PanePath)
}
