package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/persistence"
)

const taskListWidth = 30

// TaskPaneModel shows the task list and the selected task's details.
type TaskPaneModel struct {
	tasks       []persistence.TaskRecord // Newest first
	analysis    *graph.Analysis
	selectedIdx int
	viewport    viewport.Model // Details of the selected task
	width       int
	height      int
	focused     bool
	now         func() time.Time
}

// NewTaskPaneModel creates an empty task pane.
func NewTaskPaneModel() TaskPaneModel {
	return TaskPaneModel{
		viewport: viewport.New(0, 0),
		now:      time.Now,
	}
}

// SetData replaces the tasks and analysis, keeping the selection on the same
// task when it still exists.
func (m *TaskPaneModel) SetData(tasks []persistence.TaskRecord, analysis *graph.Analysis) {
	selected, hadSelection := m.Selected()

	m.tasks = tasks
	m.analysis = analysis

	m.selectedIdx = 0
	if hadSelection {
		for i, t := range tasks {
			if t.ID == selected.ID {
				m.selectedIdx = i
				break
			}
		}
	}
	m.updateViewportContent()
}

// Selected returns the selected task.
func (m TaskPaneModel) Selected() (persistence.TaskRecord, bool) {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.tasks) {
		return m.tasks[m.selectedIdx], true
	}
	return persistence.TaskRecord{}, false
}

// Tasks returns the tasks currently shown.
func (m TaskPaneModel) Tasks() []persistence.TaskRecord {
	return m.tasks
}

// Update handles messages for the task pane.
func (m TaskPaneModel) Update(msg tea.Msg) (TaskPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			break
		}

		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.tasks)-1 {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			// Delegate other keys to viewport for scrolling
			m.viewport, cmd = m.viewport.Update(msg)
		}
	}

	return m, cmd
}

// View renders the task pane.
func (m TaskPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	detailsWidth := m.width - taskListWidth - 4

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderList(taskListWidth),
		lipgloss.NewStyle().
			Width(detailsWidth).
			Height(m.height-2).
			Render(m.viewport.View()),
	)

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m TaskPaneModel) renderList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render(fmt.Sprintf("Tasks (%d)", len(m.tasks)))
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(StyleMuted.Render("No tasks yet. Press a to add one."))
	}
	for i, t := range m.tasks {
		line := fmt.Sprintf("%s %s", m.marker(t), truncate(t.Title, width-4))
		if i == m.selectedIdx {
			line = lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("0")).
				Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// marker flags critical and overdue tasks.
func (m TaskPaneModel) marker(t persistence.TaskRecord) string {
	switch {
	case t.DueDate != nil && t.DueDate.Before(m.now()):
		return StyleOverdue.Render("!")
	case m.analysis.OnCriticalPath(t.ID):
		return StyleCritical.Render("◆")
	default:
		return StyleMuted.Render("○")
	}
}

// updateViewportContent renders the selected task's details.
func (m *TaskPaneModel) updateViewportContent() {
	t, ok := m.Selected()
	if !ok {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(renderDetails(t, m.analysis, m.now()))
	m.viewport.GotoTop()
}

func renderDetails(t persistence.TaskRecord, analysis *graph.Analysis, now time.Time) string {
	var b strings.Builder

	b.WriteString(StyleSelected.Render(t.Title))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "ID:        %d\n", t.ID)
	fmt.Fprintf(&b, "Duration:  %s\n", days(t.Duration()))
	if t.EstimatedDuration == nil {
		b.WriteString(StyleMuted.Render("           (not estimated)"))
		b.WriteString("\n")
	}
	if t.DueDate != nil {
		due := fmt.Sprintf("%s (%s)", t.DueDate.Local().Format(time.DateOnly), humanize.RelTime(*t.DueDate, now, "ago", "from now"))
		if t.DueDate.Before(now) {
			due = StyleOverdue.Render(due)
		}
		fmt.Fprintf(&b, "Due:       %s\n", due)
	}
	fmt.Fprintf(&b, "Created:   %s\n", humanize.RelTime(t.CreatedAt, now, "ago", "from now"))

	if analysis != nil {
		if es, ok := analysis.EarliestStart[t.ID]; ok {
			fmt.Fprintf(&b, "Can start: day %d\n", es)
		}
		if analysis.OnCriticalPath(t.ID) {
			b.WriteString(StyleCritical.Render("On the critical path"))
			b.WriteString("\n")
		}
	}

	b.WriteString("\nDepends on:\n")
	if len(t.Dependencies) == 0 {
		b.WriteString(StyleMuted.Render("  nothing"))
		b.WriteString("\n")
	}
	for _, d := range t.Dependencies {
		fmt.Fprintf(&b, "  #%d %s (%s)\n", d.ID, d.Title, days(d.Duration()))
	}

	b.WriteString("\nNeeded by:\n")
	if len(t.Dependents) == 0 {
		b.WriteString(StyleMuted.Render("  nothing"))
		b.WriteString("\n")
	}
	for _, d := range t.Dependents {
		fmt.Fprintf(&b, "  #%d %s\n", d.ID, d.Title)
	}

	if t.Image != nil {
		b.WriteString("\n")
		b.WriteString(StyleMuted.Render(fmt.Sprintf("Image: %s\n%s", t.Image.Alt, t.Image.URL)))
		b.WriteString("\n")
	}

	return b.String()
}

// resizeViewport resizes the viewport based on pane dimensions.
func (m *TaskPaneModel) resizeViewport() {
	m.viewport.Width = max(m.width-taskListWidth-4, 10)
	m.viewport.Height = max(m.height-4, 5)
}

// SetSize updates the pane dimensions.
func (m *TaskPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *TaskPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
