package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/todograph/internal/graph"
)

const ganttLabelWidth = 20

// PathPaneModel shows the critical path and a schedule chart of every task.
type PathPaneModel struct {
	analysis *graph.Analysis
	snap     *graph.Snapshot
	err      error
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewPathPaneModel creates an empty path pane.
func NewPathPaneModel() PathPaneModel {
	return PathPaneModel{
		viewport: viewport.New(0, 0),
	}
}

// SetData replaces the analysis shown. A non-nil err replaces the chart with
// the error.
func (m *PathPaneModel) SetData(analysis *graph.Analysis, snap *graph.Snapshot, err error) {
	m.analysis = analysis
	m.snap = snap
	m.err = err
	m.viewport.SetContent(m.renderContent())
}

// Update handles messages for the path pane.
func (m PathPaneModel) Update(msg tea.Msg) (PathPaneModel, tea.Cmd) {
	var cmd tea.Cmd
	if _, ok := msg.(tea.KeyMsg); ok && m.focused {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// View renders the path pane.
func (m PathPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	title := StyleTitle.Render("Critical Path")
	if m.analysis != nil && m.err == nil {
		title += StyleMuted.Render(fmt.Sprintf(" %s total", days(m.analysis.TotalDuration)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View())

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m PathPaneModel) renderContent() string {
	if m.err != nil {
		return StyleStatusErr.Render(m.err.Error())
	}
	if m.snap == nil || m.snap.Len() == 0 || m.analysis == nil {
		return StyleMuted.Render("No tasks to schedule.")
	}

	var b strings.Builder

	titles := make(map[int64]string, m.snap.Len())
	for _, n := range m.snap.Nodes {
		titles[n.Task.ID] = n.Task.Title
	}

	path := make([]string, len(m.analysis.CriticalPath))
	for i, id := range m.analysis.CriticalPath {
		path[i] = titles[id]
	}
	b.WriteString(StyleCritical.Render(strings.Join(path, " → ")))
	b.WriteString("\n\n")

	b.WriteString(renderGantt(m.snap, m.analysis, max(m.viewport.Width-ganttLabelWidth-2, 10)))
	return b.String()
}

// renderGantt draws one bar per task, offset by its earliest start and scaled
// so the longest schedule fits in width columns.
func renderGantt(snap *graph.Snapshot, analysis *graph.Analysis, width int) string {
	type row struct {
		id    int64
		title string
		start int
		dur   int
	}

	rows := make([]row, 0, snap.Len())
	span := 1
	for _, n := range snap.Nodes {
		r := row{
			id:    n.Task.ID,
			title: n.Task.Title,
			start: analysis.EarliestStart[n.Task.ID],
			dur:   n.Task.Duration(),
		}
		span = max(span, r.start+r.dur)
		rows = append(rows, r)
	}
	slices.SortStableFunc(rows, func(a, b row) int {
		return cmp.Compare(a.start, b.start)
	})

	scale := 1.0
	if span > width {
		scale = float64(width) / float64(span)
	}

	var b strings.Builder
	for _, r := range rows {
		offset := int(float64(r.start) * scale)
		length := max(int(float64(r.dur)*scale), 1)

		label := fmt.Sprintf("%-*s", ganttLabelWidth, truncate(r.title, ganttLabelWidth-1))
		bar := strings.Repeat("█", length)
		if analysis.OnCriticalPath(r.id) {
			bar = StyleCritical.Render(bar)
		} else {
			bar = StyleBar.Render(bar)
		}

		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", offset))
		b.WriteString(bar)
		b.WriteString(StyleMuted.Render(fmt.Sprintf(" %d+%d", r.start, r.dur)))
		b.WriteString("\n")
	}
	return b.String()
}

// SetSize updates the pane dimensions.
func (m *PathPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = max(w-4, 10)
	m.viewport.Height = max(h-4, 3)
	m.viewport.SetContent(m.renderContent())
}

// SetFocused updates the focus state.
func (m *PathPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
