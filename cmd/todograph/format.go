package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/persistence"
	"github.com/aristath/todograph/internal/service"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(cols ...string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = text.FgHiCyan.Sprint(c)
	}
	return row
}

// renderTasks prints the task list. Critical tasks are marked when analysis
// is available.
func renderTasks(w io.Writer, tasks []persistence.TaskRecord, analysis *graph.Analysis, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintf(w, "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint("No tasks yet"))
		return
	}

	t := newTable(w)
	t.AppendHeader(header("", "ID", "TITLE", "DAYS", "DUE", "DEPENDS ON", "CREATED"))

	for _, task := range tasks {
		marker := ""
		if analysis.OnCriticalPath(task.ID) {
			marker = text.FgHiRed.Sprint("◆")
		}

		t.AppendRow(table.Row{
			marker,
			task.ID,
			task.Title,
			task.Duration(),
			formatDue(task.DueDate, now),
			formatPrerequisites(task.Dependencies),
			humanize.RelTime(task.CreatedAt, now, "ago", "from now"),
		})
	}

	t.Render()
	fmt.Fprintf(w, "%s %s %s\n", text.FgHiBlue.Sprint("Total:"), text.FgHiWhite.Sprint(len(tasks)), text.FgHiBlue.Sprint("tasks"))
}

// renderPath prints the critical path with each task's earliest start.
func renderPath(w io.Writer, analysis *graph.Analysis, snap *graph.Snapshot) {
	if snap.Len() == 0 {
		fmt.Fprintf(w, "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint("No tasks to schedule"))
		return
	}

	titles := make(map[int64]graph.Task, snap.Len())
	for _, n := range snap.Nodes {
		titles[n.Task.ID] = n.Task
	}

	t := newTable(w)
	t.AppendHeader(header("STEP", "ID", "TITLE", "STARTS ON DAY", "DAYS"))
	for i, id := range analysis.CriticalPath {
		task := titles[id]
		t.AppendRow(table.Row{i + 1, id, task.Title, analysis.EarliestStart[id], task.Duration()})
	}
	t.AppendFooter(table.Row{"", "", "TOTAL", "", analysis.TotalDuration})
	t.Render()
}

// renderCheck prints the outcome of an acyclicity check.
func renderCheck(w io.Writer, res *service.CheckResult) {
	if !res.Acyclic {
		fmt.Fprintf(w, "%s stored dependencies contain a cycle (%d tasks)\n", text.FgHiRed.Sprint("✗"), res.Tasks)
		return
	}

	order := make([]string, len(res.Order))
	for i, id := range res.Order {
		order[i] = fmt.Sprint(id)
	}
	fmt.Fprintf(w, "%s dependency graph is acyclic (%d tasks)\n", text.FgGreen.Sprint("✓"), res.Tasks)
	if len(order) > 0 {
		fmt.Fprintf(w, "order: %s\n", strings.Join(order, " → "))
	}
}

func formatDue(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	s := fmt.Sprintf("%s (%s)", due.Local().Format(time.DateOnly), humanize.RelTime(*due, now, "ago", "from now"))
	if due.Before(now) {
		return text.FgRed.Sprint(s)
	}
	return s
}

func formatPrerequisites(prereqs []graph.Prerequisite) string {
	ids := make([]string, len(prereqs))
	for i, p := range prereqs {
		ids[i] = fmt.Sprintf("#%d", p.ID)
	}
	return strings.Join(ids, ", ")
}
