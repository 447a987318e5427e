package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/todograph/internal/graph"
)

const taskColumns = `id, title, due_date, estimated_duration, image_url, image_alt, created_at`

// CreateTask inserts a task and its initial prerequisites in one transaction.
// Each prerequisite goes through approve first; any rejection or missing task
// rolls the whole creation back. Repeated prerequisite ids are stored once.
// The returned task carries the assigned ID and CreatedAt.
func (s *SQLiteStore) CreateTask(ctx context.Context, task graph.Task, prerequisites []int64, approve Approver) (graph.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return graph.Task{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	task.CreatedAt = time.UnixMilli(task.CreatedAt.UnixMilli()).UTC()

	var imageURL, imageAlt any
	if task.Image != nil {
		imageURL, imageAlt = task.Image.URL, task.Image.Alt
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (title, due_date, estimated_duration, image_url, image_alt, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, task.Title, nullableTime(task.DueDate), nullableInt(task.EstimatedDuration), imageURL, imageAlt, task.CreatedAt.UnixMilli())
	if err != nil {
		return graph.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}

	task.ID, err = res.LastInsertId()
	if err != nil {
		return graph.Task{}, fmt.Errorf("failed to read task id: %w", err)
	}

	for _, prereq := range prerequisites {
		err := insertEdge(ctx, tx, graph.Edge{SuccessorID: task.ID, PrerequisiteID: prereq}, approve)
		if errors.Is(err, ErrDuplicateEdge) {
			continue
		}
		if err != nil {
			return graph.Task{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return graph.Task{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return task, nil
}

// GetTask retrieves a task by ID, including its dependencies and dependents.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID int64) (*TaskRecord, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, taskID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}

	edges, err := loadEdges(ctx, s.db, `WHERE d.task_id = ? OR d.depends_on_id = ?`, taskID, taskID)
	if err != nil {
		return nil, err
	}

	rec := &TaskRecord{Task: task, Dependencies: []graph.Prerequisite{}, Dependents: []graph.Prerequisite{}}
	for _, e := range edges {
		if e.successor.ID == taskID {
			rec.Dependencies = append(rec.Dependencies, e.prerequisite)
		}
		if e.prerequisite.ID == taskID {
			rec.Dependents = append(rec.Dependents, e.successor)
		}
	}
	return rec, nil
}

// TaskExists reports whether a task with the given ID is stored.
func (s *SQLiteStore) TaskExists(ctx context.Context, taskID int64) (bool, error) {
	return taskExists(ctx, s.db, taskID)
}

// ListTasks returns all tasks, newest first, with their dependencies and
// dependents.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]TaskRecord, error) {
	tasks, err := loadTasks(ctx, s.db, `ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}

	edges, err := loadEdges(ctx, s.db, "")
	if err != nil {
		return nil, err
	}

	records := make([]TaskRecord, len(tasks))
	pos := make(map[int64]int, len(tasks))
	for i, t := range tasks {
		records[i] = TaskRecord{Task: t, Dependencies: []graph.Prerequisite{}, Dependents: []graph.Prerequisite{}}
		pos[t.ID] = i
	}
	for _, e := range edges {
		if i, ok := pos[e.successor.ID]; ok {
			records[i].Dependencies = append(records[i].Dependencies, e.prerequisite)
		}
		if i, ok := pos[e.prerequisite.ID]; ok {
			records[i].Dependents = append(records[i].Dependents, e.successor)
		}
	}

	return records, nil
}

// DeleteTask removes a task. Edges in either direction go with it.
func (s *SQLiteStore) DeleteTask(ctx context.Context, taskID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}
	return nil
}

// AttachImage stores the stock photo for a task.
func (s *SQLiteStore) AttachImage(ctx context.Context, taskID int64, img graph.Image) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET image_url = ?, image_alt = ? WHERE id = ?
	`, img.URL, img.Alt, taskID)
	if err != nil {
		return fmt.Errorf("failed to attach image: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (graph.Task, error) {
	var (
		t        graph.Task
		due, dur sql.NullInt64
		url, alt sql.NullString
		created  int64
	)
	if err := r.Scan(&t.ID, &t.Title, &due, &dur, &url, &alt, &created); err != nil {
		return graph.Task{}, err
	}

	if due.Valid {
		d := time.UnixMilli(due.Int64).UTC()
		t.DueDate = &d
	}
	if dur.Valid {
		v := int(dur.Int64)
		t.EstimatedDuration = &v
	}
	if url.Valid && url.String != "" {
		t.Image = &graph.Image{URL: url.String, Alt: alt.String}
	}
	t.CreatedAt = time.UnixMilli(created).UTC()

	return t, nil
}

func loadTasks(ctx context.Context, q querier, orderBy string) ([]graph.Task, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks `+orderBy)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []graph.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func taskExists(ctx context.Context, q querier, taskID int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, taskID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check task existence: %w", err)
	}
	return true, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
