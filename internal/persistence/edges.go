package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aristath/todograph/internal/graph"
)

// InsertEdge stores "successor depends on prerequisite". Both tasks must
// exist, approve (when set) must accept the edge, and the pair must be new.
// The checks and the insert share one transaction.
func (s *SQLiteStore) InsertEdge(ctx context.Context, edge graph.Edge, approve Approver) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEdge(ctx, tx, edge, approve); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteEdge removes the edge if present and reports whether it was.
func (s *SQLiteStore) DeleteEdge(ctx context.Context, edge graph.Edge) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM task_dependencies WHERE task_id = ? AND depends_on_id = ?
	`, edge.SuccessorID, edge.PrerequisiteID)
	if err != nil {
		return false, fmt.Errorf("failed to delete dependency: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Prerequisites returns the direct prerequisites of a task in insertion order.
// Unknown tasks have none.
func (s *SQLiteStore) Prerequisites(ctx context.Context, taskID int64) ([]int64, error) {
	return prerequisitesOf(ctx, s.db, taskID)
}

// Snapshot reads every task (in id order) and every edge in one transaction.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*graph.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tasks, err := loadTasks(ctx, tx, `ORDER BY id`)
	if err != nil {
		return nil, err
	}

	rows, err := loadEdges(ctx, tx, "")
	if err != nil {
		return nil, err
	}

	edges := make([]graph.Edge, 0, len(rows))
	for _, r := range rows {
		edges = append(edges, graph.Edge{SuccessorID: r.successor.ID, PrerequisiteID: r.prerequisite.ID})
	}

	return graph.NewSnapshot(tasks, edges), nil
}

// txSource reads prerequisites through an open transaction.
type txSource struct {
	tx *sql.Tx
}

func (s txSource) Prerequisites(ctx context.Context, taskID int64) ([]int64, error) {
	return prerequisitesOf(ctx, s.tx, taskID)
}

func insertEdge(ctx context.Context, tx *sql.Tx, edge graph.Edge, approve Approver) error {
	for _, id := range []int64{edge.SuccessorID, edge.PrerequisiteID} {
		ok, err := taskExists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
	}

	if approve != nil {
		if err := approve(ctx, txSource{tx: tx}, edge.SuccessorID, edge.PrerequisiteID); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO task_dependencies (task_id, depends_on_id)
		VALUES (?, ?)
		ON CONFLICT(task_id, depends_on_id) DO NOTHING
	`, edge.SuccessorID, edge.PrerequisiteID)
	if err != nil {
		return fmt.Errorf("failed to insert dependency %d -> %d: %w", edge.SuccessorID, edge.PrerequisiteID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d -> %d", ErrDuplicateEdge, edge.SuccessorID, edge.PrerequisiteID)
	}
	return nil
}

func prerequisitesOf(ctx context.Context, q querier, taskID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT depends_on_id
		FROM task_dependencies
		WHERE task_id = ?
		ORDER BY rowid
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}
	return ids, nil
}

type edgeRow struct {
	successor    graph.Prerequisite
	prerequisite graph.Prerequisite
}

// loadEdges returns edges with both endpoints resolved, in insertion order.
func loadEdges(ctx context.Context, q querier, where string, args ...any) ([]edgeRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT s.id, s.title, s.estimated_duration, p.id, p.title, p.estimated_duration
		FROM task_dependencies d
		JOIN tasks s ON s.id = d.task_id
		JOIN tasks p ON p.id = d.depends_on_id
		`+where+`
		ORDER BY d.rowid
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	var edges []edgeRow
	for rows.Next() {
		var (
			e          edgeRow
			sDur, pDur sql.NullInt64
		)
		if err := rows.Scan(&e.successor.ID, &e.successor.Title, &sDur, &e.prerequisite.ID, &e.prerequisite.Title, &pDur); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		e.successor.EstimatedDuration = intPtr(sDur)
		e.prerequisite.EstimatedDuration = intPtr(pDur)
		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}
	return edges, nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
