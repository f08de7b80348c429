package store

import (
	"context"
	"fmt"

	"github.com/sadopc/tasklog/internal/model"
)

const entryColumns = `id, task_id, user_id, hours_spent, work_date, description, created_at`

func scanEntry(row scanner) (model.TimeEntry, error) {
	var e model.TimeEntry
	var id, taskID int64
	var userID, workDate, createdAt string
	var hours float64
	if err := row.Scan(&id, &taskID, &userID, &hours, &workDate, &e.Description, &createdAt); err != nil {
		return model.TimeEntry{}, err
	}
	e.ID = model.IDFromInt(id)
	e.TaskID = model.IDFromInt(taskID)
	e.UserID = model.ID(userID)
	e.HoursSpent = model.Hours(hours)
	e.WorkDate, _ = model.ParseDate(workDate)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// CreateTimeEntry appends an entry for the store's user. The entry is
// validated first and the task must exist.
func (s *Store) CreateTimeEntry(ctx context.Context, taskID model.ID, e model.NewTimeEntry) (model.TimeEntry, error) {
	if err := e.Validate(); err != nil {
		return model.TimeEntry{}, err
	}
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return model.TimeEntry{}, err
	}
	n, _ := taskID.Int()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("begin time entry: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO time_entries (task_id, user_id, hours_spent, work_date, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n, s.user.String(), e.RoundedHours(), e.WorkDate.Key(), e.Description, now(),
	)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("insert time entry: %w", err)
	}
	id, _ := res.LastInsertId()

	// Logging time counts as activity on the task.
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET updated_at = ? WHERE id = ?`, now(), n); err != nil {
		return model.TimeEntry{}, fmt.Errorf("touch task %s: %w", taskID, err)
	}
	if err := tx.Commit(); err != nil {
		return model.TimeEntry{}, fmt.Errorf("commit time entry: %w", err)
	}
	return s.getEntry(ctx, id)
}

func (s *Store) getEntry(ctx context.Context, id int64) (model.TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id,
	))
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("get time entry %d: %w", id, err)
	}
	return e, nil
}

func (s *Store) ListTaskTimeEntries(ctx context.Context, taskID model.ID) ([]model.TimeEntry, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	n, _ := taskID.Int()
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE task_id = ? ORDER BY work_date DESC, id DESC`, n)
}

func (s *Store) ListAllTimeEntries(ctx context.Context) ([]model.TimeEntry, error) {
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM time_entries ORDER BY work_date DESC, id DESC`)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]model.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	var entries []model.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
