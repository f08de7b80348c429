package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sadopc/tasklog/internal/model"
)

const taskColumns = `id, project_id, title, description, status, priority, estimated_hours, assigned_to, created_at, updated_at`

// NewTask holds the fields set when a task is created locally.
type NewTask struct {
	ProjectID      model.ID
	Title          string
	Description    string
	Status         model.TaskStatus
	Priority       model.Priority
	EstimatedHours float64
	AssignedTo     model.ID
}

func scanTask(row scanner) (model.Task, error) {
	var t model.Task
	var id, projectID int64
	var status, priority, createdAt, updatedAt string
	var estimated float64
	var assignee sql.NullString
	err := row.Scan(&id, &projectID, &t.Title, &t.Description, &status, &priority,
		&estimated, &assignee, &createdAt, &updatedAt)
	if err != nil {
		return model.Task{}, err
	}
	t.ID = model.IDFromInt(id)
	t.ProjectID = model.IDFromInt(projectID)
	t.Status = model.TaskStatus(status)
	t.Priority = model.Priority(priority)
	t.EstimatedHours = model.Hours(estimated)
	if assignee.Valid {
		a := model.ID(assignee.String)
		t.AssignedTo = &a
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, nt NewTask) (model.Task, error) {
	projectID, err := rowID(nt.ProjectID, "project")
	if err != nil {
		return model.Task{}, err
	}
	if nt.Status == "" {
		nt.Status = model.TaskNotStarted
	}
	if nt.Priority == "" {
		nt.Priority = model.PriorityMedium
	}
	if nt.EstimatedHours < 0 {
		return model.Task{}, &model.ValidationError{Field: "estimated_hours", Reason: "must not be negative"}
	}
	var assignee sql.NullString
	if nt.AssignedTo != "" {
		assignee = sql.NullString{String: nt.AssignedTo.String(), Valid: true}
	}

	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (project_id, title, description, status, priority, estimated_hours, assigned_to, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, nt.Title, nt.Description, string(nt.Status), string(nt.Priority), nt.EstimatedHours, assignee, ts, ts,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(ctx, model.IDFromInt(id))
}

func (s *Store) GetTask(ctx context.Context, id model.ID) (model.Task, error) {
	n, err := rowID(id, "task")
	if err != nil {
		return model.Task{}, err
	}
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, n,
	))
	if err != nil {
		return model.Task{}, notFound(err, "task", id)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTaskStatus(ctx context.Context, id model.ID, status model.TaskStatus) error {
	n, err := rowID(id, "task")
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, string(status), now(), n,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &model.NotFoundError{Resource: "task", ID: id.String()}
	}
	return nil
}
