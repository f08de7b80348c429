package store

import (
	"context"
	"fmt"

	"github.com/sadopc/tasklog/internal/model"
)

const projectColumns = `id, name, description, status, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (model.Project, error) {
	var p model.Project
	var id int64
	var status, createdAt, updatedAt string
	if err := row.Scan(&id, &p.Name, &p.Description, &status, &createdAt, &updatedAt); err != nil {
		return model.Project{}, err
	}
	p.ID = model.IDFromInt(id)
	p.Status = model.ProjectStatus(status)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (s *Store) CreateProject(ctx context.Context, name, description string, status model.ProjectStatus) (model.Project, error) {
	if status == "" {
		status = model.ProjectPending
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		name, description, string(status), ts, ts,
	)
	if err != nil {
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetProject(ctx, model.IDFromInt(id))
}

func (s *Store) GetProject(ctx context.Context, id model.ID) (model.Project, error) {
	n, err := rowID(id, "project")
	if err != nil {
		return model.Project{}, err
	}
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, n,
	))
	if err != nil {
		return model.Project{}, notFound(err, "project", id)
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProjectStatus(ctx context.Context, id model.ID, status model.ProjectStatus) error {
	n, err := rowID(id, "project")
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`, string(status), now(), n,
	)
	if err != nil {
		return fmt.Errorf("update project %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &model.NotFoundError{Resource: "project", ID: id.String()}
	}
	return nil
}
