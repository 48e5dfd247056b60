package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scanhub/internal/workflow"
)

// CreateProject inserts a new project owned by a team.
func (s *Store) CreateProject(ctx context.Context, teamID int64, title, description string, kind ProjectKind, rating AgeRating) (*Project, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO projects (team_id, title, description, kind, age_rating, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		teamID,
		title,
		description,
		kind,
		rating,
		ProjectTranslating,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.ProjectByID(ctx, id)
}

// ProjectByID fetches a project by identifier. Returns nil when the project
// does not exist.
func (s *Store) ProjectByID(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, team_id, title, description, kind, age_rating, status, created_at
         FROM projects WHERE id = ?`,
		id,
	)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// ListProjects returns projects ordered by creation time. A zero teamID
// lists projects across all teams.
func (s *Store) ListProjects(ctx context.Context, teamID int64) ([]*Project, error) {
	query := `SELECT id, team_id, title, description, kind, age_rating, status, created_at FROM projects`
	var args []any
	if teamID != 0 {
		query += ` WHERE team_id = ?`
		args = append(args, teamID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// SetProjectStatus updates the project lifecycle status.
func (s *Store) SetProjectStatus(ctx context.Context, id int64, status ProjectStatus) error {
	res, err := s.execWithRetry(ctx, `UPDATE projects SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set project status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: project %d", workflow.ErrNotFound, id)
	}
	return nil
}

// DeleteProject removes a project together with its chapters, history, and
// glossary via foreign-key cascade.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: project %d", workflow.ErrNotFound, id)
	}
	return nil
}

func scanProject(scanner interface{ Scan(dest ...any) error }) (*Project, error) {
	var (
		id          int64
		teamID      int64
		title       string
		description sql.NullString
		kindStr     string
		ratingStr   string
		statusStr   string
		createdRaw  string
	)
	if err := scanner.Scan(&id, &teamID, &title, &description, &kindStr, &ratingStr, &statusStr, &createdRaw); err != nil {
		return nil, err
	}
	project := &Project{
		ID:          id,
		TeamID:      teamID,
		Title:       title,
		Description: description.String,
		Kind:        ProjectKind(kindStr),
		AgeRating:   AgeRating(ratingStr),
		Status:      ProjectStatus(statusStr),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		project.CreatedAt = created
	}
	return project, nil
}
