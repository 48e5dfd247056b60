package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scanhub/internal/workflow"
)

// CreateTeam inserts a new active team.
func (s *Store) CreateTeam(ctx context.Context, name string, creatorID int64) (*Team, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO teams (name, creator_id, status, created_at) VALUES (?, ?, ?, ?)`,
		name,
		creatorID,
		TeamActive,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.TeamByID(ctx, id)
}

// TeamByID fetches a team by identifier. Returns nil when the team does not
// exist.
func (s *Store) TeamByID(ctx context.Context, id int64) (*Team, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, creator_id, status, created_at FROM teams WHERE id = ?`, id)
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return team, nil
}

// ListTeams returns all teams ordered by creation time.
func (s *Store) ListTeams(ctx context.Context) ([]*Team, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, creator_id, status, created_at FROM teams ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []*Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// SetTeamStatus updates the team lifecycle status.
func (s *Store) SetTeamStatus(ctx context.Context, id int64, status TeamStatus) error {
	res, err := s.execWithRetry(ctx, `UPDATE teams SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set team status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: team %d", workflow.ErrNotFound, id)
	}
	return nil
}

// AddMember creates or reactivates a membership with the given role. An
// existing membership's role is replaced.
func (s *Store) AddMember(ctx context.Context, teamID, userID int64, role workflow.Role) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO team_members (team_id, user_id, role, is_active, joined_at)
         VALUES (?, ?, ?, 1, ?)
         ON CONFLICT (team_id, user_id) DO UPDATE SET role = excluded.role, is_active = 1`,
		teamID,
		userID,
		role,
		now,
	)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember deactivates a membership. History referencing the user stays
// intact.
func (s *Store) RemoveMember(ctx context.Context, teamID, userID int64) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE team_members SET is_active = 0 WHERE team_id = ? AND user_id = ?`,
		teamID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %d in team %d", workflow.ErrNotFound, userID, teamID)
	}
	return nil
}

// Members returns the active memberships of a team ordered by join time.
func (s *Store) Members(ctx context.Context, teamID int64) ([]*Membership, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT team_id, user_id, role, is_active, joined_at
         FROM team_members WHERE team_id = ? AND is_active = 1 ORDER BY joined_at`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		member, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// RoleOf resolves the user's role within a team. Only active memberships of
// active teams count; anything else reports no role.
func (s *Store) RoleOf(ctx context.Context, userID, teamID int64) (workflow.Role, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT m.role FROM team_members m
         JOIN teams t ON t.id = m.team_id
         WHERE m.team_id = ? AND m.user_id = ? AND m.is_active = 1 AND t.status = ?`,
		teamID,
		userID,
		TeamActive,
	)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("resolve role: %w", err)
	}
	role, ok := workflow.ParseRole(raw)
	if !ok {
		return "", false, fmt.Errorf("unknown role %q stored for user %d in team %d", raw, userID, teamID)
	}
	return role, true, nil
}

func scanTeam(scanner interface{ Scan(dest ...any) error }) (*Team, error) {
	var (
		id         int64
		name       string
		creatorID  int64
		statusStr  string
		createdRaw string
	)
	if err := scanner.Scan(&id, &name, &creatorID, &statusStr, &createdRaw); err != nil {
		return nil, err
	}
	team := &Team{ID: id, Name: name, CreatorID: creatorID, Status: TeamStatus(statusStr)}
	if created, err := parseTimeString(createdRaw); err == nil {
		team.CreatedAt = created
	}
	return team, nil
}

func scanMembership(scanner interface{ Scan(dest ...any) error }) (*Membership, error) {
	var (
		teamID    int64
		userID    int64
		roleStr   string
		isActive  int
		joinedRaw string
	)
	if err := scanner.Scan(&teamID, &userID, &roleStr, &isActive, &joinedRaw); err != nil {
		return nil, err
	}
	member := &Membership{
		TeamID:   teamID,
		UserID:   userID,
		Role:     workflow.Role(roleStr),
		IsActive: isActive != 0,
	}
	if joined, err := parseTimeString(joinedRaw); err == nil {
		member.JoinedAt = joined
	}
	return member, nil
}
