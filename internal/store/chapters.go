package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"scanhub/internal/workflow"
)

// CreateChapter inserts a new chapter in the raw stage with revision zero.
func (s *Store) CreateChapter(ctx context.Context, projectID int64, title string) (*Chapter, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO chapters (project_id, title, stage, translation_done, cleaning_done, revision, created_at, updated_at)
         VALUES (?, ?, ?, 0, 0, 0, ?, ?)`,
		projectID,
		title,
		workflow.StageRaw,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chapter: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.ChapterByID(ctx, id)
}

// ChapterByID fetches a chapter by identifier. Returns nil when the chapter
// does not exist.
func (s *Store) ChapterByID(ctx context.Context, id int64) (*Chapter, error) {
	row := s.db.QueryRowContext(ctx, chapterSelect+` WHERE id = ?`, id)
	chapter, err := scanChapter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chapter: %w", err)
	}
	return chapter, nil
}

// ChapterFilter narrows ListChapters. Zero values mean no constraint.
type ChapterFilter struct {
	ProjectID int64
	Stages    []workflow.Stage
}

// ListChapters returns chapters matching the filter ordered by creation time.
func (s *Store) ListChapters(ctx context.Context, filter ChapterFilter) ([]*Chapter, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.ProjectID != 0 {
		conditions = append(conditions, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if len(filter.Stages) > 0 {
		conditions = append(conditions, fmt.Sprintf("stage IN (%s)", makePlaceholders(len(filter.Stages))))
		for _, stage := range filter.Stages {
			args = append(args, stage)
		}
	}

	query := chapterSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}
	return chapters, rows.Err()
}

// LoadChapter returns the chapter's workflow state including the owning team,
// implementing workflow.ChapterStore.
func (s *Store) LoadChapter(ctx context.Context, id int64) (workflow.ChapterState, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT c.id, c.project_id, p.team_id, c.title, c.stage, c.translation_done, c.cleaning_done, c.revision
         FROM chapters c
         JOIN projects p ON p.id = c.project_id
         WHERE c.id = ?`,
		id,
	)
	var (
		state           workflow.ChapterState
		stageStr        string
		translationDone int
		cleaningDone    int
	)
	err := row.Scan(&state.ID, &state.ProjectID, &state.TeamID, &state.Title, &stageStr, &translationDone, &cleaningDone, &state.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.ChapterState{}, fmt.Errorf("%w: chapter %d", workflow.ErrNotFound, id)
	}
	if err != nil {
		return workflow.ChapterState{}, fmt.Errorf("load chapter: %w", err)
	}
	state.Stage = workflow.Stage(stageStr)
	state.Readiness = workflow.Readiness{
		TranslationDone: translationDone != 0,
		CleaningDone:    cleaningDone != 0,
	}
	return state, nil
}

// CommitTransition applies the new stage and readiness and appends the history
// record in one transaction. The update is guarded by the revision observed at
// load time; a mismatch means another writer got there first and surfaces as
// workflow.ErrConflict.
func (s *Store) CommitTransition(ctx context.Context, next workflow.ChapterState, rec workflow.Transition) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE chapters
             SET stage = ?, translation_done = ?, cleaning_done = ?, revision = revision + 1, updated_at = ?
             WHERE id = ? AND revision = ?`,
			next.Stage,
			boolToInt(next.Readiness.TranslationDone),
			boolToInt(next.Readiness.CleaningDone),
			rec.Timestamp.UTC().Format(time.RFC3339Nano),
			next.ID,
			next.Revision,
		)
		if err != nil {
			return fmt.Errorf("update chapter: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM chapters WHERE id = ?`, next.ID).Scan(&exists); err != nil {
				return fmt.Errorf("check chapter: %w", err)
			}
			if exists == 0 {
				return fmt.Errorf("%w: chapter %d", workflow.ErrNotFound, next.ID)
			}
			return fmt.Errorf("%w: chapter %d revision %d is stale", workflow.ErrConflict, next.ID, next.Revision)
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO chapter_transitions (chapter_id, seq, from_stage, to_stage, role, actor_id, note, created_at)
             VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM chapter_transitions WHERE chapter_id = ?), ?, ?, ?, ?, ?, ?)`,
			next.ID,
			next.ID,
			rec.From,
			rec.To,
			rec.Role,
			rec.ActorID,
			nullableString(rec.Note),
			rec.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("append transition: %w", err)
		}
		return nil
	})
}

// DeleteChapter removes a chapter and its history via foreign-key cascade.
func (s *Store) DeleteChapter(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM chapters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: chapter %d", workflow.ErrNotFound, id)
	}
	return nil
}

// TransitionsFor returns a chapter's committed history in commit order.
func (s *Store) TransitionsFor(ctx context.Context, chapterID int64) ([]*TransitionRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, chapter_id, seq, from_stage, to_stage, role, actor_id, note, created_at
         FROM chapter_transitions WHERE chapter_id = ? ORDER BY seq`,
		chapterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var records []*TransitionRecord
	for rows.Next() {
		var (
			record     TransitionRecord
			fromStr    string
			toStr      string
			roleStr    string
			note       sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&record.ID, &record.ChapterID, &record.Seq, &fromStr, &toStr, &roleStr, &record.ActorID, &note, &createdRaw); err != nil {
			return nil, err
		}
		record.From = workflow.Stage(fromStr)
		record.To = workflow.Stage(toStr)
		record.Role = workflow.Role(roleStr)
		record.Note = note.String
		if created, err := parseTimeString(createdRaw); err == nil {
			record.CreatedAt = created
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Health aggregates chapter counts per lifecycle phase. A zero projectID
// counts across all projects.
func (s *Store) Health(ctx context.Context, projectID int64) (HealthSummary, error) {
	query := `SELECT stage, COUNT(1) FROM chapters`
	var args []any
	if projectID != 0 {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` GROUP BY stage`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("chapter health: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var (
			stageStr string
			count    int
		)
		if err := rows.Scan(&stageStr, &count); err != nil {
			return HealthSummary{}, err
		}
		summary.Total += count
		switch workflow.Stage(stageStr) {
		case workflow.StageRaw:
			summary.Raw += count
		case workflow.StageTranslating, workflow.StageCleaning:
			summary.Drafting += count
		case workflow.StageEditing:
			summary.Editing += count
		case workflow.StageTypesetting:
			summary.Typesetting += count
		case workflow.StageDone:
			summary.Done += count
		}
	}
	return summary, rows.Err()
}

const chapterSelect = `SELECT id, project_id, title, stage, translation_done, cleaning_done, revision, created_at, updated_at FROM chapters`

func scanChapter(scanner interface{ Scan(dest ...any) error }) (*Chapter, error) {
	var (
		chapter         Chapter
		stageStr        string
		translationDone int
		cleaningDone    int
		createdRaw      string
		updatedRaw      string
	)
	if err := scanner.Scan(&chapter.ID, &chapter.ProjectID, &chapter.Title, &stageStr, &translationDone, &cleaningDone, &chapter.Revision, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	chapter.Stage = workflow.Stage(stageStr)
	chapter.Readiness = workflow.Readiness{
		TranslationDone: translationDone != 0,
		CleaningDone:    cleaningDone != 0,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		chapter.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		chapter.UpdatedAt = updated
	}
	return &chapter, nil
}
