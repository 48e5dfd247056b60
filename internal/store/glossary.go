package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"scanhub/internal/workflow"
)

// UpsertTerm creates or replaces a glossary term. Terms are unique per
// project; redefining an existing term keeps its identity and original author.
func (s *Store) UpsertTerm(ctx context.Context, projectID int64, term, definition string, createdBy int64) (*GlossaryTerm, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO glossary_terms (project_id, term, definition, created_by, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (project_id, term) DO UPDATE SET definition = excluded.definition, updated_at = excluded.updated_at`,
		projectID,
		term,
		definition,
		createdBy,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert term: %w", err)
	}
	return s.termByName(ctx, projectID, term)
}

// DeleteTerm removes a glossary term from a project.
func (s *Store) DeleteTerm(ctx context.Context, projectID int64, term string) error {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM glossary_terms WHERE project_id = ? AND term = ?`,
		projectID,
		term,
	)
	if err != nil {
		return fmt.Errorf("delete term: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: term %q in project %d", workflow.ErrNotFound, term, projectID)
	}
	return nil
}

// TermsForProject returns a project's glossary sorted by term under the
// configured locale's collation rules. SQLite's BINARY ordering misplaces
// Cyrillic and accented terms, so the sort happens here.
func (s *Store) TermsForProject(ctx context.Context, projectID int64) ([]*GlossaryTerm, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, project_id, term, definition, created_by, created_at, updated_at
         FROM glossary_terms WHERE project_id = ?`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	var terms []*GlossaryTerm
	for rows.Next() {
		term, err := scanTerm(rows)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	collator := s.collator
	if collator == nil {
		collator = collate.New(language.Und)
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return collator.CompareString(terms[i].Term, terms[j].Term) < 0
	})
	return terms, nil
}

func (s *Store) termByName(ctx context.Context, projectID int64, term string) (*GlossaryTerm, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, project_id, term, definition, created_by, created_at, updated_at
         FROM glossary_terms WHERE project_id = ? AND term = ?`,
		projectID,
		term,
	)
	result, err := scanTerm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get term: %w", err)
	}
	return result, nil
}

func scanTerm(scanner interface{ Scan(dest ...any) error }) (*GlossaryTerm, error) {
	var (
		term       GlossaryTerm
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&term.ID, &term.ProjectID, &term.Term, &term.Definition, &term.CreatedBy, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		term.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		term.UpdatedAt = updated
	}
	return &term, nil
}
