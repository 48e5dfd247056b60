package store

import (
	"context"
	"fmt"
	"time"
)

// AppendAudit persists one audit entry. The entry's ID must be set by the
// caller; empty details default to an empty JSON object.
func (s *Store) AppendAudit(ctx context.Context, entry AuditEntry) error {
	details := entry.Details
	if details == "" {
		details = "{}"
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO audit_log (id, actor_id, action, object_type, object_id, details, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.ObjectType,
		entry.ObjectID,
		details,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// RecentAudit returns the newest audit entries, most recent first.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, actor_id, action, object_type, object_id, details, created_at
         FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var (
			entry      AuditEntry
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.ObjectType, &entry.ObjectID, &entry.Details, &createdRaw); err != nil {
			return nil, err
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
