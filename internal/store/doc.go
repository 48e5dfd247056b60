// Package store persists teams, projects, chapters, glossary terms, and the
// audit log in SQLite.
//
// The Store manages database connections, schema initialization, busy-retry
// handling, and the append-only chapter transition history. Chapters carry a
// revision counter; CommitTransition applies the stage update and the history
// append in one transaction guarded by the expected revision, so concurrent
// writers against the same chapter serialize and the loser surfaces
// workflow.ErrConflict. The UNIQUE(chapter_id, seq) constraint makes
// duplicate history entries impossible even under races.
//
// Treat this package as the single source of truth for persistence
// semantics; schema changes go into schema.sql and bump schemaVersion.
package store
