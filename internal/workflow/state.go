package workflow

import "time"

// Readiness tracks which siblings of the drafting phase have been completed.
// Editing may only start once both flags are true.
type Readiness struct {
	TranslationDone bool
	CleaningDone    bool
}

// ChapterState is the engine's view of one chapter's mutable workflow state.
// Revision guards commits: a commit only applies when the stored revision
// still matches, which serializes concurrent writers per chapter.
type ChapterState struct {
	ID        int64
	ProjectID int64
	TeamID    int64
	Title     string
	Stage     Stage
	Readiness Readiness
	Revision  int64
}

// Transition is one committed move between stages, attributed to a role and
// an acting user. Records are immutable once committed; corrections require a
// new compensating transition, never mutation of history. A self-edge
// (From == To) marks a drafting sibling complete.
type Transition struct {
	From      Stage
	To        Stage
	Role      Role
	ActorID   int64
	Note      string
	Timestamp time.Time
}
