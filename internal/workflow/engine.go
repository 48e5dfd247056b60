package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scanhub/internal/logging"
)

// ChapterStore abstracts chapter persistence for the engine. Implementations
// must wrap missing chapters in ErrNotFound and lost commit races in
// ErrConflict.
type ChapterStore interface {
	// LoadChapter returns the chapter's current workflow state.
	LoadChapter(ctx context.Context, id int64) (ChapterState, error)
	// CommitTransition atomically persists the new stage and readiness and
	// appends the transition record. next.Revision carries the revision
	// observed at load time; the commit must fail with ErrConflict when the
	// stored revision no longer matches.
	CommitTransition(ctx context.Context, next ChapterState, rec Transition) error
}

// RoleDirectory resolves a user's role within a team.
type RoleDirectory interface {
	RoleOf(ctx context.Context, userID, teamID int64) (Role, bool, error)
}

// TransitionEvent describes a committed transition for the audit sink.
type TransitionEvent struct {
	ChapterID int64
	ProjectID int64
	From      Stage
	To        Stage
	Role      Role
	ActorID   int64
	Note      string
	Timestamp time.Time
}

// EventSink receives transition events after commit. Delivery is best-effort:
// a sink failure is logged and never rolls back the committed state.
type EventSink interface {
	EmitTransition(ctx context.Context, event TransitionEvent) error
}

// Engine enforces the chapter workflow. It owns no state of its own; every
// request loads fresh chapter state, decides, and commits through the store's
// revision check.
type Engine struct {
	store  ChapterStore
	roles  RoleDirectory
	sink   EventSink
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine constructs an Engine. The sink may be nil when no audit delivery
// is configured.
func NewEngine(store ChapterStore, roles RoleDirectory, sink EventSink, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		roles:  roles,
		sink:   sink,
		logger: logging.NewComponentLogger(logger, "workflow-engine"),
		now:    time.Now,
	}
}

// RequestTransition validates and commits a move of the chapter toward the
// target stage on behalf of the acting user. On success the returned state
// reflects the committed update; a request whose target already holds
// returns the unchanged state with no new history entry.
func (e *Engine) RequestTransition(ctx context.Context, chapterID, actorID int64, target Stage, note string) (ChapterState, error) {
	state, err := e.store.LoadChapter(ctx, chapterID)
	if err != nil {
		return ChapterState{}, err
	}

	role, ok, err := e.roles.RoleOf(ctx, actorID, state.TeamID)
	if err != nil {
		return ChapterState{}, fmt.Errorf("resolve role: %w", err)
	}
	if !ok {
		return ChapterState{}, fmt.Errorf("%w: user %d has no active role in team %d", ErrNotFound, actorID, state.TeamID)
	}

	decision, err := Decide(state, role, target)
	if err != nil {
		return ChapterState{}, err
	}
	if decision.Noop {
		return state, nil
	}

	record := decision.Record
	record.ActorID = actorID
	record.Note = note
	record.Timestamp = e.now().UTC()

	next := state
	next.Stage = decision.Stage
	next.Readiness = decision.Readiness

	if err := e.store.CommitTransition(ctx, next, record); err != nil {
		if errors.Is(err, ErrConflict) {
			return e.resolveConflict(ctx, chapterID, target)
		}
		return ChapterState{}, err
	}
	next.Revision++

	e.emit(ctx, next, record)
	return next, nil
}

// ActionableRoles returns the roles that may legally act on the chapter in
// its current state. The result is advisory for display; RequestTransition
// re-runs the full checks on every call.
func (e *Engine) ActionableRoles(ctx context.Context, chapterID int64) ([]Role, error) {
	state, err := e.store.LoadChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	return ActionableRoles(state.Stage, state.Readiness), nil
}

// resolveConflict reloads after a lost commit race. When the racing writer
// already satisfied the requested target the request degrades to an
// idempotent success; otherwise the conflict surfaces as caller-retryable.
func (e *Engine) resolveConflict(ctx context.Context, chapterID int64, target Stage) (ChapterState, error) {
	fresh, err := e.store.LoadChapter(ctx, chapterID)
	if err != nil {
		return ChapterState{}, err
	}
	if Satisfied(fresh, target) {
		return fresh, nil
	}
	return ChapterState{}, fmt.Errorf("%w: chapter %d changed during request, retry", ErrConflict, chapterID)
}

func (e *Engine) emit(ctx context.Context, state ChapterState, record Transition) {
	if e.sink == nil {
		return
	}
	event := TransitionEvent{
		ChapterID: state.ID,
		ProjectID: state.ProjectID,
		From:      record.From,
		To:        record.To,
		Role:      record.Role,
		ActorID:   record.ActorID,
		Note:      record.Note,
		Timestamp: record.Timestamp,
	}
	if err := e.sink.EmitTransition(ctx, event); err != nil {
		e.logger.Warn("audit emission failed",
			logging.Int64("chapter_id", state.ID),
			logging.String("to_stage", string(record.To)),
			logging.Error(err))
	}
}
