// Package audit records who did what to which object. Every workflow
// transition and administrative action lands here as an append-only event;
// entries are never updated or deleted.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scanhub/internal/store"
	"scanhub/internal/workflow"
)

// Actions recorded by scanhub's own components.
const (
	ActionChapterTransition = "chapter.transition"
	ActionChapterCompleted  = "chapter.completed"
	ActionTeamCreated       = "team.created"
	ActionTeamStatusChanged = "team.status_changed"
	ActionMemberAdded       = "team.member_added"
	ActionMemberRemoved     = "team.member_removed"
	ActionProjectCreated    = "project.created"
	ActionTermUpserted      = "glossary.term_upserted"
	ActionTermDeleted       = "glossary.term_deleted"
)

// Event is one audit occurrence before persistence. Details carry
// action-specific context and are stored as JSON.
type Event struct {
	ActorID    int64
	Action     string
	ObjectType string
	ObjectID   int64
	Details    map[string]any
	Timestamp  time.Time
}

// Sink accepts audit events. Implementations must tolerate concurrent calls.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// StoreSink persists events to the audit_log table, assigning each a UUID.
type StoreSink struct {
	store *store.Store
}

// NewStoreSink returns a Sink writing to the given store.
func NewStoreSink(st *store.Store) *StoreSink {
	return &StoreSink{store: st}
}

// Record persists the event. A zero timestamp is filled with the current
// time.
func (s *StoreSink) Record(ctx context.Context, event Event) error {
	details := "{}"
	if len(event.Details) > 0 {
		encoded, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		details = string(encoded)
	}
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	entry := store.AuditEntry{
		ID:         uuid.NewString(),
		ActorID:    event.ActorID,
		Action:     event.Action,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Details:    details,
		CreatedAt:  timestamp,
	}
	return s.store.AppendAudit(ctx, entry)
}

// EmitTransition adapts a committed workflow transition into an audit event,
// implementing workflow.EventSink. Reaching done is recorded under its own
// action so downstream consumers can watch completions alone.
func (s *StoreSink) EmitTransition(ctx context.Context, event workflow.TransitionEvent) error {
	action := ActionChapterTransition
	if event.To == workflow.StageDone && event.From != workflow.StageDone {
		action = ActionChapterCompleted
	}
	return s.Record(ctx, Event{
		ActorID:    event.ActorID,
		Action:     action,
		ObjectType: "chapter",
		ObjectID:   event.ChapterID,
		Details: map[string]any{
			"project_id": event.ProjectID,
			"from":       string(event.From),
			"to":         string(event.To),
			"role":       string(event.Role),
			"note":       event.Note,
		},
		Timestamp: event.Timestamp,
	})
}

// FanoutSink forwards each event to every wrapped sink. The first failure is
// returned after all sinks have been attempted.
type FanoutSink struct {
	sinks []Sink
}

// NewFanoutSink combines sinks into one.
func NewFanoutSink(sinks ...Sink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

// Record implements Sink.
func (f *FanoutSink) Record(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range f.sinks {
		if err := sink.Record(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// EmitTransition implements workflow.EventSink for sinks that also do.
func (f *FanoutSink) EmitTransition(ctx context.Context, event workflow.TransitionEvent) error {
	var firstErr error
	for _, sink := range f.sinks {
		emitter, ok := sink.(workflow.EventSink)
		if !ok {
			continue
		}
		if err := emitter.EmitTransition(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NopSink discards every event.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(context.Context, Event) error { return nil }

// EmitTransition implements workflow.EventSink.
func (NopSink) EmitTransition(context.Context, workflow.TransitionEvent) error { return nil }
