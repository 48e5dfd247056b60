package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"scanhub/internal/logging"
)

// memoryStore is a revision-checked in-memory ChapterStore.
type memoryStore struct {
	mu      sync.Mutex
	state   ChapterState
	records []Transition

	commitHook func() // runs inside the lock, before the revision check
}

func newMemoryStore(state ChapterState) *memoryStore {
	return &memoryStore{state: state}
}

func (m *memoryStore) LoadChapter(_ context.Context, id int64) (ChapterState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != m.state.ID {
		return ChapterState{}, fmt.Errorf("%w: chapter %d", ErrNotFound, id)
	}
	return m.state, nil
}

func (m *memoryStore) CommitTransition(_ context.Context, next ChapterState, rec Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitHook != nil {
		hook := m.commitHook
		m.commitHook = nil
		hook()
	}
	if next.ID != m.state.ID {
		return fmt.Errorf("%w: chapter %d", ErrNotFound, next.ID)
	}
	if next.Revision != m.state.Revision {
		return fmt.Errorf("%w: revision %d is stale", ErrConflict, next.Revision)
	}
	m.state.Stage = next.Stage
	m.state.Readiness = next.Readiness
	m.state.Revision++
	m.records = append(m.records, rec)
	return nil
}

type staticRoles map[int64]Role

func (r staticRoles) RoleOf(_ context.Context, userID, _ int64) (Role, bool, error) {
	role, ok := r[userID]
	return role, ok, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []TransitionEvent
	fail   error
}

func (s *recordingSink) EmitTransition(_ context.Context, event TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) all() []TransitionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TransitionEvent(nil), s.events...)
}

func newTestEngine(store ChapterStore, roles RoleDirectory, sink EventSink) *Engine {
	return NewEngine(store, roles, sink, logging.NewNop())
}

func TestEngineCommitsTransition(t *testing.T) {
	store := newMemoryStore(chapterAt(StageRaw, Readiness{}))
	roles := staticRoles{7: RoleTranslator}
	sink := &recordingSink{}
	engine := newTestEngine(store, roles, sink)

	state, err := engine.RequestTransition(context.Background(), 1, 7, StageTranslating, "picked up")
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if state.Stage != StageTranslating {
		t.Errorf("stage = %s, want %s", state.Stage, StageTranslating)
	}
	if state.Revision != 1 {
		t.Errorf("revision = %d, want 1", state.Revision)
	}

	if len(store.records) != 1 {
		t.Fatalf("records = %d, want 1", len(store.records))
	}
	record := store.records[0]
	if record.ActorID != 7 || record.Role != RoleTranslator || record.Note != "picked up" {
		t.Errorf("record = %+v", record)
	}
	if record.Timestamp.IsZero() {
		t.Error("record timestamp must be set")
	}

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].ChapterID != 1 || events[0].To != StageTranslating || events[0].ActorID != 7 {
		t.Errorf("event = %+v", events[0])
	}
}

func TestEngineNoopSkipsCommitAndEmission(t *testing.T) {
	store := newMemoryStore(chapterAt(StageEditing, Readiness{TranslationDone: true, CleaningDone: true}))
	roles := staticRoles{7: RoleEditor}
	sink := &recordingSink{}
	engine := newTestEngine(store, roles, sink)

	state, err := engine.RequestTransition(context.Background(), 1, 7, StageEditing, "")
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if state.Revision != 0 {
		t.Errorf("noop must not bump revision, got %d", state.Revision)
	}
	if len(store.records) != 0 {
		t.Errorf("noop must not append records, got %d", len(store.records))
	}
	if len(sink.all()) != 0 {
		t.Error("noop must not emit events")
	}
}

func TestEngineUnknownChapter(t *testing.T) {
	store := newMemoryStore(chapterAt(StageRaw, Readiness{}))
	engine := newTestEngine(store, staticRoles{7: RoleTranslator}, &recordingSink{})

	_, err := engine.RequestTransition(context.Background(), 99, 7, StageTranslating, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestEngineUnknownUserMapsToNotFound(t *testing.T) {
	store := newMemoryStore(chapterAt(StageRaw, Readiness{}))
	engine := newTestEngine(store, staticRoles{}, &recordingSink{})

	_, err := engine.RequestTransition(context.Background(), 1, 42, StageTranslating, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestEngineValidationErrorsPassThrough(t *testing.T) {
	store := newMemoryStore(chapterAt(StageRaw, Readiness{}))
	roles := staticRoles{1: RoleEditor, 2: RoleLeader}
	engine := newTestEngine(store, roles, &recordingSink{})
	ctx := context.Background()

	if _, err := engine.RequestTransition(ctx, 1, 1, StageTranslating, ""); !errors.Is(err, ErrUnauthorizedRole) {
		t.Errorf("editor start: err = %v, want ErrUnauthorizedRole", err)
	}
	if _, err := engine.RequestTransition(ctx, 1, 2, StageDone, ""); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("raw to done: err = %v, want ErrIllegalTransition", err)
	}
	if len(store.records) != 0 {
		t.Errorf("failed requests must not commit, got %d records", len(store.records))
	}
}

func TestEngineConflictResolvedWhenTargetHolds(t *testing.T) {
	store := newMemoryStore(chapterAt(StageTranslating, Readiness{}))
	roles := staticRoles{7: RoleTranslator}
	engine := newTestEngine(store, roles, &recordingSink{})

	// A racing writer completes translation between this request's load and
	// commit. The engine must reload and report idempotent success.
	store.commitHook = func() {
		store.state.Readiness.TranslationDone = true
		store.state.Revision++
	}

	state, err := engine.RequestTransition(context.Background(), 1, 7, StageTranslating, "")
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if !state.Readiness.TranslationDone {
		t.Error("resolved state must show translation complete")
	}
}

func TestEngineConflictSurfacesWhenTargetLost(t *testing.T) {
	store := newMemoryStore(chapterAt(StageTranslating, Readiness{TranslationDone: true}))
	roles := staticRoles{7: RoleCleaner}
	engine := newTestEngine(store, roles, &recordingSink{})

	// A racing writer flips the chapter without satisfying this request's
	// target, so the conflict must surface as retryable.
	store.commitHook = func() {
		store.state.Revision++
	}

	_, err := engine.RequestTransition(context.Background(), 1, 7, StageCleaning, "")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestEngineSinkFailureDoesNotFailRequest(t *testing.T) {
	store := newMemoryStore(chapterAt(StageRaw, Readiness{}))
	roles := staticRoles{7: RoleTranslator}
	sink := &recordingSink{fail: errors.New("sink down")}
	engine := newTestEngine(store, roles, sink)

	state, err := engine.RequestTransition(context.Background(), 1, 7, StageTranslating, "")
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if state.Stage != StageTranslating {
		t.Errorf("stage = %s, want %s", state.Stage, StageTranslating)
	}
}

// TestEngineConcurrentSameTarget races two members toward the same target.
// Exactly one commit lands; the loser resolves to idempotent success.
func TestEngineConcurrentSameTarget(t *testing.T) {
	store := newMemoryStore(chapterAt(StageTranslating, Readiness{}))
	roles := staticRoles{7: RoleTranslator, 8: RoleLeader}
	engine := newTestEngine(store, roles, &recordingSink{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []int64{7, 8} {
		wg.Add(1)
		go func(slot int, actorID int64) {
			defer wg.Done()
			_, errs[slot] = engine.RequestTransition(context.Background(), 1, actorID, StageTranslating, "")
		}(i, actor)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d: %v", i, err)
		}
	}
	if !store.state.Readiness.TranslationDone {
		t.Error("translation must be complete")
	}
	if len(store.records) != 1 {
		t.Errorf("records = %d, want exactly 1 committed self-edge", len(store.records))
	}
}

func TestEngineActionableRoles(t *testing.T) {
	store := newMemoryStore(chapterAt(StageCleaning, Readiness{TranslationDone: true, CleaningDone: true}))
	engine := newTestEngine(store, staticRoles{}, &recordingSink{})

	got, err := engine.ActionableRoles(context.Background(), 1)
	if err != nil {
		t.Fatalf("ActionableRoles: %v", err)
	}
	want := map[Role]bool{RoleLeader: true, RoleEditor: true}
	if len(got) != len(want) {
		t.Fatalf("roles = %v", got)
	}
	for _, role := range got {
		if !want[role] {
			t.Errorf("unexpected role %s", role)
		}
	}
}
