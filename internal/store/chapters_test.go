package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"scanhub/internal/store"
	"scanhub/internal/testsupport"
	"scanhub/internal/workflow"
)

func seedWorkspace(t *testing.T) (*store.Store, *store.Project, *store.Chapter) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	team := testsupport.SeedTeam(t, st, "night-owls", 1)
	project := testsupport.SeedProject(t, st, team.ID, "Tower of God")
	chapter := testsupport.SeedChapter(t, st, project.ID, "ch. 1")
	return st, project, chapter
}

func TestCreateChapterStartsRaw(t *testing.T) {
	_, _, chapter := seedWorkspace(t)

	if chapter.Stage != workflow.StageRaw {
		t.Errorf("stage = %s, want raw", chapter.Stage)
	}
	if chapter.Revision != 0 {
		t.Errorf("revision = %d, want 0", chapter.Revision)
	}
	if chapter.Readiness.TranslationDone || chapter.Readiness.CleaningDone {
		t.Errorf("readiness = %+v, want zero", chapter.Readiness)
	}
}

func TestLoadChapterIncludesTeam(t *testing.T) {
	st, project, chapter := seedWorkspace(t)

	state, err := st.LoadChapter(context.Background(), chapter.ID)
	if err != nil {
		t.Fatalf("load chapter: %v", err)
	}
	if state.ProjectID != project.ID {
		t.Errorf("project = %d, want %d", state.ProjectID, project.ID)
	}
	if state.TeamID != project.TeamID {
		t.Errorf("team = %d, want %d", state.TeamID, project.TeamID)
	}
}

func TestLoadChapterMissingWrapsNotFound(t *testing.T) {
	st, _, _ := seedWorkspace(t)

	_, err := st.LoadChapter(context.Background(), 9999)
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func commitStep(t *testing.T, st *store.Store, state workflow.ChapterState, role workflow.Role, target workflow.Stage) workflow.ChapterState {
	t.Helper()
	decision, err := workflow.Decide(state, role, target)
	if err != nil {
		t.Fatalf("decide %s -> %s: %v", state.Stage, target, err)
	}
	if decision.Noop {
		return state
	}
	next := state
	next.Stage = decision.Stage
	next.Readiness = decision.Readiness
	record := decision.Record
	record.ActorID = 1
	record.Timestamp = time.Now().UTC()
	if err := st.CommitTransition(context.Background(), next, record); err != nil {
		t.Fatalf("commit %s -> %s: %v", state.Stage, target, err)
	}
	next.Revision++
	return next
}

func TestCommitTransitionPersistsStateAndHistory(t *testing.T) {
	st, _, chapter := seedWorkspace(t)
	ctx := context.Background()

	state, err := st.LoadChapter(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	state = commitStep(t, st, state, workflow.RoleTranslator, workflow.StageTranslating)
	state = commitStep(t, st, state, workflow.RoleTranslator, workflow.StageTranslating)

	fresh, err := st.LoadChapter(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.Stage != workflow.StageTranslating {
		t.Errorf("stage = %s", fresh.Stage)
	}
	if !fresh.Readiness.TranslationDone {
		t.Error("translation must be complete")
	}
	if fresh.Revision != 2 {
		t.Errorf("revision = %d, want 2", fresh.Revision)
	}

	records, err := st.TransitionsFor(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("transitions: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Seq != 1 || records[1].Seq != 2 {
		t.Errorf("seq = %d, %d; want 1, 2", records[0].Seq, records[1].Seq)
	}
	if records[1].From != workflow.StageTranslating || records[1].To != workflow.StageTranslating {
		t.Errorf("self-edge record = %s->%s", records[1].From, records[1].To)
	}
}

func TestCommitTransitionStaleRevisionConflicts(t *testing.T) {
	st, _, chapter := seedWorkspace(t)
	ctx := context.Background()

	state, err := st.LoadChapter(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Two writers load the same revision; the second commit must lose.
	stale := state
	commitStep(t, st, state, workflow.RoleTranslator, workflow.StageTranslating)

	next := stale
	next.Stage = workflow.StageCleaning
	err = st.CommitTransition(ctx, next, workflow.Transition{
		From:      stale.Stage,
		To:        workflow.StageCleaning,
		Role:      workflow.RoleCleaner,
		ActorID:   2,
		Timestamp: time.Now().UTC(),
	})
	if !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// The losing commit must leave no history behind.
	records, err := st.TransitionsFor(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("transitions: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
}

func TestCommitTransitionUnknownChapter(t *testing.T) {
	st, _, _ := seedWorkspace(t)

	err := st.CommitTransition(context.Background(), workflow.ChapterState{ID: 777}, workflow.Transition{
		From:      workflow.StageRaw,
		To:        workflow.StageTranslating,
		Role:      workflow.RoleTranslator,
		Timestamp: time.Now().UTC(),
	})
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListChaptersFilters(t *testing.T) {
	st, project, chapter := seedWorkspace(t)
	ctx := context.Background()

	second := testsupport.SeedChapter(t, st, project.ID, "ch. 2")

	state, err := st.LoadChapter(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	commitStep(t, st, state, workflow.RoleTranslator, workflow.StageTranslating)

	raw, err := st.ListChapters(ctx, store.ChapterFilter{
		ProjectID: project.ID,
		Stages:    []workflow.Stage{workflow.StageRaw},
	})
	if err != nil {
		t.Fatalf("list raw: %v", err)
	}
	if len(raw) != 1 || raw[0].ID != second.ID {
		t.Fatalf("raw chapters = %+v", raw)
	}

	all, err := st.ListChapters(ctx, store.ChapterFilter{ProjectID: project.ID})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all chapters = %d, want 2", len(all))
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	st, project, chapter := seedWorkspace(t)
	ctx := context.Background()

	state, err := st.LoadChapter(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	commitStep(t, st, state, workflow.RoleTranslator, workflow.StageTranslating)

	if err := st.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	gone, err := st.ChapterByID(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("chapter by id: %v", err)
	}
	if gone != nil {
		t.Fatal("chapter must be removed with its project")
	}
	records, err := st.TransitionsFor(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("transitions: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}

func TestDeleteChapterUnknown(t *testing.T) {
	st, _, chapter := seedWorkspace(t)
	ctx := context.Background()

	if err := st.DeleteChapter(ctx, chapter.ID); err != nil {
		t.Fatalf("delete chapter: %v", err)
	}
	if err := st.DeleteChapter(ctx, chapter.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHealthCountsPhases(t *testing.T) {
	st, project, chapter := seedWorkspace(t)
	ctx := context.Background()

	testsupport.SeedChapter(t, st, project.ID, "ch. 2")

	state, err := st.LoadChapter(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	state = commitStep(t, st, state, workflow.RoleTranslator, workflow.StageTranslating)
	state = commitStep(t, st, state, workflow.RoleTranslator, workflow.StageTranslating)
	state = commitStep(t, st, state, workflow.RoleCleaner, workflow.StageCleaning)
	state = commitStep(t, st, state, workflow.RoleCleaner, workflow.StageCleaning)
	commitStep(t, st, state, workflow.RoleEditor, workflow.StageEditing)

	summary, err := st.Health(ctx, project.ID)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if summary.Total != 2 {
		t.Errorf("total = %d, want 2", summary.Total)
	}
	if summary.Raw != 1 {
		t.Errorf("raw = %d, want 1", summary.Raw)
	}
	if summary.Editing != 1 {
		t.Errorf("editing = %d, want 1", summary.Editing)
	}
}
