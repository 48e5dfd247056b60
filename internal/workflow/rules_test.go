package workflow

import (
	"errors"
	"strings"
	"testing"
)

func chapterAt(stage Stage, readiness Readiness) ChapterState {
	return ChapterState{
		ID:        1,
		ProjectID: 10,
		TeamID:    100,
		Title:     "ch. 1",
		Stage:     stage,
		Readiness: readiness,
	}
}

// applyDecision replays a committed decision onto the state the way the store
// would, so scenario tests can step through multiple requests.
func applyDecision(state ChapterState, decision Decision) ChapterState {
	if decision.Noop {
		return state
	}
	state.Stage = decision.Stage
	state.Readiness = decision.Readiness
	state.Revision++
	return state
}

func TestDecideStartingDrafting(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		target Stage
	}{
		{"translator starts translating", RoleTranslator, StageTranslating},
		{"cleaner starts cleaning", RoleCleaner, StageCleaning},
		{"leader starts translating", RoleLeader, StageTranslating},
		{"leader starts cleaning", RoleLeader, StageCleaning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := Decide(chapterAt(StageRaw, Readiness{}), tt.role, tt.target)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if decision.Noop {
				t.Fatal("expected a committed transition, got noop")
			}
			if decision.Stage != tt.target {
				t.Errorf("stage = %s, want %s", decision.Stage, tt.target)
			}
			if decision.Readiness != (Readiness{}) {
				t.Errorf("starting a sibling must not mark it complete: %+v", decision.Readiness)
			}
			if decision.Record.From != StageRaw || decision.Record.To != tt.target {
				t.Errorf("record = %s->%s, want %s->%s", decision.Record.From, decision.Record.To, StageRaw, tt.target)
			}
		})
	}
}

func TestDecideSiblingStartFromOtherSibling(t *testing.T) {
	// Cleaning may begin while the chapter sits in translating; the stage
	// flips but nothing is marked complete.
	decision, err := Decide(chapterAt(StageTranslating, Readiness{}), RoleCleaner, StageCleaning)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Stage != StageCleaning {
		t.Errorf("stage = %s, want %s", decision.Stage, StageCleaning)
	}
	if decision.Readiness.CleaningDone || decision.Readiness.TranslationDone {
		t.Errorf("no sibling may be marked complete: %+v", decision.Readiness)
	}
}

func TestDecideSelfEdgeMarksSiblingComplete(t *testing.T) {
	decision, err := Decide(chapterAt(StageTranslating, Readiness{}), RoleTranslator, StageTranslating)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Noop {
		t.Fatal("first completion must commit, not noop")
	}
	if !decision.Readiness.TranslationDone {
		t.Error("self-edge must set TranslationDone")
	}
	if decision.Record.From != StageTranslating || decision.Record.To != StageTranslating {
		t.Errorf("self-edge record = %s->%s", decision.Record.From, decision.Record.To)
	}

	// Repeating the completed request is idempotent, even from the sibling
	// stage.
	state := chapterAt(StageCleaning, Readiness{TranslationDone: true})
	repeat, err := Decide(state, RoleTranslator, StageTranslating)
	if err != nil {
		t.Fatalf("repeat Decide: %v", err)
	}
	if !repeat.Noop {
		t.Error("repeated completion must be a noop")
	}
}

func TestDecideIllegalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		state  ChapterState
		role   Role
		target Stage
	}{
		{"raw to editing", chapterAt(StageRaw, Readiness{}), RoleLeader, StageEditing},
		{"raw to typesetting", chapterAt(StageRaw, Readiness{}), RoleLeader, StageTypesetting},
		{"raw to done", chapterAt(StageRaw, Readiness{}), RoleLeader, StageDone},
		{"editing back to translating", chapterAt(StageEditing, Readiness{TranslationDone: true, CleaningDone: true}), RoleLeader, StageTranslating},
		{"typesetting to editing", chapterAt(StageTypesetting, Readiness{TranslationDone: true, CleaningDone: true}), RoleLeader, StageEditing},
		{"done to typesetting", chapterAt(StageDone, Readiness{TranslationDone: true, CleaningDone: true}), RoleLeader, StageTypesetting},
		{"done to translating", chapterAt(StageDone, Readiness{TranslationDone: true, CleaningDone: true}), RoleLeader, StageTranslating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decide(tt.state, tt.role, tt.target)
			if !errors.Is(err, ErrIllegalTransition) {
				t.Fatalf("err = %v, want ErrIllegalTransition", err)
			}
		})
	}
}

func TestDecideUnauthorizedRole(t *testing.T) {
	tests := []struct {
		name   string
		state  ChapterState
		role   Role
		target Stage
	}{
		{"editor cannot start translating", chapterAt(StageRaw, Readiness{}), RoleEditor, StageTranslating},
		{"typesetter cannot start cleaning", chapterAt(StageRaw, Readiness{}), RoleTypesetter, StageCleaning},
		{"translator cannot move to editing", chapterAt(StageTranslating, Readiness{TranslationDone: true, CleaningDone: true}), RoleTranslator, StageEditing},
		{"cleaner cannot complete translation", chapterAt(StageTranslating, Readiness{}), RoleCleaner, StageTranslating},
		{"editor cannot finish typesetting", chapterAt(StageTypesetting, Readiness{TranslationDone: true, CleaningDone: true}), RoleEditor, StageDone},
		{"typesetter cannot release", chapterAt(StageTypesetting, Readiness{TranslationDone: true, CleaningDone: true}), RoleTypesetter, StageDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decide(tt.state, tt.role, tt.target)
			if !errors.Is(err, ErrUnauthorizedRole) {
				t.Fatalf("err = %v, want ErrUnauthorizedRole", err)
			}
		})
	}
}

func TestDecideRoleCheckedBeforePrerequisites(t *testing.T) {
	// Cleaner asking for editing with nothing complete must fail on the role,
	// not leak prerequisite details.
	state := chapterAt(StageTranslating, Readiness{})
	_, err := Decide(state, RoleCleaner, StageEditing)
	if !errors.Is(err, ErrUnauthorizedRole) {
		t.Fatalf("err = %v, want ErrUnauthorizedRole", err)
	}
}

func TestDecideEditingPrerequisites(t *testing.T) {
	tests := []struct {
		name      string
		readiness Readiness
		pending   []string
	}{
		{"nothing complete", Readiness{}, []string{"translating", "cleaning"}},
		{"translation pending", Readiness{CleaningDone: true}, []string{"translating"}},
		{"cleaning pending", Readiness{TranslationDone: true}, []string{"cleaning"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decide(chapterAt(StageTranslating, tt.readiness), RoleEditor, StageEditing)
			if !errors.Is(err, ErrPrerequisiteNotMet) {
				t.Fatalf("err = %v, want ErrPrerequisiteNotMet", err)
			}
			for _, name := range tt.pending {
				if !strings.Contains(err.Error(), name) {
					t.Errorf("error %q does not name pending stage %s", err, name)
				}
			}
		})
	}
}

func TestDecideEditingAfterBothSiblings(t *testing.T) {
	state := chapterAt(StageCleaning, Readiness{TranslationDone: true, CleaningDone: true})
	decision, err := Decide(state, RoleEditor, StageEditing)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Stage != StageEditing {
		t.Errorf("stage = %s, want %s", decision.Stage, StageEditing)
	}
}

func TestDecideDoneIsTerminalButIdempotent(t *testing.T) {
	state := chapterAt(StageDone, Readiness{TranslationDone: true, CleaningDone: true})
	decision, err := Decide(state, RoleLeader, StageDone)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !decision.Noop {
		t.Error("done re-request must be a noop")
	}
}

func TestDecideIdempotentRepeats(t *testing.T) {
	tests := []struct {
		name   string
		state  ChapterState
		role   Role
		target Stage
	}{
		{"editing again", chapterAt(StageEditing, Readiness{TranslationDone: true, CleaningDone: true}), RoleEditor, StageEditing},
		{"typesetting again", chapterAt(StageTypesetting, Readiness{TranslationDone: true, CleaningDone: true}), RoleTypesetter, StageTypesetting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := Decide(tt.state, tt.role, tt.target)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if !decision.Noop {
				t.Error("expected noop")
			}
		})
	}
}

// TestHappyPathScenario walks a chapter from raw to done through both
// drafting siblings.
func TestHappyPathScenario(t *testing.T) {
	state := chapterAt(StageRaw, Readiness{})

	steps := []struct {
		role   Role
		target Stage
	}{
		{RoleTranslator, StageTranslating}, // start translation
		{RoleTranslator, StageTranslating}, // translation complete
		{RoleCleaner, StageCleaning},       // cleaning starts
		{RoleCleaner, StageCleaning},       // cleaning complete
		{RoleEditor, StageEditing},
		{RoleTypesetter, StageTypesetting},
		{RoleLeader, StageDone},
	}
	for i, step := range steps {
		decision, err := Decide(state, step.role, step.target)
		if err != nil {
			t.Fatalf("step %d (%s -> %s): %v", i, step.role, step.target, err)
		}
		state = applyDecision(state, decision)
	}
	if state.Stage != StageDone {
		t.Fatalf("final stage = %s, want %s", state.Stage, StageDone)
	}
	if !state.Readiness.TranslationDone || !state.Readiness.CleaningDone {
		t.Fatalf("final readiness = %+v", state.Readiness)
	}
	// The self-edge completions must have been commits, not noops.
	if state.Revision != int64(len(steps)) {
		t.Fatalf("revision = %d, want %d", state.Revision, len(steps))
	}
}

func TestActionableRoles(t *testing.T) {
	tests := []struct {
		name      string
		stage     Stage
		readiness Readiness
		want      []Role
	}{
		{"raw", StageRaw, Readiness{}, []Role{RoleLeader, RoleTranslator, RoleCleaner}},
		{"drafting open", StageTranslating, Readiness{}, []Role{RoleLeader, RoleTranslator, RoleCleaner}},
		{"translation complete", StageCleaning, Readiness{TranslationDone: true}, []Role{RoleLeader, RoleCleaner}},
		{"both complete", StageCleaning, Readiness{TranslationDone: true, CleaningDone: true}, []Role{RoleLeader, RoleEditor}},
		{"editing", StageEditing, Readiness{TranslationDone: true, CleaningDone: true}, []Role{RoleLeader, RoleTypesetter}},
		{"typesetting", StageTypesetting, Readiness{TranslationDone: true, CleaningDone: true}, []Role{RoleLeader}},
		{"done", StageDone, Readiness{TranslationDone: true, CleaningDone: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActionableRoles(tt.stage, tt.readiness)
			if len(got) != len(tt.want) {
				t.Fatalf("roles = %v, want %v", got, tt.want)
			}
			want := map[Role]bool{}
			for _, role := range tt.want {
				want[role] = true
			}
			for _, role := range got {
				if !want[role] {
					t.Errorf("unexpected role %s in %v (want %v)", role, got, tt.want)
				}
			}
		})
	}
}

func TestSatisfied(t *testing.T) {
	state := chapterAt(StageCleaning, Readiness{TranslationDone: true})
	if !Satisfied(state, StageTranslating) {
		t.Error("completed translation must satisfy a translating request")
	}
	if Satisfied(state, StageCleaning) {
		t.Error("open cleaning must not satisfy a cleaning request")
	}
	if Satisfied(state, StageEditing) {
		t.Error("editing is not satisfied while drafting")
	}
	if !Satisfied(chapterAt(StageDone, Readiness{}), StageDone) {
		t.Error("done must satisfy done")
	}
}
