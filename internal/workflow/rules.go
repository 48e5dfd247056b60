package workflow

import "fmt"

// edgeRoles maps each transition target to the roles allowed to request it.
// The leader is authorized for every edge; other roles only for the edge
// whose target matches their function.
var edgeRoles = map[Stage][]Role{
	StageTranslating: {RoleTranslator, RoleLeader},
	StageCleaning:    {RoleCleaner, RoleLeader},
	StageEditing:     {RoleEditor, RoleLeader},
	StageTypesetting: {RoleTypesetter, RoleLeader},
	StageDone:        {RoleLeader},
}

// Decision is the outcome of evaluating a transition request. When Noop is
// set the requested target already holds and nothing must be committed.
// Otherwise Stage, Readiness, and Record describe the full state update to
// commit atomically.
type Decision struct {
	Noop      bool
	Stage     Stage
	Readiness Readiness
	Record    Transition
}

// Decide evaluates a transition request against the chapter's current state.
// Validation order: edge existence, role authorization, idempotence,
// prerequisites. All failures are pure.
func Decide(state ChapterState, role Role, target Stage) (Decision, error) {
	if !edgeExists(state.Stage, target) {
		return Decision{}, fmt.Errorf("%w: no edge from %s to %s", ErrIllegalTransition, state.Stage, target)
	}
	if !roleAllowed(role, target) {
		return Decision{}, fmt.Errorf("%w: %s may not request %s", ErrUnauthorizedRole, role, target)
	}
	if Satisfied(state, target) {
		return Decision{Noop: true, Stage: state.Stage, Readiness: state.Readiness}, nil
	}

	next := Decision{Stage: target, Readiness: state.Readiness}
	switch target {
	case StageTranslating:
		if state.Stage == StageTranslating {
			next.Readiness.TranslationDone = true
		}
	case StageCleaning:
		if state.Stage == StageCleaning {
			next.Readiness.CleaningDone = true
		}
	case StageEditing:
		if pending := pendingSiblings(state.Readiness); len(pending) > 0 {
			return Decision{}, fmt.Errorf("%w: %s", ErrPrerequisiteNotMet, formatPending(pending))
		}
	}
	next.Record = Transition{From: state.Stage, To: target, Role: role}
	return next, nil
}

// Satisfied reports whether the requested target already holds, which makes a
// repeated request an idempotent no-op rather than an error.
func Satisfied(state ChapterState, target Stage) bool {
	switch target {
	case StageTranslating:
		return state.Readiness.TranslationDone
	case StageCleaning:
		return state.Readiness.CleaningDone
	default:
		return state.Stage == target
	}
}

// ActionableRoles returns the set of roles that may legally act on the
// chapter in its current state. The result serves display purposes only;
// authorization is always re-checked by Decide.
func ActionableRoles(stage Stage, readiness Readiness) []Role {
	include := map[Role]bool{}
	switch phaseOf(stage) {
	case phaseRaw:
		include[RoleTranslator] = true
		include[RoleCleaner] = true
		include[RoleLeader] = true
	case phaseDrafting:
		include[RoleLeader] = true
		if !readiness.TranslationDone {
			include[RoleTranslator] = true
		}
		if !readiness.CleaningDone {
			include[RoleCleaner] = true
		}
		if readiness.TranslationDone && readiness.CleaningDone {
			include[RoleEditor] = true
		}
	case phaseEditing:
		include[RoleTypesetter] = true
		include[RoleLeader] = true
	case phaseTypesetting:
		include[RoleLeader] = true
	case phaseDone:
		// Terminal: no further action is meaningful.
	}

	roles := make([]Role, 0, len(include))
	for _, role := range allRoles {
		if include[role] {
			roles = append(roles, role)
		}
	}
	return roles
}

func edgeExists(from, target Stage) bool {
	switch target {
	case StageTranslating, StageCleaning:
		p := phaseOf(from)
		return p == phaseRaw || p == phaseDrafting
	case StageEditing:
		return phaseOf(from) == phaseDrafting || from == StageEditing
	case StageTypesetting:
		return from == StageEditing || from == StageTypesetting
	case StageDone:
		return from == StageTypesetting || from == StageDone
	default:
		return false
	}
}

func roleAllowed(role Role, target Stage) bool {
	for _, allowed := range edgeRoles[target] {
		if allowed == role {
			return true
		}
	}
	return false
}

func pendingSiblings(readiness Readiness) []Stage {
	var pending []Stage
	if !readiness.TranslationDone {
		pending = append(pending, StageTranslating)
	}
	if !readiness.CleaningDone {
		pending = append(pending, StageCleaning)
	}
	return pending
}

func formatPending(pending []Stage) string {
	switch len(pending) {
	case 1:
		return fmt.Sprintf("%s not complete", pending[0])
	default:
		return fmt.Sprintf("%s and %s not complete", pending[0], pending[1])
	}
}
