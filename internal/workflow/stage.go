package workflow

import "strings"

// Stage represents a named point in a chapter's translation lifecycle.
type Stage string

const (
	StageRaw         Stage = "raw"
	StageTranslating Stage = "translating"
	StageCleaning    Stage = "cleaning"
	StageEditing     Stage = "editing"
	StageTypesetting Stage = "typesetting"
	StageDone        Stage = "done"
)

var allStages = []Stage{
	StageRaw,
	StageTranslating,
	StageCleaning,
	StageEditing,
	StageTypesetting,
	StageDone,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the stage ends the lifecycle.
func (s Stage) IsTerminal() bool {
	return s == StageDone
}

// phase groups stages that share transition semantics. Translating and
// cleaning are siblings inside one drafting phase: both run in parallel and
// each must be marked complete before editing may start.
type phase int

const (
	phaseRaw phase = iota
	phaseDrafting
	phaseEditing
	phaseTypesetting
	phaseDone
)

func phaseOf(s Stage) phase {
	switch s {
	case StageTranslating, StageCleaning:
		return phaseDrafting
	case StageEditing:
		return phaseEditing
	case StageTypesetting:
		return phaseTypesetting
	case StageDone:
		return phaseDone
	default:
		return phaseRaw
	}
}
