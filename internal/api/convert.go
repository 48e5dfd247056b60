package api

import (
	"time"

	"scanhub/internal/store"
	"scanhub/internal/workflow"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// FromTeam converts a stored team into its transport form.
func FromTeam(team *store.Team) Team {
	return Team{
		ID:        team.ID,
		Name:      team.Name,
		CreatorID: team.CreatorID,
		Status:    string(team.Status),
		CreatedAt: formatTime(team.CreatedAt),
	}
}

// FromMembership converts a stored membership into its transport form.
func FromMembership(member *store.Membership) Member {
	return Member{
		TeamID:   member.TeamID,
		UserID:   member.UserID,
		Role:     string(member.Role),
		JoinedAt: formatTime(member.JoinedAt),
	}
}

// FromProject converts a stored project into its transport form.
func FromProject(project *store.Project) Project {
	return Project{
		ID:          project.ID,
		TeamID:      project.TeamID,
		Title:       project.Title,
		Description: project.Description,
		Kind:        string(project.Kind),
		AgeRating:   string(project.AgeRating),
		Status:      string(project.Status),
		CreatedAt:   formatTime(project.CreatedAt),
	}
}

// FromChapter converts a stored chapter into its transport form. The
// actionable roles for the chapter's current state are attached for display.
func FromChapter(chapter *store.Chapter) Chapter {
	roles := workflow.ActionableRoles(chapter.Stage, chapter.Readiness)
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return Chapter{
		ID:        chapter.ID,
		ProjectID: chapter.ProjectID,
		Title:     chapter.Title,
		Stage:     string(chapter.Stage),
		Readiness: Readiness{
			TranslationDone: chapter.Readiness.TranslationDone,
			CleaningDone:    chapter.Readiness.CleaningDone,
		},
		Revision:        chapter.Revision,
		ActionableRoles: names,
		CreatedAt:       formatTime(chapter.CreatedAt),
		UpdatedAt:       formatTime(chapter.UpdatedAt),
	}
}

// FromChapterState converts an engine result into the transport chapter form.
// Creation and update timestamps are not part of engine state and stay empty.
func FromChapterState(state workflow.ChapterState) Chapter {
	roles := workflow.ActionableRoles(state.Stage, state.Readiness)
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return Chapter{
		ID:        state.ID,
		ProjectID: state.ProjectID,
		Title:     state.Title,
		Stage:     string(state.Stage),
		Readiness: Readiness{
			TranslationDone: state.Readiness.TranslationDone,
			CleaningDone:    state.Readiness.CleaningDone,
		},
		Revision:        state.Revision,
		ActionableRoles: names,
	}
}

// FromTransition converts a stored history record into its transport form.
func FromTransition(record *store.TransitionRecord) Transition {
	return Transition{
		Seq:       record.Seq,
		From:      string(record.From),
		To:        string(record.To),
		Role:      string(record.Role),
		ActorID:   record.ActorID,
		Note:      record.Note,
		CreatedAt: formatTime(record.CreatedAt),
	}
}

// FromGlossaryTerm converts a stored glossary term into its transport form.
func FromGlossaryTerm(term *store.GlossaryTerm) GlossaryTerm {
	return GlossaryTerm{
		ID:         term.ID,
		ProjectID:  term.ProjectID,
		Term:       term.Term,
		Definition: term.Definition,
		CreatedBy:  term.CreatedBy,
		UpdatedAt:  formatTime(term.UpdatedAt),
	}
}

// FromAuditEntry converts a stored audit record into its transport form.
func FromAuditEntry(entry *store.AuditEntry) AuditEntry {
	return AuditEntry{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		ObjectType: entry.ObjectType,
		ObjectID:   entry.ObjectID,
		Details:    entry.Details,
		CreatedAt:  formatTime(entry.CreatedAt),
	}
}

// FromHealth converts a stored health summary into its transport form.
func FromHealth(summary store.HealthSummary) Health {
	return Health{
		Total:       summary.Total,
		Raw:         summary.Raw,
		Drafting:    summary.Drafting,
		Editing:     summary.Editing,
		Typesetting: summary.Typesetting,
		Done:        summary.Done,
	}
}
