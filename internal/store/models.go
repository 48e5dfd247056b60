package store

import (
	"strings"
	"time"

	"scanhub/internal/workflow"
)

// TeamStatus represents the lifecycle of a translation team. Only active
// teams grant their members access.
type TeamStatus string

const (
	TeamActive    TeamStatus = "active"
	TeamSuspended TeamStatus = "suspended"
	TeamDisbanded TeamStatus = "disbanded"
)

// ParseTeamStatus converts a string into a known TeamStatus.
func ParseTeamStatus(value string) (TeamStatus, bool) {
	normalized := TeamStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case TeamActive, TeamSuspended, TeamDisbanded:
		return normalized, true
	default:
		return "", false
	}
}

// Team is a translation team owning projects.
type Team struct {
	ID        int64
	Name      string
	CreatorID int64
	Status    TeamStatus
	CreatedAt time.Time
}

// Membership binds a user to a team with a single workflow role.
type Membership struct {
	TeamID   int64
	UserID   int64
	Role     workflow.Role
	IsActive bool
	JoinedAt time.Time
}

// ProjectKind categorizes the source material.
type ProjectKind string

const (
	KindManga  ProjectKind = "manga"
	KindManhwa ProjectKind = "manhwa"
	KindManhua ProjectKind = "manhua"
)

// ParseProjectKind converts a string into a known ProjectKind.
func ParseProjectKind(value string) (ProjectKind, bool) {
	normalized := ProjectKind(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case KindManga, KindManhwa, KindManhua:
		return normalized, true
	default:
		return "", false
	}
}

// AgeRating marks general or adult-only content.
type AgeRating string

const (
	RatingGeneral AgeRating = "general"
	RatingAdult   AgeRating = "adult"
)

// ParseAgeRating converts a string into a known AgeRating.
func ParseAgeRating(value string) (AgeRating, bool) {
	normalized := AgeRating(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case RatingGeneral, RatingAdult:
		return normalized, true
	default:
		return "", false
	}
}

// ProjectStatus tracks whether a team is still working a title.
type ProjectStatus string

const (
	ProjectTranslating ProjectStatus = "translating"
	ProjectDropped     ProjectStatus = "dropped"
	ProjectCompleted   ProjectStatus = "completed"
	ProjectFrozen      ProjectStatus = "frozen"
)

// ParseProjectStatus converts a string into a known ProjectStatus.
func ParseProjectStatus(value string) (ProjectStatus, bool) {
	normalized := ProjectStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ProjectTranslating, ProjectDropped, ProjectCompleted, ProjectFrozen:
		return normalized, true
	default:
		return "", false
	}
}

// Project is a translated title (manga, manhwa, manhua) owned by a team.
type Project struct {
	ID          int64
	TeamID      int64
	Title       string
	Description string
	Kind        ProjectKind
	AgeRating   AgeRating
	Status      ProjectStatus
	CreatedAt   time.Time
}

// Chapter is the unit of workflow. Stage and readiness are derived from the
// committed transition history; Revision guards concurrent commits.
type Chapter struct {
	ID        int64
	ProjectID int64
	Title     string
	Stage     workflow.Stage
	Readiness workflow.Readiness
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransitionRecord is one committed history entry of a chapter.
type TransitionRecord struct {
	ID        int64
	ChapterID int64
	Seq       int64
	From      workflow.Stage
	To        workflow.Stage
	Role      workflow.Role
	ActorID   int64
	Note      string
	CreatedAt time.Time
}

// GlossaryTerm is one term/definition pair scoped to a project.
type GlossaryTerm struct {
	ID         int64
	ProjectID  int64
	Term       string
	Definition string
	CreatedBy  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AuditEntry is one persisted audit event.
type AuditEntry struct {
	ID         string
	ActorID    int64
	Action     string
	ObjectType string
	ObjectID   int64
	Details    string
	CreatedAt  time.Time
}

// HealthSummary aggregates chapter counts per lifecycle phase.
type HealthSummary struct {
	Total       int
	Raw         int
	Drafting    int
	Editing     int
	Typesetting int
	Done        int
}
