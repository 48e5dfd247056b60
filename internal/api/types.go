package api

// Team is the transport representation of a translation team.
type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatorID int64  `json:"creatorId"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// Member is the transport representation of a team membership.
type Member struct {
	TeamID   int64  `json:"teamId"`
	UserID   int64  `json:"userId"`
	Role     string `json:"role"`
	JoinedAt string `json:"joinedAt"`
}

// Project is the transport representation of a translated title.
type Project struct {
	ID          int64  `json:"id"`
	TeamID      int64  `json:"teamId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind"`
	AgeRating   string `json:"ageRating"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

// Readiness reports which drafting siblings have finished.
type Readiness struct {
	TranslationDone bool `json:"translationDone"`
	CleaningDone    bool `json:"cleaningDone"`
}

// Chapter is the transport representation of a chapter with its workflow
// state. ActionableRoles is advisory; the daemon re-checks on every request.
type Chapter struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"projectId"`
	Title           string    `json:"title"`
	Stage           string    `json:"stage"`
	Readiness       Readiness `json:"readiness"`
	Revision        int64     `json:"revision"`
	ActionableRoles []string  `json:"actionableRoles,omitempty"`
	CreatedAt       string    `json:"createdAt"`
	UpdatedAt       string    `json:"updatedAt"`
}

// Transition is one committed chapter history entry.
type Transition struct {
	Seq       int64  `json:"seq"`
	From      string `json:"from"`
	To        string `json:"to"`
	Role      string `json:"role"`
	ActorID   int64  `json:"actorId"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// TransitionRequest asks the daemon to move a chapter toward a target stage
// on behalf of the acting user.
type TransitionRequest struct {
	ActorID int64  `json:"actorId"`
	Target  string `json:"target"`
	Note    string `json:"note,omitempty"`
}

// GlossaryTerm is the transport representation of a glossary entry.
type GlossaryTerm struct {
	ID         int64  `json:"id"`
	ProjectID  int64  `json:"projectId"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
	CreatedBy  int64  `json:"createdBy"`
	UpdatedAt  string `json:"updatedAt"`
}

// AuditEntry is the transport representation of one audit log record.
type AuditEntry struct {
	ID         string `json:"id"`
	ActorID    int64  `json:"actorId"`
	Action     string `json:"action"`
	ObjectType string `json:"objectType"`
	ObjectID   int64  `json:"objectId"`
	Details    string `json:"details"`
	CreatedAt  string `json:"createdAt"`
}

// Health aggregates chapter counts per lifecycle phase.
type Health struct {
	Total       int `json:"total"`
	Raw         int `json:"raw"`
	Drafting    int `json:"drafting"`
	Editing     int `json:"editing"`
	Typesetting int `json:"typesetting"`
	Done        int `json:"done"`
}

// Error is the transport representation of a request failure. Retryable marks
// conflicts the client may simply re-issue.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}
