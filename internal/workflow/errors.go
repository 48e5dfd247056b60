package workflow

import "errors"

// Error taxonomy for transition requests. Validation failures are pure: no
// chapter state changes on any of these paths.
var (
	// ErrIllegalTransition means no edge exists from the current stage to the
	// requested target.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrUnauthorizedRole means the acting role is not permitted on the edge.
	ErrUnauthorizedRole = errors.New("role not authorized for transition")
	// ErrPrerequisiteNotMet means a parallel sibling stage has not been
	// completed yet.
	ErrPrerequisiteNotMet = errors.New("prerequisite stage not complete")
	// ErrNotFound means the chapter, or the acting user's role within the
	// owning team, could not be resolved.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a concurrent writer committed first; the caller may
	// retry against fresh state.
	ErrConflict = errors.New("conflicting concurrent update")
)
