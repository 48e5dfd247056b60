// Package workflow owns the chapter translation state machine.
//
// A chapter moves from raw through a drafting phase where translation and
// cleaning run in parallel, then through editing and typesetting to done.
// The decision logic is pure: Decide evaluates a requested transition against
// the chapter's current stage, readiness flags, and the acting role, and
// yields either a state update plus an immutable transition record or one of
// the taxonomy errors. Current stage is always derived from the last
// committed transition; it is never settable on its own.
//
// The Engine wraps Decide with the collaborators a request needs: a chapter
// store with compare-and-swap commits, a role directory resolving a user's
// role within the owning team, and an audit sink that receives transition
// events best-effort after commit.
//
// Extend the lifecycle by adding Stage values, teaching the transition table
// about the new edges, and updating ActionableRoles; this package is the
// authoritative home for that logic.
package workflow
