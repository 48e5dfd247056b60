// Package daemon hosts the scanhubd runtime: the SQLite store, the workflow
// engine with its audit sink, and the HTTP API server.
//
// A file lock in the data directory guarantees a single daemon instance.
// Shutdown is cooperative: Start returns immediately and the server drains on
// context cancellation.
//
// The API maps the workflow error taxonomy onto HTTP statuses: missing
// objects and role lookups are 404, role denials are 403, illegal transitions
// and unmet prerequisites are 409, and lost revision races are 409 with a
// retryable flag.
package daemon
