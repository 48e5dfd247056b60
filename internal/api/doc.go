// Package api defines wire-format types, converters, and request services for
// the HTTP layer. It translates internal store and workflow models into
// transport-friendly DTOs so clients never couple to internal types.
//
// DTOs use camelCase JSON tags. Internal enums (stages, roles, statuses) are
// exposed as lowercase strings. Timestamps use RFC3339 with milliseconds.
//
// ChapterService is the single entry point for transition requests: it
// validates input, drives the workflow engine, and dispatches notifications
// after a successful commit. Notification failures are logged and never fail
// the request.
package api
