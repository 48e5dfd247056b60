// Package logging configures slog for the scanhub daemon and CLI.
//
// New builds a logger from Options with either a console (pretty) or JSON
// handler; NewFromConfig applies application config defaults and tees output
// into the configured log directory. Attr helpers keep field construction
// uniform across packages, and NewComponentLogger stamps the standard
// component attribute used by the console handler's prefix.
package logging
