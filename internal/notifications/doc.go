// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. Each
// notification category (stage advances, completions, errors) can be switched
// off individually without touching call sites.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the simple Service interface.
package notifications
