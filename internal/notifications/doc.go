// Package notifications delivers batch outcome events via ntfy.
//
// The ntfy implementation publishes to the topic configured in config.toml and
// degrades to a no-op when no topic is set. Callers publish an Event with a
// Payload map; formatting of titles, tags, and priorities lives here so the
// processor never touches HTTP.
package notifications
