// Package notifications delivers run events via pluggable notifiers.
//
// Two transports are available: ntfy (HTTP POST to the configured topic URL)
// and MQTT (JSON messages published through paho under a topic prefix).
// NewService fans out to whichever transports are configured and gracefully
// degrades to a no-op when neither is. Per-event toggles in the
// [notifications] config section suppress artifact, analysis, or error
// events before they reach any transport.
//
// Callers depend only on the Service interface.
package notifications
