// Package pubsub fans typed events out to any number of subscribers.
package pubsub

import "time"

// EventType names what happened.
type EventType string

const (
	// Load session lifecycle.
	ItemStartedEvent    EventType = "item.started"
	ItemLoadedEvent     EventType = "item.loaded"
	ItemFailedEvent     EventType = "item.failed"
	SessionSettledEvent EventType = "session.settled"

	// LogEntryEvent carries one formatted log line.
	LogEntryEvent EventType = "log.entry"
)

// Event is one published payload. Seq increases by one per Publish call on
// a broker, so a subscriber can tell when events were dropped.
type Event[T any] struct {
	Type      EventType
	Seq       uint64
	Payload   T
	Timestamp time.Time
}

// Publisher accepts events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
