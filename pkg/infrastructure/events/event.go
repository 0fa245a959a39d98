// Package events holds the audit trail of ledger changes. Every event
// belongs to a stream (a property id, or an owner id for bulk clears) and is
// numbered from 1 within that stream.
package events

import (
	"time"
)

// Event is a single recorded change
type Event interface {
	Type() string
	StreamID() string
	Data() any
	Timestamp() time.Time
	// Version is the 1-based position within the stream, assigned by the store
	Version() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends and replays events. Subscribers see events only after
// they are stored.
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
	Close() error
}

type BaseEvent struct {
	EventType    string    `json:"type"`
	Stream       string    `json:"stream_id"`
	EventData    any       `json:"data"`
	EventTime    time.Time `json:"timestamp"`
	EventVersion int       `json:"version"`
}

func (e BaseEvent) Type() string         { return e.EventType }
func (e BaseEvent) StreamID() string     { return e.Stream }
func (e BaseEvent) Data() any            { return e.EventData }
func (e BaseEvent) Timestamp() time.Time { return e.EventTime }
func (e BaseEvent) Version() int         { return e.EventVersion }

// NewEvent creates an unversioned event stamped with the wall clock
func NewEvent(eventType, streamID string, data any) Event {
	return BaseEvent{
		EventType: eventType,
		Stream:    streamID,
		EventData: data,
		EventTime: time.Now(),
	}
}

// Stamped returns a copy of e recorded at the given time
func Stamped(e Event, at time.Time) Event {
	b := copyOf(e)
	b.EventTime = at
	return b
}

// Versioned returns a copy of e placed in streamID at version, with data
// replaced when it is non-nil
func Versioned(e Event, streamID string, version int, data any) BaseEvent {
	b := copyOf(e)
	b.Stream = streamID
	b.EventVersion = version
	if data != nil {
		b.EventData = data
	}
	return b
}

func copyOf(e Event) BaseEvent {
	return BaseEvent{
		EventType:    e.Type(),
		Stream:       e.StreamID(),
		EventData:    e.Data(),
		EventTime:    e.Timestamp(),
		EventVersion: e.Version(),
	}
}

// HandlerFunc adapts a function to EventHandler for the given event types
type HandlerFunc struct {
	Types []string
	Fn    func(Event) error
}

func (h *HandlerFunc) Handle(event Event) error {
	return h.Fn(event)
}

func (h *HandlerFunc) CanHandle(eventType string) bool {
	for _, t := range h.Types {
		if t == eventType {
			return true
		}
	}
	return false
}
