// Package event implements the simulation event log and dispatcher.
//
// The Scheduler is an append-only, sequenced, timestamped log of domain
// events with synchronous fan-out to registered handlers. It serves both as
// the audit trail of a run and as the channel through which the rules engine
// talks to external consumers (narration, metrics, persistence).
//
// # Ordering
//
// Every published event is stamped with a strictly increasing sequence
// number (starting at 1) and the scheduler's current simulated time. Both are
// assigned under one exclusive section together with the log append, so
// concurrent publishers never observe duplicate or out-of-order numbers.
//
// # Handler isolation
//
// Handlers run inline with Publish, outside the exclusive section. A handler
// that returns an error or panics is logged and skipped; the remaining
// handlers still receive the event and the publisher never sees the failure.
package event

import (
	"encoding/json"
	"time"
)

// Type is the string tag identifying an event variant.
type Type string

// Payload is implemented by every concrete event variant.
//
// Variants are plain data structs owned by the package that publishes them
// (baseball, weather). Consumers switch over the concrete type.
type Payload interface {
	EventType() Type
}

// Event is an immutable published record.
type Event struct {
	Seq     int64         `json:"seq"`
	Time    time.Duration `json:"time"`
	Type    Type          `json:"type"`
	Payload Payload       `json:"payload"`
}

// MarshalPayload returns the JSON encoding of the event payload.
func (e Event) MarshalPayload() ([]byte, error) {
	return json.Marshal(e.Payload)
}

// Handler consumes published events.
//
// Handle runs synchronously inside Publish and must not block for unbounded
// time.
type Handler interface {
	Handle(ev Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ev Event) error

// Handle calls f(ev).
func (f HandlerFunc) Handle(ev Event) error {
	if f == nil {
		return nil
	}
	return f(ev)
}

// HandlerID identifies a registration for later removal.
type HandlerID int64

// Publisher is the write side of the scheduler, used by models that only
// need to emit events.
type Publisher interface {
	Publish(p Payload) Event
}
