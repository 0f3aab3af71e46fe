// Package testutil holds deterministic test doubles shared across packages.
package testutil

import (
	"sync"

	"github.com/triple-play-labs/diamondx/internal/event"
)

// Recorder is an event handler that keeps every event it receives.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex,
// so one Recorder can observe every run of a parallel batch.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Handle records ev. Never fails.
func (r *Recorder) Handle(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded type tags in arrival order.
func (r *Recorder) Types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t event.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
