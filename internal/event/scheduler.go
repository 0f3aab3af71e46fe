package event

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNegativeDelta is returned when time would be advanced by a negative amount.
	ErrNegativeDelta = errors.New("time delta must be non-negative")

	// ErrTimeBackwards is returned when time would be set earlier than now.
	ErrTimeBackwards = errors.New("simulated time cannot move backwards")
)

// registration binds a handler to its type filter.
// An empty filter matches every event.
type registration struct {
	id      HandlerID
	handler Handler
	filter  map[Type]struct{}
}

func (r registration) matches(t Type) bool {
	if len(r.filter) == 0 {
		return true
	}
	_, ok := r.filter[t]
	return ok
}

// Scheduler is the sequenced event log with synchronous dispatch.
//
// Thread-safety model:
//   - Publish, Register, Unregister, time and log operations share one mutex
//   - handlers are invoked after the mutex is released, so a handler may
//     publish follow-on events without deadlocking
//
// INVARIANTS:
//   - Seq values strictly increase by exactly 1 between Reset calls
//   - An event is appended to the log before any handler sees it
//   - Logged events are never mutated
type Scheduler struct {
	mu       sync.Mutex
	seq      int64
	now      time.Duration
	log      []Event
	handlers []registration
	nextID   HandlerID
	logger   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used to report handler failures.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates an empty scheduler at time zero.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		log:    make([]Event, 0, 256),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish stamps p with the next sequence number and the current simulated
// time, appends it to the log and dispatches it to matching handlers.
//
// Panics if p is nil: publishing nothing is a programming error.
func (s *Scheduler) Publish(p Payload) Event {
	if p == nil {
		panic("event: publish called with nil payload")
	}

	s.mu.Lock()
	s.seq++
	ev := Event{
		Seq:     s.seq,
		Time:    s.now,
		Type:    p.EventType(),
		Payload: p,
	}
	s.log = append(s.log, ev)

	// Snapshot handlers under the lock; dispatch happens after release.
	handlers := make([]registration, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, reg := range handlers {
		if !reg.matches(ev.Type) {
			continue
		}
		s.dispatch(reg, ev)
	}

	return ev
}

// dispatch invokes one handler, isolating errors and panics.
func (s *Scheduler) dispatch(reg registration, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event handler panicked",
				"handler_id", reg.id,
				"event_type", ev.Type,
				"seq", ev.Seq,
				"panic", fmt.Sprint(r),
			)
		}
	}()

	if err := reg.handler.Handle(ev); err != nil {
		s.logger.Error("event handler failed",
			"handler_id", reg.id,
			"event_type", ev.Type,
			"seq", ev.Seq,
			"error", err,
		)
	}
}

// Register adds a handler. With no types the handler receives every event;
// otherwise only events whose type tag is listed.
func (s *Scheduler) Register(h Handler, types ...Type) HandlerID {
	if h == nil {
		panic("event: register called with nil handler")
	}

	var filter map[Type]struct{}
	if len(types) > 0 {
		filter = make(map[Type]struct{}, len(types))
		for _, t := range types {
			filter[t] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, registration{id: id, handler: h, filter: filter})
	return id
}

// RegisterFunc is shorthand for Register(HandlerFunc(fn), types...).
func (s *Scheduler) RegisterFunc(fn func(Event) error, types ...Type) HandlerID {
	return s.Register(HandlerFunc(fn), types...)
}

// Unregister removes a handler. Returns false if id was not registered.
// Events already being dispatched may still reach the handler.
func (s *Scheduler) Unregister(id HandlerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, reg := range s.handlers {
		if reg.id == id {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// HandlerCount returns the number of registered handlers.
func (s *Scheduler) HandlerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Now returns the current simulated time.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// AdvanceTime moves simulated time forward by d.
func (s *Scheduler) AdvanceTime(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("advance time by %v: %w", d, ErrNegativeDelta)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += d
	return nil
}

// SetTime sets simulated time to t, which must not be earlier than now.
func (s *Scheduler) SetTime(t time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t < s.now {
		return fmt.Errorf("set time to %v (now %v): %w", t, s.now, ErrTimeBackwards)
	}
	s.now = t
	return nil
}

// LastSeq returns the most recently assigned sequence number (0 if none).
func (s *Scheduler) LastSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Len returns the number of logged events.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

// Events returns a copy of the log in publish order.
func (s *Scheduler) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.log))
	copy(out, s.log)
	return out
}

// Filter returns the logged events for which keep returns true, in publish order.
func (s *Scheduler) Filter(keep func(Event) bool) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.log {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// OfType returns the logged events whose type tag is one of types.
func (s *Scheduler) OfType(types ...Type) []Event {
	want := make(map[Type]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}
	return s.Filter(func(ev Event) bool {
		_, ok := want[ev.Type]
		return ok
	})
}

// Payloads returns the payloads of every logged event of concrete type T.
func Payloads[T Payload](s *Scheduler) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []T
	for _, ev := range s.log {
		if p, ok := ev.Payload.(T); ok {
			out = append(out, p)
		}
	}
	return out
}

// ClearLog empties the log. Sequence numbering and time are untouched, so
// the next publish continues where the previous one left off.
func (s *Scheduler) ClearLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = s.log[:0:0]
}

// Reset empties the log, restarts sequence numbering at 1 and rewinds time
// to zero. Handlers stay registered.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = s.log[:0:0]
	s.seq = 0
	s.now = 0
}
