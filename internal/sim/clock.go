package sim

import (
	"errors"
	"fmt"
	"time"
)

// ClockMode selects how simulated time moves.
type ClockMode int

const (
	// DiscreteEvent: time changes only through Advance and SetTime, driven
	// by the model (the game advances by the length of each plate appearance).
	DiscreteEvent ClockMode = iota
	// FixedStep: every Tick adds the configured step.
	FixedStep
)

func (m ClockMode) String() string {
	switch m {
	case DiscreteEvent:
		return "discrete-event"
	case FixedStep:
		return "fixed-step"
	default:
		return fmt.Sprintf("ClockMode(%d)", int(m))
	}
}

// DefaultStep is the fixed-step increment when none is configured.
const DefaultStep = time.Second

var (
	// ErrNegativeDelta is returned by Advance for a negative delta.
	ErrNegativeDelta = errors.New("clock: delta must be non-negative")

	// ErrTimeBackwards is returned by SetTime for a time earlier than now.
	ErrTimeBackwards = errors.New("clock: time cannot move backwards")
)

// ClockSnapshot captures the full clock position.
type ClockSnapshot struct {
	Time  time.Duration `json:"time"`
	Ticks int64         `json:"ticks"`
}

// Clock is the monotonic simulated clock of one run.
//
// Thread-safety: Clock is NOT safe for concurrent use; it belongs to the
// single goroutine driving the run.
//
// INVARIANTS:
//   - Now never decreases except through Restore
//   - Ticks counts Tick calls
type Clock struct {
	mode  ClockMode
	step  time.Duration
	now   time.Duration
	ticks int64
}

// NewClock creates a clock at time zero. A non-positive step falls back to
// DefaultStep.
func NewClock(mode ClockMode, step time.Duration) *Clock {
	if step <= 0 {
		step = DefaultStep
	}
	return &Clock{mode: mode, step: step}
}

// Mode returns the clock mode.
func (c *Clock) Mode() ClockMode { return c.mode }

// Step returns the fixed-step increment.
func (c *Clock) Step() time.Duration { return c.step }

// Now returns the current simulated time.
func (c *Clock) Now() time.Duration { return c.now }

// Ticks returns the number of Tick calls since creation or the last Restore.
func (c *Clock) Ticks() int64 { return c.ticks }

// Advance moves time forward by d.
func (c *Clock) Advance(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("advance by %v: %w", d, ErrNegativeDelta)
	}
	c.now += d
	return nil
}

// SetTime jumps to t, which must not be earlier than now.
func (c *Clock) SetTime(t time.Duration) error {
	if t < c.now {
		return fmt.Errorf("set time %v (now %v): %w", t, c.now, ErrTimeBackwards)
	}
	c.now = t
	return nil
}

// Tick adds one fixed step and returns the new time.
func (c *Clock) Tick() time.Duration {
	c.now += c.step
	c.ticks++
	return c.now
}

// Snapshot captures the clock position.
func (c *Clock) Snapshot() ClockSnapshot {
	return ClockSnapshot{Time: c.now, Ticks: c.ticks}
}

// Restore returns the clock to a captured position.
func (c *Clock) Restore(s ClockSnapshot) {
	c.now = s.Time
	c.ticks = s.Ticks
}
