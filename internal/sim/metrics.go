package sim

import (
	"sort"
	"sync"
	"time"

	"github.com/triple-play-labs/diamondx/internal/event"
)

// Metrics summarizes one run.
type Metrics struct {
	Steps        int                `json:"steps"`
	Events       int                `json:"events"`
	EventsByType map[event.Type]int `json:"events_by_type"`
	SimTime      time.Duration      `json:"sim_time"`
	WallTime     time.Duration      `json:"wall_time"`
}

// Types returns the observed event types in sorted order.
func (m Metrics) Types() []event.Type {
	types := make([]event.Type, 0, len(m.EventsByType))
	for t := range m.EventsByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// eventCounter is a scheduler handler tallying events by type.
type eventCounter struct {
	mu     sync.Mutex
	total  int
	byType map[event.Type]int
}

func newEventCounter() *eventCounter {
	return &eventCounter{byType: make(map[event.Type]int)}
}

func (c *eventCounter) Handle(ev event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	c.byType[ev.Type]++
	return nil
}

func (c *eventCounter) snapshot() (int, map[event.Type]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[event.Type]int, len(c.byType))
	for k, v := range c.byType {
		out[k] = v
	}
	return c.total, out
}
