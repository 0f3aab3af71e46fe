package sim

import (
	"sort"
	"sync"
)

// Shared is the cross-model key/value store scoped to one orchestrator run.
// Weather publishes wind speed here; the game reads it.
//
// Thread-safety: all methods are safe for concurrent use.
type Shared struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewShared creates an empty store.
func NewShared() *Shared {
	return &Shared{values: make(map[string]any)}
}

// Set stores value under key, replacing any previous value.
func (s *Shared) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns the value stored under key.
func (s *Shared) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Float returns the float64 stored under key, or def when absent or not a float.
func (s *Shared) Float(key string, def float64) float64 {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		return def
	}
	return f
}

// Bool returns the bool stored under key, or false.
func (s *Shared) Bool(key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Delete removes key.
func (s *Shared) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Keys returns the stored keys in sorted order.
func (s *Shared) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear removes every key.
func (s *Shared) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
}
