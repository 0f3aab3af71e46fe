package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrSnapshotNotFound is returned when loading or deleting an unknown snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is a named, serialized copy of model state.
type Snapshot struct {
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
	Ticks     int64           `json:"ticks"`
	SimTime   time.Duration   `json:"sim_time"`
	State     json.RawMessage `json:"state"`
}

// SnapshotManager keeps named snapshots in memory.
//
// State is stored as JSON, so a loaded snapshot is a deep copy that shares
// nothing with the value that was saved. Export/Import round-trip the whole
// table as one opaque blob.
//
// Thread-safety: all methods are safe for concurrent use.
type SnapshotManager struct {
	mu        sync.RWMutex
	clock     *Clock
	now       func() time.Time
	snapshots map[string]Snapshot
}

// NewSnapshotManager creates a manager that stamps snapshots with clock's
// position. clock may be nil, in which case tick and time are recorded as zero.
func NewSnapshotManager(clock *Clock) *SnapshotManager {
	return &SnapshotManager{
		clock:     clock,
		now:       time.Now,
		snapshots: make(map[string]Snapshot),
	}
}

// Save serializes state under name, replacing any existing snapshot.
func (m *SnapshotManager) Save(name string, state any) (Snapshot, error) {
	if name == "" {
		return Snapshot{}, fmt.Errorf("save snapshot: name is required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot %q: %w", name, err)
	}

	snap := Snapshot{
		Name:      name,
		CreatedAt: m.now().UTC(),
		State:     data,
	}
	if m.clock != nil {
		snap.Ticks = m.clock.Ticks()
		snap.SimTime = m.clock.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[name] = snap
	return snap, nil
}

// Load decodes the snapshot named name into into (a pointer).
func (m *SnapshotManager) Load(name string, into any) (Snapshot, error) {
	m.mu.RLock()
	snap, ok := m.snapshots[name]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, fmt.Errorf("load snapshot %q: %w", name, ErrSnapshotNotFound)
	}
	if err := json.Unmarshal(snap.State, into); err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	return snap, nil
}

// Get returns snapshot metadata and raw state without decoding.
func (m *SnapshotManager) Get(name string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[name]
	return snap, ok
}

// Delete removes a snapshot.
func (m *SnapshotManager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[name]; !ok {
		return fmt.Errorf("delete snapshot %q: %w", name, ErrSnapshotNotFound)
	}
	delete(m.snapshots, name)
	return nil
}

// Names returns snapshot names in sorted order.
func (m *SnapshotManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.snapshots))
	for name := range m.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export serializes the full snapshot table.
func (m *SnapshotManager) Export() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]Snapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		list = append(list, snap)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("export snapshots: %w", err)
	}
	return data, nil
}

// Import replaces the snapshot table with one produced by Export.
func (m *SnapshotManager) Import(data []byte) error {
	var list []Snapshot
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("import snapshots: %w", err)
	}

	table := make(map[string]Snapshot, len(list))
	for _, snap := range list {
		if snap.Name == "" {
			return fmt.Errorf("import snapshots: snapshot with empty name")
		}
		table[snap.Name] = snap
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = table
	return nil
}
