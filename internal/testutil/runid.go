package testutil

// FixedRunID returns the same run id every time.
//
// Use it where every run should carry one id so outputs compare
// byte-for-byte; sim.FixedRunIDs scripts a distinct id per run instead.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator returning id. An empty id becomes
// "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed id. Implements sim.RunIDGenerator.
func (g *FixedRunID) Generate() string {
	return g.id
}
