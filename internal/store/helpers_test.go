package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/triple-play-labs/diamondx/internal/event"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string, created time.Time) Run {
	return Run{
		ID:        id,
		Kind:      KindGame,
		Seed:      42,
		Status:    "completed",
		Home:      "Harbor Hawks",
		Away:      "Granite City Miners",
		HomeScore: 5,
		AwayScore: 4,
		Innings:   9,
		WalkOff:   true,
		Steps:     77,
		Digest:    "abc123",
		Config:    json.RawMessage(`{"home":"hawks","away":"miners"}`),
		CreatedAt: created,
	}
}

func testRecords(n int) []event.Record {
	out := make([]event.Record, n)
	for i := range out {
		out[i] = event.Record{
			Seq:     int64(i + 1),
			TimeNs:  int64(i) * int64(time.Minute),
			Type:    "OutRecorded",
			Payload: json.RawMessage(fmt.Sprintf(`{"batter":"B%d","outs":%d}`, i, i%3+1)),
		}
	}
	return out
}
