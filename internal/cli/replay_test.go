package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/store"
)

func TestReplay_Deterministic(t *testing.T) {
	db := storedGame(t, "replay-1")

	out, _, err := executeRoot(t, nil, "replay", "replay-1", "--db", db, "--format", "json")
	require.NoError(t, err)

	var result ReplayResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "replay-1", resp.TraceID)
	assert.True(t, result.Deterministic)
	assert.Equal(t, int64(42), result.Seed)
	assert.Equal(t, result.StoredDigest, result.ReplayDigest)
	assert.Equal(t, result.StoredDigest, result.LogDigest)
	assert.Equal(t, result.StoredEvents, result.ReplayEvents)
	assert.Equal(t, int64(-1), result.FirstDivergence)
}

func TestReplay_DeterministicWithWeather(t *testing.T) {
	db := storedGame(t, "replay-wx", "--weather", "--wind", "20")

	out, _, err := executeRoot(t, nil, "replay", "replay-wx", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ deterministic")
}

// tamper stores a copy of run src under id with fn applied to its log.
func tamper(t *testing.T, db, src, id string, fn func(run *store.Run, records []event.Record) []event.Record) {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, src)
	require.NoError(t, err)
	records, err := st.ReadEvents(ctx, src)
	require.NoError(t, err)

	run.ID = id
	records = fn(&run, records)
	require.NoError(t, st.SaveRun(ctx, run, records))
}

func TestReplay_DetectsEditedLog(t *testing.T) {
	db := storedGame(t, "orig")
	tamper(t, db, "orig", "edited", func(_ *store.Run, records []event.Record) []event.Record {
		records[3].Payload = json.RawMessage(`{"tampered":true}`)
		return records
	})

	out, _, err := executeRoot(t, nil, "replay", "edited", "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeReplayDiff, resp.Error.Code)

	var details ReplayResult
	raw, err := json.Marshal(resp.Error.Details)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &details))
	assert.False(t, details.Deterministic)
	assert.Equal(t, details.StoredDigest, details.ReplayDigest, "the simulation itself still agrees")
	assert.NotEqual(t, details.StoredDigest, details.LogDigest)
	assert.Equal(t, int64(4), details.FirstDivergence)
}

func TestReplay_DetectsChangedSeed(t *testing.T) {
	db := storedGame(t, "orig")
	tamper(t, db, "orig", "reseeded", func(run *store.Run, records []event.Record) []event.Record {
		run.Seed = 43
		return records
	})

	out, _, err := executeRoot(t, nil, "replay", "reseeded", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ replay diverged")
}

func TestReplay_Errors(t *testing.T) {
	db := storedGame(t, "present")

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"unknown run", []string{"replay", "absent", "--db", db}, "run absent not found"},
		{"missing db", []string{"replay", "present", "--db", filepath.Join(t.TempDir(), "none.db")}, "database not found"},
		{"no db", []string{"replay", "present", "--db", ""}, "--db is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeRoot(t, nil, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFirstDivergence(t *testing.T) {
	rec := func(seq int64, payload string) event.Record {
		return event.Record{Seq: seq, Type: "X", Payload: json.RawMessage(payload)}
	}
	a := []event.Record{rec(1, `{}`), rec(2, `{"a":1}`), rec(3, `{}`)}

	assert.Equal(t, int64(-1), firstDivergence(a, a))
	assert.Equal(t, int64(2), firstDivergence(a, []event.Record{rec(1, `{}`), rec(2, `{"a":2}`), rec(3, `{}`)}))
	assert.Equal(t, int64(3), firstDivergence(a, a[:2]))
	assert.Equal(t, int64(3), firstDivergence(a[:2], a))
}
