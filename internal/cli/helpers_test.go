package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/triple-play-labs/diamondx/internal/sim"
	"github.com/triple-play-labs/diamondx/internal/testutil"
)

// executeRoot runs the full command tree with args and captures both streams.
func executeRoot(t *testing.T, ids sim.RunIDGenerator, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCommand(&RootOptions{RunIDs: ids})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// jsonResponse is CLIResponse with the payload left raw.
type jsonResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   *CLIError       `json:"error"`
	TraceID string          `json:"trace_id"`
}

// decodeResponse parses a JSON envelope and, when data is non-nil, its payload.
func decodeResponse(t *testing.T, out string, data any) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if data != nil && resp.Data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

// storedGame plays a seeded game into a fresh database and returns its path.
func storedGame(t *testing.T, runID string, extra ...string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "diamondx.db")
	args := append([]string{"game", "--seed", "42", "--db", db, "--format", "json"}, extra...)
	_, _, err := executeRoot(t, testutil.NewFixedRunID(runID), args...)
	require.NoError(t, err)
	return db
}
