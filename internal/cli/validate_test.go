package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_BuiltIn(t *testing.T) {
	out, _, err := executeRoot(t, nil, "validate", "--format", "json")
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	require.Len(t, result.Rosters, 1)

	r := result.Rosters[0]
	assert.Equal(t, builtinRoster, r.Path)
	require.Len(t, r.Teams, 2)
	assert.Equal(t, TeamSummary{ID: "hawks", Name: "Harbor Hawks", Batters: 9, Starter: "Walt Haverford", Bullpen: 2}, r.Teams[0])
	assert.Equal(t, "miners", r.Teams[1].ID)
}

func TestValidate_Files(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("teams:\n  x:\n    name: X\n    colour: red\n"), 0o644))

	cue := filepath.Join("..", "roster", "testdata", "league.cue")

	out, _, err := executeRoot(t, nil, "validate", cue, bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ "+cue+" (2 teams)")
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, "colour")
}

func TestValidate_FilesJSON(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "teams.toml")
	require.NoError(t, os.WriteFile(bad, []byte("x = 1\n"), 0o644))

	out, _, err := executeRoot(t, nil, "validate", bad, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidRoster, resp.Error.Code)
	assert.Contains(t, out, "unsupported file type")
}
