package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triple-play-labs/diamondx/internal/sim"
)

var scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")

func TestScenario_AllPass(t *testing.T) {
	out, _, err := executeRoot(t, nil, "scenario", scenariosDir, "--format", "json")
	require.NoError(t, err)

	var report ScenarioReport
	decodeResponse(t, out, &report)
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 6, report.Passed)
	assert.Zero(t, report.Failed)
	for _, s := range report.Scenarios {
		assert.True(t, s.Pass, "%s: %v", s.Name, s.Errors)
	}
}

func TestScenario_Filter(t *testing.T) {
	out, _, err := executeRoot(t, nil, "scenario", scenariosDir, "--filter", "walk*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ walkoff_single")
	assert.Contains(t, out, "✓ walk_first_and_third")
	assert.NotContains(t, out, "grand_slam")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestScenario_Failure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`name: wrong_runs
description: "A solo home run expected to score two"
plays:
  - batter: Ana
    outcome: hr
    expect: { runs: 2 }
assertions:
  - type: final_state
    expect: { away_score: 1 }
`), 0o644))

	out, _, err := executeRoot(t, nil, "scenario", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_runs")
	assert.Contains(t, out, "runs = 1, expected 2")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestScenario_Errors(t *testing.T) {
	_, _, err := executeRoot(t, nil, "scenario", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\nbogus: 1\n"), 0o644))
	_, _, err = executeRoot(t, nil, "scenario", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "broken.yaml")

	_, _, err = executeRoot(t, nil, "scenario", scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScenario_StoredForTrace(t *testing.T) {
	db := filepath.Join(t.TempDir(), "scenarios.db")
	ids := sim.NewFixedRunIDs("scn-1")

	out, _, err := executeRoot(t, ids, "scenario", scenariosDir, "--filter", "grand_slam", "--db", db, "--format", "json")
	require.NoError(t, err)
	var report ScenarioReport
	decodeResponse(t, out, &report)
	require.Len(t, report.Scenarios, 1)
	assert.Equal(t, "scn-1", report.Scenarios[0].RunID)

	out, _, err = executeRoot(t, nil, "trace", "scn-1", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "D: homers, 4 runs")

	_, _, err = executeRoot(t, nil, "replay", "scn-1", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario run and cannot be replayed")
}
