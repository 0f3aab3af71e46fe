package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triple-play-labs/diamondx/internal/roster"
	"github.com/triple-play-labs/diamondx/internal/store"
	"github.com/triple-play-labs/diamondx/internal/testutil"
)

func TestGameCommand_JSON(t *testing.T) {
	out, _, err := executeRoot(t, testutil.NewFixedRunID("game-1"), "game", "--seed", "42", "--format", "json")
	require.NoError(t, err)

	var report GameReport
	resp := decodeResponse(t, out, &report)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "game-1", resp.TraceID)

	assert.Equal(t, "game-1", report.RunID)
	assert.Equal(t, int64(42), report.Seed)
	assert.Equal(t, "completed", report.Status)
	assert.Equal(t, "Harbor Hawks", report.Result.Home)
	assert.Equal(t, "Granite City Miners", report.Result.Away)
	assert.NotEqual(t, report.Result.HomeScore, report.Result.AwayScore)
	assert.GreaterOrEqual(t, report.Result.Innings, 9)
	assert.Positive(t, report.Steps)
	assert.Positive(t, int64(report.SimTime))
	assert.Len(t, report.Digest, 64)
	assert.False(t, report.Saved)
}

func TestGameCommand_SameSeedSameGame(t *testing.T) {
	play := func(seed string) GameReport {
		out, _, err := executeRoot(t, testutil.NewFixedRunID("det"), "game", "--seed", seed, "--format", "json")
		require.NoError(t, err)
		var report GameReport
		decodeResponse(t, out, &report)
		return report
	}

	a, b := play("1234"), play("1234")
	assert.Equal(t, a.Digest, b.Digest)
	assert.Equal(t, a.Result, b.Result)

	c := play("4321")
	assert.NotEqual(t, a.Digest, c.Digest)
}

func TestGameCommand_TextNarration(t *testing.T) {
	out, _, err := executeRoot(t, testutil.NewFixedRunID("narrated"), "game", "--seed", "5")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "Play ball: Granite City Miners at Harbor Hawks", lines[0])
	assert.Contains(t, out, "Top 1st: Granite City Miners batting")
	assert.Contains(t, out, "Final: Granite City Miners")
	assert.Contains(t, out, "Run narrated  seed 5")
}

func TestGameCommand_Quiet(t *testing.T) {
	out, _, err := executeRoot(t, testutil.NewFixedRunID("quiet"), "game", "--seed", "5", "--quiet")
	require.NoError(t, err)
	assert.NotContains(t, out, "Play ball")
	assert.Contains(t, out, "Run quiet  seed 5")
}

func TestGameCommand_Weather(t *testing.T) {
	out, _, err := executeRoot(t, testutil.NewFixedRunID("windy"),
		"game", "--seed", "8", "--weather", "--wind", "15", "--format", "json")
	require.NoError(t, err)

	var report GameReport
	decodeResponse(t, out, &report)
	assert.Equal(t, "completed", report.Status)
	assert.NotEmpty(t, report.Result.Winner)
}

func TestGameCommand_RosterFile(t *testing.T) {
	out, _, err := executeRoot(t, testutil.NewFixedRunID("cue"),
		"game", "--seed", "3", "--roster", filepath.Join("..", "roster", "testdata", "league.cue"),
		"--home", "owls", "--away", "larks", "--format", "json")
	require.NoError(t, err)

	var report GameReport
	decodeResponse(t, out, &report)
	assert.Equal(t, "completed", report.Status)
}

func TestGameCommand_UnknownTeam(t *testing.T) {
	_, _, err := executeRoot(t, nil, "game", "--seed", "1", "--home", "nobody")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, errors.Is(err, roster.ErrUnknownTeam))
}

func TestGameCommand_BadRoster(t *testing.T) {
	_, _, err := executeRoot(t, nil, "game", "--seed", "1", "--roster", "/nonexistent/teams.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load roster")
}

func TestGameCommand_StepBudget(t *testing.T) {
	out, _, err := executeRoot(t, testutil.NewFixedRunID("short"),
		"game", "--seed", "1", "--max-steps", "5", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var report GameReport
	decodeResponse(t, out, &report)
	assert.Equal(t, "stopped", report.Status)
	assert.Equal(t, "step budget exhausted", report.Reason)
	assert.Equal(t, 5, report.Steps)
}

func TestGameCommand_Stored(t *testing.T) {
	db := storedGame(t, "stored-1")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, "stored-1")
	require.NoError(t, err)
	assert.Equal(t, store.KindGame, run.Kind)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, "Harbor Hawks", run.Home)
	assert.JSONEq(t, `{"home":"hawks","away":"miners","max_steps":2000,"pitch_seconds":20,"matchup":true,"weather":false,"wind_mph":5}`, string(run.Config))

	records, err := st.ReadEvents(ctx, "stored-1")
	require.NoError(t, err)
	assert.Equal(t, "GameStarted", string(records[0].Type))
	assert.Equal(t, "GameEnded", string(records[len(records)-1].Type))
}
