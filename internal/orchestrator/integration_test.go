package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triple-play-labs/diamondx/internal/baseball"
	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/sim"
	"github.com/triple-play-labs/diamondx/internal/testutil"
	"github.com/triple-play-labs/diamondx/internal/weather"
)

func leagueTeam(t *testing.T, name string) *baseball.Team {
	t.Helper()
	lineup := make([]*baseball.Player, 9)
	for i := range lineup {
		p, err := baseball.NewPlayer(fmt.Sprintf("%s %d", name, i+1), baseball.DefaultLeague.Rates)
		require.NoError(t, err)
		lineup[i] = p
	}
	ace, err := baseball.NewPitcher(name+" Ace", baseball.DefaultLeague.Rates, baseball.DefaultLeague.Strikeout, 0, 0)
	require.NoError(t, err)
	team, err := baseball.NewTeam(name, lineup, ace)
	require.NoError(t, err)
	return team
}

func TestOrchestrator_GameWithWeather(t *testing.T) {
	game, err := baseball.NewGame(leagueTeam(t, "Home"), leagueTeam(t, "Away"))
	require.NoError(t, err)
	wx := weather.New()

	var barriers int
	o := New(WithHooks(Hooks{Barrier: func(BarrierInfo) { barriers++ }}))
	require.NoError(t, o.Register("baseball", game, Options{Priority: 10}, "weather"))
	require.NoError(t, o.Register("weather", wx, Options{Priority: 100, Optional: true, Params: sim.Params{weather.ParamWind: 8.0}}))

	res := sim.Run(context.Background(), o, sim.Config{
		Seed:       2024,
		MaxSteps:   5000,
		RunID:      "orchestrated",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		KeepEvents: true,
	})
	require.Equal(t, sim.StatusCompleted, res.Status, "%v", res.Err)

	assert.Equal(t, []string{"weather", "baseball"}, o.Order())
	assert.True(t, game.IsComplete())
	assert.True(t, wx.IsComplete(), "weather stops once the game is final")
	assert.Equal(t, res.Metrics.Steps, barriers)

	counts := res.Metrics.EventsByType
	assert.Equal(t, 1, counts[baseball.TypeGameEnded])
	assert.Positive(t, counts[weather.TypeWeatherChanged])

	final := game.Result()
	assert.NotEqual(t, final.HomeScore, final.AwayScore)
}

func TestOrchestrator_GameWithWeatherDeterministic(t *testing.T) {
	run := func() string {
		game, err := baseball.NewGame(leagueTeam(t, "Home"), leagueTeam(t, "Away"))
		require.NoError(t, err)
		o := New()
		require.NoError(t, o.Register("baseball", game, Options{}, "weather"))
		require.NoError(t, o.Register("weather", weather.New(), Options{}))
		res := sim.Run(context.Background(), o, sim.Config{
			Seed:       7,
			MaxSteps:   5000,
			RunID:      "det",
			Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
			KeepEvents: true,
		})
		require.Equal(t, sim.StatusCompleted, res.Status)
		return res.Digest
	}
	assert.Equal(t, run(), run())
}

func TestOrchestrator_ObserverSeesBothModels(t *testing.T) {
	game, err := baseball.NewGame(leagueTeam(t, "Home"), leagueTeam(t, "Away"))
	require.NoError(t, err)
	o := New()
	require.NoError(t, o.Register("baseball", game, Options{}, "weather"))
	require.NoError(t, o.Register("weather", weather.New(), Options{}))

	rec := testutil.NewRecorder()
	res := sim.Run(context.Background(), o, sim.Config{
		Seed:       11,
		MaxSteps:   5000,
		RunID:      "observed",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		KeepEvents: true,
		Observers:  []event.Handler{rec},
	})
	require.Equal(t, sim.StatusCompleted, res.Status, "%v", res.Err)

	assert.Equal(t, len(res.Events), rec.Len())
	assert.Equal(t, 1, rec.Count(baseball.TypeGameStarted))
	assert.Equal(t, 1, rec.Count(baseball.TypeGameEnded))
	assert.Positive(t, rec.Count(weather.TypeWeatherChanged))

	var plays []event.Type
	for _, typ := range rec.Types() {
		if typ != weather.TypeWeatherChanged {
			plays = append(plays, typ)
		}
	}
	require.NotEmpty(t, plays)
	assert.Equal(t, baseball.TypeGameStarted, plays[0])
	assert.Equal(t, baseball.TypeGameEnded, plays[len(plays)-1])
}
