package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/triple-play-labs/diamondx/internal/baseball"
	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/orchestrator"
	"github.com/triple-play-labs/diamondx/internal/roster"
	"github.com/triple-play-labs/diamondx/internal/sim"
	"github.com/triple-play-labs/diamondx/internal/weather"
)

// Registration ids used when a game runs with weather.
const (
	gameModelID    = "baseball"
	weatherModelID = "weather"
)

// GameConfig is everything besides the seed that decides a game. It is
// stored with each saved run so the run can be replayed.
type GameConfig struct {
	Home         string  `json:"home"`
	Away         string  `json:"away"`
	Roster       string  `json:"roster,omitempty"`
	MaxSteps     int     `json:"max_steps"`
	PitchSeconds int     `json:"pitch_seconds"`
	Matchup      bool    `json:"matchup"`
	Weather      bool    `json:"weather"`
	WindMph      float64 `json:"wind_mph,omitempty"`
}

func (c GameConfig) params() sim.Params {
	return sim.Params{
		baseball.ParamMatchup:      c.Matchup,
		baseball.ParamPitchSeconds: c.PitchSeconds,
	}
}

// loadRoster returns the roster at path, or the built-in teams when path is
// empty.
func loadRoster(path string) (*roster.Roster, error) {
	if path == "" {
		return roster.Default(), nil
	}
	return roster.LoadFile(path)
}

// buildModel pairs the configured teams. With weather enabled the game runs
// under an orchestrator after the weather model, which feeds it wind.
func buildModel(r *roster.Roster, cfg GameConfig) (sim.Simulation, *baseball.Game, error) {
	game, err := r.Matchup(cfg.Home, cfg.Away)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Weather {
		return game, game, nil
	}

	o := orchestrator.New()
	if err := o.Register(gameModelID, game, orchestrator.Options{Priority: 10}, weatherModelID); err != nil {
		return nil, nil, err
	}
	wx := orchestrator.Options{
		Priority: 100,
		Optional: true,
		Params:   sim.Params{weather.ParamWind: cfg.WindMph},
	}
	if err := o.Register(weatherModelID, weather.New(), wx); err != nil {
		return nil, nil, err
	}
	return o, game, nil
}

// gameOf digs the game out of a run's model.
func gameOf(model sim.Simulation) (*baseball.Game, bool) {
	switch m := model.(type) {
	case *baseball.Game:
		return m, true
	case *orchestrator.Orchestrator:
		reg, ok := m.Registration(gameModelID)
		if !ok {
			return nil, false
		}
		g, ok := reg.Model.(*baseball.Game)
		return g, ok
	default:
		return nil, false
	}
}

// simulateGame plays one game to completion and keeps its event log.
func simulateGame(ctx context.Context, cfg GameConfig, seed int64, runID string, logger *slog.Logger, observers ...event.Handler) (sim.Result, *baseball.Game, error) {
	r, err := loadRoster(cfg.Roster)
	if err != nil {
		return sim.Result{}, nil, err
	}
	model, game, err := buildModel(r, cfg)
	if err != nil {
		return sim.Result{}, nil, fmt.Errorf("build game: %w", err)
	}

	res := sim.Run(ctx, model, sim.Config{
		Seed:       seed,
		MaxSteps:   cfg.MaxSteps,
		ClockMode:  sim.DiscreteEvent,
		Params:     cfg.params(),
		RunID:      runID,
		Logger:     logger,
		KeepEvents: true,
		Observers:  observers,
	})
	return res, game, nil
}

// decodeRecord turns a stored record back into an event of any model.
func decodeRecord(rec event.Record) (event.Event, error) {
	if rec.Type == weather.TypeWeatherChanged {
		return weather.DecodeRecord(rec)
	}
	return baseball.DecodeRecord(rec)
}
