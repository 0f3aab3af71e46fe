package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/triple-play-labs/diamondx/internal/baseball"
	"github.com/triple-play-labs/diamondx/internal/event"
)

// Default names used when a scenario leaves them empty.
const (
	DefaultHome    = "Home"
	DefaultAway    = "Away"
	DefaultPitcher = "Pitcher"
)

// Harness executes one scenario against a fresh engine and scheduler.
type Harness struct {
	scenario *Scenario
	players  map[string]*baseball.Player
	events   *event.Scheduler
	engine   *baseball.Engine
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Play failures and assertion failures are reported in the result; the
// returned error is reserved for scenarios that cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with an explicit logger for step diagnostics.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		players:  make(map[string]*baseball.Player),
		events:   event.NewScheduler(event.WithLogger(logger)),
		logger:   logger,
	}

	state, err := h.initialState()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	h.engine = baseball.NewEngine(state, h.events, orDefault(scenario.Home, DefaultHome), orDefault(scenario.Away, DefaultAway))
	if scenario.Start {
		h.engine.Start()
	}

	result := NewResult()
	h.executePlays(result)

	result.Events = h.events.Events()
	result.Final = finalState(h.engine)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) initialState() (*baseball.GameState, error) {
	init := h.scenario.State
	snap := baseball.StateSnapshot{
		Inning:    init.Inning,
		Outs:      init.Outs,
		HomeScore: init.HomeScore,
		AwayScore: init.AwayScore,
		Bases:     [3]string{init.Bases.First, init.Bases.Second, init.Bases.Third},
	}
	if snap.Inning == 0 {
		snap.Inning = 1
	}
	if init.Half != "" {
		if err := snap.Half.UnmarshalText([]byte(init.Half)); err != nil {
			return nil, err
		}
	}

	state := baseball.NewGameState()
	if err := state.Restore(snap, h.player); err != nil {
		return nil, err
	}
	return state, nil
}

// player returns the named player, creating a league-average one on first use.
func (h *Harness) player(name string) *baseball.Player {
	if p, ok := h.players[name]; ok {
		return p
	}
	p := &baseball.Player{Name: name, Rates: baseball.DefaultLeague.Rates}
	h.players[name] = p
	return p
}

func (h *Harness) executePlays(result *Result) {
	pitcher := orDefault(h.scenario.Pitcher, DefaultPitcher)

	for i, step := range h.scenario.Plays {
		outcome, err := baseball.ParseOutcome(step.Outcome)
		if err != nil {
			result.AddError(fmt.Sprintf("plays[%d]: %v", i, err))
			continue
		}
		pitches := step.Pitches
		if pitches == 0 {
			pitches = baseball.PitchesFor(outcome, step.Strikeout)
		}

		batter := h.player(step.Batter)
		var res baseball.PlayResult
		err = h.engine.BeginAtBat(batter, pitcher)
		if err == nil {
			res, err = h.engine.Apply(baseball.Play{
				Batter:    batter,
				Pitcher:   pitcher,
				Outcome:   outcome,
				Strikeout: step.Strikeout,
				Pitches:   pitches,
			})
		}

		h.logger.Debug("play applied",
			"step", i,
			"batter", step.Batter,
			"outcome", outcome.String(),
			"runs", res.Runs,
			"error", err,
		)

		for _, msg := range checkPlay(i, step, res, err) {
			result.AddError(msg)
		}
	}
}

// checkPlay compares a play's result with its expect clause.
func checkPlay(i int, step PlayStep, res baseball.PlayResult, err error) []string {
	var msgs []string
	exp := step.Expect
	if exp == nil {
		exp = &PlayExpect{}
	}

	if err != nil {
		var inv *baseball.InvariantError
		switch {
		case exp.Error == "":
			msgs = append(msgs, fmt.Sprintf("plays[%d] %s: unexpected error: %v", i, step.Batter, err))
		case !errors.As(err, &inv):
			msgs = append(msgs, fmt.Sprintf("plays[%d] %s: expected %s, got %v", i, step.Batter, exp.Error, err))
		case string(inv.Code) != exp.Error:
			msgs = append(msgs, fmt.Sprintf("plays[%d] %s: expected %s, got %s", i, step.Batter, exp.Error, inv.Code))
		}
		return msgs
	}
	if exp.Error != "" {
		msgs = append(msgs, fmt.Sprintf("plays[%d] %s: expected error %s, play succeeded", i, step.Batter, exp.Error))
		return msgs
	}

	if exp.Runs != nil && *exp.Runs != res.Runs {
		msgs = append(msgs, fmt.Sprintf("plays[%d] %s: runs = %d, expected %d", i, step.Batter, res.Runs, *exp.Runs))
	}
	if exp.HalfEnded != nil && *exp.HalfEnded != res.HalfEnded {
		msgs = append(msgs, fmt.Sprintf("plays[%d] %s: half_ended = %t, expected %t", i, step.Batter, res.HalfEnded, *exp.HalfEnded))
	}
	if exp.GameOver != nil && *exp.GameOver != res.GameOver {
		msgs = append(msgs, fmt.Sprintf("plays[%d] %s: game_over = %t, expected %t", i, step.Batter, res.GameOver, *exp.GameOver))
	}
	return msgs
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
