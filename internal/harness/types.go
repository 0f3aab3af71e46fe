package harness

import (
	"github.com/triple-play-labs/diamondx/internal/baseball"
	"github.com/triple-play-labs/diamondx/internal/event"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every play expectation and assertion held.
	Pass bool `json:"pass"`

	// Events is the full event log in publish order.
	Events []event.Event `json:"events"`

	// Final is the scoreboard after the last play.
	Final FinalState `json:"final"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// FinalState is the scoreboard a scenario ends with.
type FinalState struct {
	Inning    int    `json:"inning"`
	Half      string `json:"half"`
	Outs      int    `json:"outs"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Bases     string `json:"bases"`
	GameOver  bool   `json:"game_over"`
	WalkOff   bool   `json:"walk_off"`
	Winner    string `json:"winner"`
}

// stateFields lists the keys a final_state assertion may name.
var stateFields = map[string]struct{}{
	"inning":     {},
	"half":       {},
	"outs":       {},
	"home_score": {},
	"away_score": {},
	"bases":      {},
	"game_over":  {},
	"walk_off":   {},
	"winner":     {},
}

func (f FinalState) fields() map[string]any {
	return map[string]any{
		"inning":     f.Inning,
		"half":       f.Half,
		"outs":       f.Outs,
		"home_score": f.HomeScore,
		"away_score": f.AwayScore,
		"bases":      f.Bases,
		"game_over":  f.GameOver,
		"walk_off":   f.WalkOff,
		"winner":     f.Winner,
	}
}

func finalState(eng *baseball.Engine) FinalState {
	s := eng.State()
	r := eng.Result()
	return FinalState{
		Inning:    s.Inning,
		Half:      s.Half.String(),
		Outs:      s.Outs,
		HomeScore: s.HomeScore,
		AwayScore: s.AwayScore,
		Bases:     s.BaseState(),
		GameOver:  r.Over,
		WalkOff:   r.WalkOff,
		Winner:    r.Winner,
	}
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Events: []event.Event{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
