package baseball

import (
	"fmt"

	"github.com/triple-play-labs/diamondx/internal/event"
)

// Play is one resolved plate appearance handed to the engine.
type Play struct {
	Batter    *Player
	Pitcher   string
	Outcome   Outcome
	Strikeout bool
	Pitches   int
}

// PlayResult summarizes what a play did to the game.
type PlayResult struct {
	Runs      int
	HalfEnded bool
	GameOver  bool
}

// GameResult is the final line of a game.
type GameResult struct {
	Home         string `json:"home"`
	Away         string `json:"away"`
	HomeScore    int    `json:"home_score"`
	AwayScore    int    `json:"away_score"`
	Innings      int    `json:"innings"`
	WalkOff      bool   `json:"walk_off"`
	ExtraInnings bool   `json:"extra_innings"`
	Winner       string `json:"winner"`
	Over         bool   `json:"over"`
}

// Engine is the baserunner and half-inning state machine. It applies
// resolved plays to a GameState and publishes every transition.
//
// Advancement rules:
//   - Walk: only forced runners move; the batter takes first
//   - Single: every runner advances two bases; the batter takes first
//   - Double, Triple: every runner scores; the batter takes second or third
//   - HomeRun: every runner and the batter score
//   - Out: outs +1, runners hold
//
// Runners move from third down to first, so no runner lands on an occupied
// base. In the bottom of the ninth or later, the run that gives the home team
// the lead ends the game on the spot; no later run of that play counts.
//
// Thread-safety: Engine is NOT safe for concurrent use.
type Engine struct {
	state *GameState
	pub   event.Publisher
	home  string
	away  string

	halfRuns int
	over     bool
	walkOff  bool
}

// NewEngine binds a state machine to state, publishing through pub.
func NewEngine(state *GameState, pub event.Publisher, home, away string) *Engine {
	return &Engine{
		state: state,
		pub:   pub,
		home:  home,
		away:  away,
	}
}

// State returns the live game state.
func (e *Engine) State() *GameState { return e.state }

// IsOver reports whether the game has ended.
func (e *Engine) IsOver() bool { return e.over }

// WalkOff reports whether the game ended on a walk-off.
func (e *Engine) WalkOff() bool { return e.walkOff }

// HalfRuns returns the runs scored so far in the current half-inning.
func (e *Engine) HalfRuns() int { return e.halfRuns }

// Start publishes GameStarted and the opening InningStarted for the current
// half-inning.
func (e *Engine) Start() {
	e.pub.Publish(GameStarted{Home: e.home, Away: e.away})
	e.pub.Publish(InningStarted{Inning: e.state.Inning, Half: e.state.Half, Team: e.battingTeam()})
}

// BeginAtBat publishes AtBatStarted.
func (e *Engine) BeginAtBat(batter *Player, pitcher string) error {
	if e.over {
		return newInvariantError(ErrCodeGameOver, "at-bat started after game over", e.state)
	}
	if batter == nil {
		return ErrNilBatter
	}
	e.pub.Publish(AtBatStarted{
		Inning:  e.state.Inning,
		Half:    e.state.Half,
		Outs:    e.state.Outs,
		Batter:  batter.Name,
		Pitcher: pitcher,
		Bases:   e.state.BaseState(),
	})
	return nil
}

// Apply applies a resolved play.
func (e *Engine) Apply(play Play) (PlayResult, error) {
	if e.over {
		return PlayResult{}, newInvariantError(ErrCodeGameOver, "play applied after game over", e.state)
	}
	if play.Batter == nil {
		return PlayResult{}, ErrNilBatter
	}
	if !play.Outcome.Valid() {
		return PlayResult{}, fmt.Errorf("apply %d: %w", int(play.Outcome), ErrInvalidOutcome)
	}

	before := e.halfRuns
	switch play.Outcome {
	case Walk:
		e.walk(play)
	case Out:
		if err := e.out(play); err != nil {
			return PlayResult{}, err
		}
	default:
		e.hit(play)
	}
	runs := e.halfRuns - before

	e.pub.Publish(AtBatCompleted{
		Inning:    e.state.Inning,
		Half:      e.state.Half,
		Batter:    play.Batter.Name,
		Pitcher:   play.Pitcher,
		Outcome:   play.Outcome,
		Strikeout: play.Strikeout,
		Pitches:   play.Pitches,
		Runs:      runs,
		Outs:      e.state.Outs,
		Bases:     e.state.BaseState(),
	})

	res := PlayResult{Runs: runs}
	switch {
	case e.over:
		e.publishInningEnded()
		e.publishGameEnded()
		res.HalfEnded = true
	case e.state.Outs == 3:
		e.endHalf()
		res.HalfEnded = true
	}
	res.GameOver = e.over
	return res, nil
}

// walk forces runners only: a runner moves only when every base behind it
// is occupied.
func (e *Engine) walk(play Play) {
	s := e.state
	if s.bases[First] != nil {
		if s.bases[Second] != nil {
			if r := s.bases[Third]; r != nil {
				s.bases[Third] = nil
				e.score(r, play)
				if e.over {
					return
				}
			}
			e.move(Second, Third, play.Outcome)
		}
		e.move(First, Second, play.Outcome)
	}
	s.bases[First] = play.Batter
}

func (e *Engine) hit(play Play) {
	s := e.state
	advance := Base(4)
	if play.Outcome == Single {
		advance = 2
	}

	for b := Third; b >= First; b-- {
		r := s.bases[b]
		if r == nil {
			continue
		}
		s.bases[b] = nil
		if dest := b + advance; dest >= Home {
			e.score(r, play)
			if e.over {
				return
			}
		} else {
			s.bases[dest] = r
			e.pub.Publish(RunnerAdvanced{Runner: r.Name, From: b, To: dest, Cause: play.Outcome})
		}
	}

	if play.Outcome == HomeRun {
		e.score(play.Batter, play)
		return
	}
	s.bases[play.Outcome.BatterBases()-1] = play.Batter
}

func (e *Engine) out(play Play) error {
	if err := e.state.RecordOut(); err != nil {
		return fmt.Errorf("record out for %s: %w", play.Batter.Name, err)
	}
	e.pub.Publish(OutRecorded{Batter: play.Batter.Name, Outs: e.state.Outs, Strikeout: play.Strikeout})
	return nil
}

func (e *Engine) move(from, to Base, cause Outcome) {
	r := e.state.bases[from]
	e.state.bases[from] = nil
	e.state.bases[to] = r
	e.pub.Publish(RunnerAdvanced{Runner: r.Name, From: from, To: to, Cause: cause})
}

// score credits a run and applies the walk-off rule.
func (e *Engine) score(runner *Player, play Play) {
	s := e.state
	s.addRun()
	e.halfRuns++
	e.pub.Publish(RunScored{
		Runner:    runner.Name,
		Batter:    play.Batter.Name,
		Team:      e.battingTeam(),
		Outcome:   play.Outcome,
		HomeScore: s.HomeScore,
		AwayScore: s.AwayScore,
	})
	if s.Half == Bottom && s.Inning >= RegulationInnings && s.HomeScore > s.AwayScore {
		e.over = true
		e.walkOff = true
	}
}

// endHalf closes a three-out half-inning and opens the next one, or ends
// the game.
func (e *Engine) endHalf() {
	s := e.state
	e.publishInningEnded()

	if s.Half == Top {
		// Home team leading after the top of the ninth or later does not bat.
		if s.Inning >= RegulationInnings && s.HomeScore > s.AwayScore {
			e.over = true
			e.publishGameEnded()
			return
		}
		e.beginHalf(s.Inning, Bottom)
		return
	}

	if s.Inning >= RegulationInnings && s.HomeScore != s.AwayScore {
		e.over = true
		e.publishGameEnded()
		return
	}
	e.beginHalf(s.Inning+1, Top)
}

func (e *Engine) beginHalf(inning int, half Half) {
	e.state.BeginHalfInning(inning, half)
	e.halfRuns = 0
	e.pub.Publish(InningStarted{Inning: inning, Half: half, Team: e.battingTeam()})
}

func (e *Engine) publishInningEnded() {
	e.pub.Publish(InningEnded{
		Inning: e.state.Inning,
		Half:   e.state.Half,
		Team:   e.battingTeam(),
		Runs:   e.halfRuns,
	})
}

func (e *Engine) publishGameEnded() {
	r := e.Result()
	e.pub.Publish(GameEnded{
		Home:      r.Home,
		Away:      r.Away,
		HomeScore: r.HomeScore,
		AwayScore: r.AwayScore,
		Innings:   r.Innings,
		WalkOff:   r.WalkOff,
		Winner:    r.Winner,
	})
}

func (e *Engine) battingTeam() string {
	if e.state.Half == Top {
		return e.away
	}
	return e.home
}

// Result returns the current line score. Winner is empty while tied.
func (e *Engine) Result() GameResult {
	s := e.state
	r := GameResult{
		Home:         e.home,
		Away:         e.away,
		HomeScore:    s.HomeScore,
		AwayScore:    s.AwayScore,
		Innings:      s.Inning,
		WalkOff:      e.walkOff,
		ExtraInnings: s.Inning > RegulationInnings,
		Over:         e.over,
	}
	switch {
	case s.HomeScore > s.AwayScore:
		r.Winner = e.home
	case s.AwayScore > s.HomeScore:
		r.Winner = e.away
	}
	return r
}

// engineSnapshot is the engine bookkeeping beyond GameState.
type engineSnapshot struct {
	HalfRuns int  `json:"half_runs"`
	Over     bool `json:"over"`
	WalkOff  bool `json:"walk_off"`
}

func (e *Engine) snapshot() engineSnapshot {
	return engineSnapshot{HalfRuns: e.halfRuns, Over: e.over, WalkOff: e.walkOff}
}

func (e *Engine) restore(s engineSnapshot) {
	e.halfRuns = s.HalfRuns
	e.over = s.Over
	e.walkOff = s.WalkOff
}
