package baseball

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/triple-play-labs/diamondx/internal/sim"
)

// Model identity.
const (
	ModelName    = "baseball"
	ModelVersion = "1.2.0"
)

// Parameter and shared-store keys.
const (
	ParamMatchup      = "baseball.matchup"
	ParamPitchSeconds = "baseball.pitch_seconds"

	// SharedWindKey is read each plate appearance; a tail wind in mph
	// inflates home-run rates.
	SharedWindKey = "weather.wind_mph"

	// SharedFinalKey is set to true when the game ends.
	SharedFinalKey = "baseball.final"
)

// DefaultPitchSeconds is the simulated length of one pitch.
const DefaultPitchSeconds = 20

// Game plays one game, one plate appearance per Step.
//
// Thread-safety: Game is NOT safe for concurrent use; it is driven by one
// runner or orchestrator.
type Game struct {
	home   *Team
	away   *Team
	league League

	ctx          *sim.Context
	logger       *slog.Logger
	state        *GameState
	engine       *Engine
	resolver     *Resolver
	matchup      bool
	pitchSeconds time.Duration
}

// GameOption configures a Game.
type GameOption func(*Game)

// WithLeague overrides the Log5 league baseline.
func WithLeague(l League) GameOption {
	return func(g *Game) { g.league = l }
}

// NewGame pairs two validated teams. Teams carry per-game state (batting
// order position, pitch counts), so every game needs its own instances.
func NewGame(home, away *Team, opts ...GameOption) (*Game, error) {
	if home == nil || away == nil {
		return nil, fmt.Errorf("new game: both teams are required")
	}
	if err := home.Validate(); err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	if err := away.Validate(); err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	g := &Game{home: home, away: away, league: DefaultLeague}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Game) Name() string    { return ModelName }
func (g *Game) Version() string { return ModelVersion }

// Initialize binds the game to the run services and publishes GameStarted.
func (g *Game) Initialize(ctx *sim.Context) error {
	if ctx == nil || ctx.Random == nil || ctx.Events == nil || ctx.Clock == nil {
		return fmt.Errorf("initialize %s: incomplete context", ModelName)
	}
	g.ctx = ctx
	g.logger = ctx.Logger.With("model", ModelName)
	g.matchup = ctx.Params.Bool(ParamMatchup, true)
	secs := ctx.Params.Int(ParamPitchSeconds, DefaultPitchSeconds)
	if secs < 0 {
		return fmt.Errorf("initialize %s: %s must be non-negative, got %d", ModelName, ParamPitchSeconds, secs)
	}
	g.pitchSeconds = time.Duration(secs) * time.Second

	g.state = NewGameState()
	g.engine = NewEngine(g.state, ctx.Events, g.home.Name, g.away.Name)
	g.resolver = NewResolver(ctx.Random, g.league)

	g.logger.Debug("game starting",
		"home", g.home.Name,
		"away", g.away.Name,
		"matchup", g.matchup,
	)
	g.engine.Start()
	return nil
}

// Step plays one plate appearance.
func (g *Game) Step() (sim.StepResult, error) {
	if g.engine == nil {
		return sim.StepError, ErrNotInitialized
	}
	if g.engine.IsOver() {
		return sim.StepCompleted, nil
	}

	batting, fielding := g.away, g.home
	if g.state.Half == Bottom {
		batting, fielding = g.home, g.away
	}

	if fielding.NeedsRelief() {
		out, in, _ := fielding.ChangePitcher()
		g.ctx.Events.Publish(PitcherChanged{
			Team:       fielding.Name,
			Outgoing:   out.Name,
			Incoming:   in.Name,
			PitchCount: out.PitchCount(),
		})
	}

	batter := batting.NextBatter()
	pitcher := fielding.Pitcher()
	if err := g.engine.BeginAtBat(batter, pitcher.Name); err != nil {
		return sim.StepError, err
	}

	res, err := g.resolve(batter, pitcher)
	if err != nil {
		return sim.StepError, err
	}

	if err := g.advanceTime(res.Pitches); err != nil {
		return sim.StepError, err
	}

	if _, err := g.engine.Apply(Play{
		Batter:    batter,
		Pitcher:   pitcher.Name,
		Outcome:   res.Outcome,
		Strikeout: res.Strikeout,
		Pitches:   res.Pitches,
	}); err != nil {
		return sim.StepError, err
	}

	if g.engine.IsOver() {
		if g.ctx.Shared != nil {
			g.ctx.Shared.Set(SharedFinalKey, true)
		}
		r := g.engine.Result()
		g.logger.Debug("game over",
			"home_score", r.HomeScore,
			"away_score", r.AwayScore,
			"innings", r.Innings,
			"walk_off", r.WalkOff,
		)
		return sim.StepCompleted, nil
	}
	return sim.StepContinue, nil
}

func (g *Game) resolve(batter *Player, pitcher *Pitcher) (Resolution, error) {
	hitter := g.windAdjusted(batter)
	if g.matchup {
		return g.resolver.ResolveMatchup(hitter, pitcher)
	}
	outcome, err := g.resolver.Resolve(hitter)
	if err != nil {
		return Resolution{}, err
	}
	pitches := PitchesFor(outcome, false)
	pitcher.AddPitches(pitches)
	return Resolution{Outcome: outcome, Pitches: pitches}, nil
}

// windAdjusted returns batter with the home-run rate scaled by the shared
// wind speed. The rate sum is capped at 1.
func (g *Game) windAdjusted(batter *Player) *Player {
	if g.ctx.Shared == nil {
		return batter
	}
	wind := g.ctx.Shared.Float(SharedWindKey, 0)
	if wind <= 0 {
		return batter
	}
	rates := batter.Rates
	others := rates.Sum() - rates.HomeRun
	rates.HomeRun = math.Min(rates.HomeRun*(1+wind/100), math.Max(0, 1-others))
	return &Player{Name: batter.Name, Rates: rates}
}

// advanceTime moves the clock by the length of the plate appearance and
// keeps the scheduler in step with it.
func (g *Game) advanceTime(pitches int) error {
	if g.ctx.Clock.Mode() != sim.DiscreteEvent {
		return nil
	}
	if err := g.ctx.Clock.Advance(time.Duration(pitches) * g.pitchSeconds); err != nil {
		return err
	}
	return g.ctx.Events.SetTime(g.ctx.Clock.Now())
}

func (g *Game) IsComplete() bool {
	return g.engine != nil && g.engine.IsOver()
}

func (g *Game) Dispose() error { return nil }

// Result returns the line score so far.
func (g *Game) Result() GameResult {
	if g.engine == nil {
		return GameResult{Home: g.home.Name, Away: g.away.Name}
	}
	return g.engine.Result()
}

// State returns the live scoreboard (nil before Initialize).
func (g *Game) State() *GameState { return g.state }

// Home returns the home team.
func (g *Game) Home() *Team { return g.home }

// Away returns the away team.
func (g *Game) Away() *Team { return g.away }

// GameSnapshot is the serializable state of a game in progress.
type GameSnapshot struct {
	State  StateSnapshot  `json:"state"`
	Engine engineSnapshot `json:"engine"`
	Home   teamSnapshot   `json:"home"`
	Away   teamSnapshot   `json:"away"`
}

// Snapshot saves the game under name in the run's snapshot manager.
func (g *Game) Snapshot(name string) (sim.Snapshot, error) {
	if g.engine == nil {
		return sim.Snapshot{}, ErrNotInitialized
	}
	return g.ctx.Snapshots.Save(name, GameSnapshot{
		State:  g.state.Snapshot(),
		Engine: g.engine.snapshot(),
		Home:   g.home.snapshot(),
		Away:   g.away.snapshot(),
	})
}

// Restore returns the game to the snapshot saved under name. Simulated time
// and the event log are not rewound.
func (g *Game) Restore(name string) error {
	if g.engine == nil {
		return ErrNotInitialized
	}
	var snap GameSnapshot
	if _, err := g.ctx.Snapshots.Load(name, &snap); err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}

	homeBefore, awayBefore := g.home.snapshot(), g.away.snapshot()
	if err := g.home.restore(snap.Home); err != nil {
		return err
	}
	if err := g.away.restore(snap.Away); err != nil {
		_ = g.home.restore(homeBefore)
		return err
	}

	batting := g.away
	if snap.State.Half == Bottom {
		batting = g.home
	}
	if err := g.state.Restore(snap.State, batting.Player); err != nil {
		_ = g.home.restore(homeBefore)
		_ = g.away.restore(awayBefore)
		return err
	}
	g.engine.restore(snap.Engine)
	return nil
}
