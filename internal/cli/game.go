package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/triple-play-labs/diamondx/internal/baseball"
	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/random"
	"github.com/triple-play-labs/diamondx/internal/sim"
	"github.com/triple-play-labs/diamondx/internal/store"
)

// GameOptions holds flags for the game command.
type GameOptions struct {
	*RootOptions
	Game     GameConfig
	Seed     int64
	Database string
	Quiet    bool // no play-by-play
}

// GameReport is the result of the game command.
type GameReport struct {
	RunID   string              `json:"run_id"`
	Seed    int64               `json:"seed"`
	Status  string              `json:"status"`
	Reason  string              `json:"reason,omitempty"`
	Result  baseball.GameResult `json:"result"`
	Steps   int                 `json:"steps"`
	Events  int                 `json:"events"`
	SimTime time.Duration       `json:"sim_time_ns"`
	Digest  string              `json:"digest"`
	Saved   bool                `json:"saved"`
}

// RenderText prints the line score.
func (r GameReport) RenderText(w io.Writer) error {
	res := r.Result
	fmt.Fprintf(w, "\n%s %d, %s %d", res.Away, res.AwayScore, res.Home, res.HomeScore)
	if res.Innings != baseball.RegulationInnings {
		fmt.Fprintf(w, " (%d innings)", res.Innings)
	}
	if res.WalkOff {
		fmt.Fprint(w, ", walk-off")
	}
	fmt.Fprintln(w)
	if r.Status != sim.StatusCompleted.String() {
		fmt.Fprintf(w, "Game %s: %s\n", r.Status, r.Reason)
	}
	fmt.Fprintf(w, "Run %s  seed %d  %d plate appearances  %d events  %s simulated\n",
		r.RunID, r.Seed, r.Steps, r.Events, r.SimTime)
	if r.Saved {
		fmt.Fprintf(w, "Saved. Replay with: diamondx replay %s\n", r.RunID)
	}
	return nil
}

// NewGameCommand creates the game command.
func NewGameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "game",
		Short: "Play one game",
		Long: `Play one game between two roster teams with play-by-play.

The seed decides every plate appearance; the same seed, teams and settings
always produce the same game. With --db the run and its event log are stored
for replay and trace.

Exit codes:
  0 - Game completed
  1 - Game did not complete (step budget, error)
  2 - Command error (unknown team, bad roster, database error)

Examples:
  diamondx game
  diamondx game --home miners --away hawks --seed 42
  diamondx game --weather --wind 12 --db ./diamondx.db
  diamondx game --roster ./league.cue --home owls --away larks --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGame(opts, cmd)
		},
	}

	bindGameFlags(cmd, &opts.Game, rootOpts)
	cmd.Flags().Int64Var(&opts.Seed, "seed", rootOpts.Env.Seed, "random seed (0 picks one)")
	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Env.DB, "SQLite database to store the run in")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "omit play-by-play")

	return cmd
}

// bindGameFlags registers the flags shared by game and montecarlo.
func bindGameFlags(cmd *cobra.Command, cfg *GameConfig, rootOpts *RootOptions) {
	f := cmd.Flags()
	f.StringVar(&cfg.Home, "home", "hawks", "home team id")
	f.StringVar(&cfg.Away, "away", "miners", "away team id")
	f.StringVar(&cfg.Roster, "roster", rootOpts.Env.Roster, "roster file (.yaml, .json or .cue); built-in teams when empty")
	f.IntVar(&cfg.MaxSteps, "max-steps", rootOpts.Env.MaxSteps, "plate appearance budget per game (0 = unbounded)")
	f.IntVar(&cfg.PitchSeconds, "pitch-seconds", rootOpts.Env.PitchSeconds, "simulated seconds per pitch")
	f.BoolVar(&cfg.Matchup, "matchup", true, "resolve plate appearances with the batter-pitcher matchup")
	f.BoolVar(&cfg.Weather, "weather", false, "run a weather model alongside the game")
	f.Float64Var(&cfg.WindMph, "wind", 5, "starting wind speed in mph (with --weather)")
}

func resolveSeed(seed int64) (int64, error) {
	if seed != 0 {
		return seed, nil
	}
	return random.NewSeed()
}

func runGame(opts *GameOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.newLogger(cmd)

	seed, err := resolveSeed(opts.Seed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to pick a seed", err)
	}
	if _, err := loadRoster(opts.Game.Roster); err != nil {
		return WrapExitError(ExitCommandError, "failed to load roster", err)
	}

	var observers []event.Handler
	if !opts.Quiet && !formatter.IsJSON() {
		observers = append(observers, baseball.NewNarrator(cmd.OutOrStdout()))
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	runID := opts.runIDs().Generate()
	formatter.RunID = runID
	logger.Debug("game starting", "run_id", runID, "seed", seed, "home", opts.Game.Home, "away", opts.Game.Away)

	res, game, err := simulateGame(ctx, opts.Game, seed, runID, opts.runLogger(cmd), observers...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up game", err)
	}

	report := GameReport{
		RunID:   res.RunID,
		Seed:    res.Seed,
		Status:  res.Status.String(),
		Reason:  res.Reason,
		Result:  game.Result(),
		Steps:   res.Metrics.Steps,
		Events:  res.Metrics.Events,
		SimTime: res.Metrics.SimTime,
		Digest:  res.Digest,
	}

	if opts.Database != "" {
		if err := saveGame(cmd, opts.Database, opts.Game, res, report.Result); err != nil {
			return err
		}
		report.Saved = true
		logger.Info("run stored", "run_id", res.RunID, "db", opts.Database)
	}

	if err := formatter.Success(report); err != nil {
		return err
	}
	if res.Status != sim.StatusCompleted {
		return WrapExitError(ExitFailure, fmt.Sprintf("game %s: %s", res.Status, res.Reason), res.Err)
	}
	return nil
}

func saveGame(cmd *cobra.Command, path string, cfg GameConfig, res sim.Result, final baseball.GameResult) error {
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	records, err := event.ToRecords(res.Events)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode event log", err)
	}
	config, err := json.Marshal(cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode game config", err)
	}

	run := store.Run{
		ID:        res.RunID,
		Kind:      store.KindGame,
		Seed:      res.Seed,
		Status:    res.Status.String(),
		Home:      final.Home,
		Away:      final.Away,
		HomeScore: final.HomeScore,
		AwayScore: final.AwayScore,
		Innings:   final.Innings,
		WalkOff:   final.WalkOff,
		Steps:     res.Metrics.Steps,
		Digest:    res.Digest,
		Config:    config,
	}
	if err := st.SaveRun(commandContext(cmd), run, records); err != nil {
		return WrapExitError(ExitCommandError, "failed to store run", err)
	}
	return nil
}
