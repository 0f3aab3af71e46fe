package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/triple-play-labs/diamondx/internal/sim"
	"github.com/triple-play-labs/diamondx/internal/store"
)

// MonteCarloOptions holds flags for the montecarlo command.
type MonteCarloOptions struct {
	*RootOptions
	Game     GameConfig
	Games    int
	Workers  int
	Seed     int64
	Database string
}

// MonteCarloReport summarizes a batch of games.
type MonteCarloReport struct {
	BatchID  string `json:"batch_id"`
	Games    int    `json:"games"`
	BaseSeed int64  `json:"base_seed"`
	Home     string `json:"home"`
	Away     string `json:"away"`

	Completed  int `json:"completed"`
	Incomplete int `json:"incomplete"`
	Errors     int `json:"errors"`

	HomeWins     int     `json:"home_wins"`
	AwayWins     int     `json:"away_wins"`
	HomeWinPct   float64 `json:"home_win_pct"`
	AwayWinPct   float64 `json:"away_win_pct"`
	AvgHomeRuns  float64 `json:"avg_home_runs"`
	AvgAwayRuns  float64 `json:"avg_away_runs"`
	ExtraInnings int     `json:"extra_innings"`
	WalkOffs     int     `json:"walk_offs"`
	ExtraPct     float64 `json:"extra_innings_pct"`
	WalkOffPct   float64 `json:"walk_off_pct"`

	Elapsed time.Duration `json:"elapsed_ns"`
	Saved   bool          `json:"saved"`

	// ErrorSamples holds up to three run errors.
	ErrorSamples []string `json:"error_samples,omitempty"`
}

const maxErrorSamples = 3

// RenderText prints the batch summary.
func (r MonteCarloReport) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "%s at %s: %d games (base seed %d)\n", r.Away, r.Home, r.Games, r.BaseSeed)
	fmt.Fprintf(w, "  %-22s %6.1f%%  (%d)\n", r.Home+" win", r.HomeWinPct*100, r.HomeWins)
	fmt.Fprintf(w, "  %-22s %6.1f%%  (%d)\n", r.Away+" win", r.AwayWinPct*100, r.AwayWins)
	fmt.Fprintf(w, "  %-22s %6.2f / %.2f\n", "avg runs (home/away)", r.AvgHomeRuns, r.AvgAwayRuns)
	fmt.Fprintf(w, "  %-22s %6.1f%%  (%d)\n", "extra innings", r.ExtraPct*100, r.ExtraInnings)
	fmt.Fprintf(w, "  %-22s %6.1f%%  (%d)\n", "walk-offs", r.WalkOffPct*100, r.WalkOffs)
	if r.Errors > 0 || r.Incomplete > 0 {
		fmt.Fprintf(w, "  %d errors, %d incomplete\n", r.Errors, r.Incomplete)
		for _, s := range r.ErrorSamples {
			fmt.Fprintf(w, "    %s\n", s)
		}
	}
	fmt.Fprintf(w, "Batch %s finished in %s\n", r.BatchID, r.Elapsed.Round(time.Millisecond))
	return nil
}

// NewMonteCarloCommand creates the montecarlo command.
func NewMonteCarloCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MonteCarloOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "montecarlo",
		Aliases: []string{"mc"},
		Short:   "Play many games in parallel and report outcome frequencies",
		Long: `Play a batch of independent games on a bounded worker pool.

Per-game seeds derive from the base seed, so a batch is reproducible from
--seed regardless of --workers. A game that fails is counted as an error and
never aborts the batch.

Exit codes:
  0 - Batch finished
  1 - Batch interrupted
  2 - Command error

Examples:
  diamondx montecarlo --games 10000 --seed 7
  diamondx mc --home miners --away hawks --workers 4 --format json
  diamondx mc --games 500 --db ./diamondx.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonteCarlo(opts, cmd)
		},
	}

	bindGameFlags(cmd, &opts.Game, rootOpts)
	cmd.Flags().IntVarP(&opts.Games, "games", "n", rootOpts.Env.Games, "number of games")
	cmd.Flags().IntVar(&opts.Workers, "workers", rootOpts.Env.Workers, "concurrent games (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", rootOpts.Env.Seed, "base seed (0 picks one)")
	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Env.DB, "SQLite database to store the batch summary in")

	return cmd
}

func runMonteCarlo(opts *MonteCarloOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.newLogger(cmd)

	if opts.Games <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--games must be positive, got %d", opts.Games))
	}
	seed, err := resolveSeed(opts.Seed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to pick a seed", err)
	}
	r, err := loadRoster(opts.Game.Roster)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load roster", err)
	}
	// Fail on unknown teams before spinning up workers.
	if _, _, err := buildModel(r, opts.Game); err != nil {
		return WrapExitError(ExitCommandError, "failed to set up game", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	batchID := opts.runIDs().Generate()
	formatter.RunID = batchID
	logger.Info("batch starting", "batch_id", batchID, "games", opts.Games, "base_seed", seed, "workers", opts.Workers)

	factory := func(int) (sim.Simulation, error) {
		model, _, err := buildModel(r, opts.Game)
		return model, err
	}
	batch, runErr := sim.RunParallel(ctx, factory, sim.ParallelConfig{
		Runs:     opts.Games,
		BaseSeed: seed,
		Workers:  opts.Workers,
		Config: sim.Config{
			MaxSteps:  opts.Game.MaxSteps,
			ClockMode: sim.DiscreteEvent,
			Params:    opts.Game.params(),
			Logger:    opts.runLogger(cmd),
		},
	})
	if batch == nil {
		return WrapExitError(ExitCommandError, "batch failed", runErr)
	}

	report := summarizeBatch(batch, opts.Games)
	report.BatchID = batchID
	if report.Home == "" {
		report.Home, report.Away = opts.Game.Home, opts.Game.Away
	}
	logger.Info("batch finished", "batch_id", batchID, "completed", report.Completed, "errors", report.Errors, "elapsed", report.Elapsed)

	if opts.Database != "" && runErr == nil {
		if err := saveBatch(cmd, opts.Database, report); err != nil {
			return err
		}
		report.Saved = true
	}

	if err := formatter.Success(report); err != nil {
		return err
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "batch interrupted", runErr)
	}
	return nil
}

// summarizeBatch tallies finished games. Rates are over completed games.
func summarizeBatch(batch *sim.Batch, games int) MonteCarloReport {
	report := MonteCarloReport{
		Games:    games,
		BaseSeed: batch.BaseSeed,
		Elapsed:  batch.Elapsed,
	}

	var homeRuns, awayRuns int
	for _, res := range batch.Results {
		switch res.Status {
		case sim.StatusCompleted:
		case sim.StatusError:
			report.Errors++
			if len(report.ErrorSamples) < maxErrorSamples && res.Err != nil {
				report.ErrorSamples = append(report.ErrorSamples, fmt.Sprintf("game %d (seed %d): %v", res.Index, res.Seed, res.Err))
			}
			continue
		default:
			report.Incomplete++
			continue
		}

		game, ok := gameOf(res.Model)
		if !ok {
			report.Errors++
			continue
		}
		final := game.Result()
		report.Completed++
		report.Home, report.Away = final.Home, final.Away
		homeRuns += final.HomeScore
		awayRuns += final.AwayScore
		switch final.Winner {
		case final.Home:
			report.HomeWins++
		case final.Away:
			report.AwayWins++
		}
		if final.ExtraInnings {
			report.ExtraInnings++
		}
		if final.WalkOff {
			report.WalkOffs++
		}
	}
	report.Incomplete += games - len(batch.Results)

	if n := float64(report.Completed); n > 0 {
		report.HomeWinPct = float64(report.HomeWins) / n
		report.AwayWinPct = float64(report.AwayWins) / n
		report.AvgHomeRuns = float64(homeRuns) / n
		report.AvgAwayRuns = float64(awayRuns) / n
		report.ExtraPct = float64(report.ExtraInnings) / n
		report.WalkOffPct = float64(report.WalkOffs) / n
	}
	return report
}

func saveBatch(cmd *cobra.Command, path string, r MonteCarloReport) error {
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	err = st.SaveBatch(commandContext(cmd), store.Batch{
		ID:           r.BatchID,
		Games:        r.Games,
		BaseSeed:     r.BaseSeed,
		Home:         r.Home,
		Away:         r.Away,
		HomeWins:     r.HomeWins,
		AwayWins:     r.AwayWins,
		Errors:       r.Errors,
		AvgHomeRuns:  r.AvgHomeRuns,
		AvgAwayRuns:  r.AvgAwayRuns,
		ExtraInnings: r.ExtraInnings,
		WalkOffs:     r.WalkOffs,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to store batch", err)
	}
	return nil
}
