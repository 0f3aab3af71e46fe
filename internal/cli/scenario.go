package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/harness"
	"github.com/triple-play-labs/diamondx/internal/store"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Filter   string // scenario name filter (glob pattern)
	Database string
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	RunID  string   `json:"run_id,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// ScenarioReport holds the overall result.
type ScenarioReport struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// RenderText prints one line per scenario and a summary.
func (r ScenarioReport) RenderText(w io.Writer) error {
	if r.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}
	for _, s := range r.Scenarios {
		if s.Pass {
			fmt.Fprintf(w, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	return nil
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <scenarios-dir>",
		Short: "Run situational scenarios against the rules engine",
		Long: `Run YAML scenario files against the baserunner state machine.

Each scenario sets up a game situation, applies scripted plays and checks
per-play expectations plus final-state and event-log assertions. With --db
the event log of every scenario is stored and can be inspected with trace.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, malformed scenario, etc.)

Examples:
  diamondx scenario ./scenarios
  diamondx scenario ./scenarios --filter "walk*"
  diamondx scenario ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by name (glob pattern)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to store scenario event logs in")

	return cmd
}

func runScenarios(opts *ScenarioOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.newLogger(cmd)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return WrapExitError(ExitCommandError, "invalid filter pattern", err)
		}
	}
	scenarios, err := harness.LoadDir(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	report := ScenarioReport{Scenarios: []ScenarioResult{}}
	for _, s := range scenarios {
		if opts.Filter != "" {
			if ok, _ := filepath.Match(opts.Filter, s.Name); !ok {
				continue
			}
		}
		formatter.VerboseLog("Running %s", s.Name)

		res, err := harness.RunWithLogger(s, opts.runLogger(cmd))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario %s could not be set up", s.Name), err)
		}
		sr := ScenarioResult{Name: s.Name, Pass: res.Pass, Errors: res.Errors}
		if st != nil {
			sr.RunID = opts.runIDs().Generate()
			if err := saveScenario(cmd, st, sr.RunID, s, res); err != nil {
				return err
			}
			logger.Debug("scenario stored", "scenario", s.Name, "run_id", sr.RunID)
		}

		report.Scenarios = append(report.Scenarios, sr)
		report.Total++
		if sr.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if err := formatter.Success(report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", report.Failed, report.Total))
	}
	return nil
}

func saveScenario(cmd *cobra.Command, st *store.Store, runID string, s *harness.Scenario, res *harness.Result) error {
	records, err := event.ToRecords(res.Events)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode event log", err)
	}
	digest, err := event.DigestRecords(records)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash event log", err)
	}
	config, err := json.Marshal(map[string]string{"scenario": s.Name})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode scenario config", err)
	}

	status := "passed"
	if !res.Pass {
		status = "failed"
	}
	final := res.Final
	err = st.SaveRun(commandContext(cmd), store.Run{
		ID:        runID,
		Kind:      store.KindScenario,
		Status:    status,
		Home:      orDefault(s.Home, harness.DefaultHome),
		Away:      orDefault(s.Away, harness.DefaultAway),
		HomeScore: final.HomeScore,
		AwayScore: final.AwayScore,
		Innings:   final.Inning,
		WalkOff:   final.WalkOff,
		Steps:     len(s.Plays),
		Digest:    digest,
		Config:    config,
	}, records)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to store scenario run", err)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
