package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayResult holds the replay verdict for one stored run.
type ReplayResult struct {
	RunID         string `json:"run_id"`
	Seed          int64  `json:"seed"`
	StoredDigest  string `json:"stored_digest"`
	LogDigest     string `json:"log_digest"`
	ReplayDigest  string `json:"replay_digest"`
	StoredEvents  int    `json:"stored_events"`
	ReplayEvents  int    `json:"replay_events"`
	Deterministic bool   `json:"deterministic"`

	// FirstDivergence is the seq of the first differing event, or -1.
	FirstDivergence int64 `json:"first_divergence"`
}

// RenderText prints the verdict.
func (r ReplayResult) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Run %s (seed %d)\n", r.RunID, r.Seed)
	fmt.Fprintf(w, "  stored digest  %s (%d events)\n", r.StoredDigest, r.StoredEvents)
	fmt.Fprintf(w, "  log digest     %s\n", r.LogDigest)
	fmt.Fprintf(w, "  replay digest  %s (%d events)\n", r.ReplayDigest, r.ReplayEvents)
	if r.Deterministic {
		fmt.Fprintln(w, "✓ deterministic")
		return nil
	}
	fmt.Fprint(w, "✗ replay diverged")
	if r.FirstDivergence >= 0 {
		fmt.Fprintf(w, " at seq %d", r.FirstDivergence)
	}
	fmt.Fprintln(w)
	return nil
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Re-simulate a stored game and verify determinism",
		Long: `Re-simulate a stored game from its seed and settings and compare the
event-log digest with the stored one.

The stored log is also re-hashed, so a log altered after it was written is
reported even when the simulation itself still agrees.

Exit codes:
  0 - Replay is deterministic
  1 - Digests differ
  2 - Command error (database not found, unknown run, etc.)

Examples:
  diamondx replay 0192f7c4-... --db ./diamondx.db
  diamondx replay 0192f7c4-... --db ./diamondx.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Env.DB, "path to SQLite database")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	formatter.RunID = runID
	ctx := commandContext(cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return readRunError(formatter, runID, err)
	}
	if run.Kind != store.KindGame {
		return NewExitError(ExitCommandError, fmt.Sprintf("run %s is a %s run and cannot be replayed", runID, run.Kind))
	}
	stored, err := st.ReadEvents(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read event log", err)
	}

	var cfg GameConfig
	if err := json.Unmarshal(run.Config, &cfg); err != nil {
		return WrapExitError(ExitCommandError, "stored game config is unreadable", err)
	}
	formatter.VerboseLog("Replaying %s: %s at %s, seed %d", runID, cfg.Away, cfg.Home, run.Seed)

	res, _, err := simulateGame(ctx, cfg, run.Seed, run.ID, opts.runLogger(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to rebuild game", err)
	}
	replayed, err := event.ToRecords(res.Events)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode replayed log", err)
	}
	logDigest, err := event.DigestRecords(stored)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash stored log", err)
	}

	result := ReplayResult{
		RunID:           run.ID,
		Seed:            run.Seed,
		StoredDigest:    run.Digest,
		LogDigest:       logDigest,
		ReplayDigest:    res.Digest,
		StoredEvents:    len(stored),
		ReplayEvents:    len(replayed),
		FirstDivergence: firstDivergence(stored, replayed),
	}
	result.Deterministic = result.StoredDigest == result.ReplayDigest &&
		result.LogDigest == result.StoredDigest

	if !result.Deterministic {
		if formatter.IsJSON() {
			if err := formatter.Error(ErrCodeReplayDiff, "replay diverged from stored run", result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("run %s is not deterministic", runID))
	}
	return formatter.Success(result)
}

// firstDivergence returns the seq of the first record that differs between
// the logs, or -1 when they are identical.
func firstDivergence(a, b []event.Record) int64 {
	n := min(len(a), len(b))
	for i := range n {
		if a[i].Seq != b[i].Seq || a[i].TimeNs != b[i].TimeNs || a[i].Type != b[i].Type ||
			string(a[i].Payload) != string(b[i].Payload) {
			return a[i].Seq
		}
	}
	switch {
	case len(a) > n:
		return a[n].Seq
	case len(b) > n:
		return b[n].Seq
	}
	return -1
}

// openExisting opens a database that must already exist.
func openExisting(path string) (*store.Store, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "--db is required (or set DIAMONDX_DB)")
	}
	if !fileExists(path) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func readRunError(formatter *OutputFormatter, runID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		if formatter.IsJSON() {
			_ = formatter.Error(ErrCodeUnknownRun, fmt.Sprintf("run %s not found", runID), nil)
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("run %s not found", runID), err)
	}
	return WrapExitError(ExitCommandError, "failed to read run", err)
}
