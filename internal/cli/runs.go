package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/triple-play-labs/diamondx/internal/store"
)

// RunsOptions holds flags for the runs commands.
type RunsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// RunsList is the stored runs and batches.
type RunsList struct {
	Runs    []store.Run   `json:"runs"`
	Batches []store.Batch `json:"batches"`
}

// RenderText prints one line per run and batch.
func (l RunsList) RenderText(w io.Writer) error {
	if len(l.Runs) == 0 && len(l.Batches) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return nil
	}
	if len(l.Runs) > 0 {
		fmt.Fprintln(w, "Runs:")
		for _, r := range l.Runs {
			walkOff := ""
			if r.WalkOff {
				walkOff = " walk-off"
			}
			fmt.Fprintf(w, "  %s  %s  %s %d, %s %d (%d)%s  seed %d  %s\n",
				r.ID, r.CreatedAt.Local().Format(time.DateTime),
				r.Away, r.AwayScore, r.Home, r.HomeScore, r.Innings, walkOff, r.Seed, r.Status)
		}
	}
	if len(l.Batches) > 0 {
		fmt.Fprintln(w, "Batches:")
		for _, b := range l.Batches {
			fmt.Fprintf(w, "  %s  %s  %s at %s  %d games  %d-%d  seed %d\n",
				b.ID, b.CreatedAt.Local().Format(time.DateTime),
				b.Away, b.Home, b.Games, b.AwayWins, b.HomeWins, b.BaseSeed)
		}
	}
	return nil
}

// NewRunsCommand creates the runs command group.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List or delete stored runs",
		Long: `Inspect the runs and Monte Carlo batches stored in a database.

Examples:
  diamondx runs list --db ./diamondx.db
  diamondx runs delete 0192f7c4-... --db ./diamondx.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", rootOpts.Env.DB, "path to SQLite database")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List stored runs, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsList(opts, cmd)
		},
	}
	list.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to show (0 = all)")

	del := &cobra.Command{
		Use:           "delete <run-id>",
		Short:         "Delete a stored run and its event log",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsDelete(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

func runRunsList(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	batches, err := st.ListBatches(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list batches", err)
	}
	return opts.formatter(cmd).Success(RunsList{Runs: runs, Batches: batches})
}

func runRunsDelete(opts *RunsOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	formatter.RunID = runID
	ctx := commandContext(cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.ReadRun(ctx, runID); err != nil {
		return readRunError(formatter, runID, err)
	}
	if err := st.DeleteRun(ctx, runID); err != nil {
		return WrapExitError(ExitCommandError, "failed to delete run", err)
	}
	if formatter.IsJSON() {
		return formatter.Success(map[string]string{"deleted": runID})
	}
	return formatter.Success(fmt.Sprintf("Deleted run %s", runID))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
