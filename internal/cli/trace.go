package cli

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/triple-play-labs/diamondx/internal/baseball"
	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/weather"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Types    []string // optional - filter to these event types
	Raw      bool
}

// TraceEvent is one stored event in the trace output.
type TraceEvent struct {
	Seq     int64         `json:"seq"`
	Time    time.Duration `json:"time_ns"`
	Type    event.Type    `json:"type"`
	Line    string        `json:"line"`
	Payload any           `json:"payload"`
}

// TraceResult holds the trace of one run.
type TraceResult struct {
	RunID  string             `json:"run_id"`
	Events []TraceEvent       `json:"events"`
	Counts map[event.Type]int `json:"counts"`
	raw    bool
}

// RenderText prints one line per event.
func (r TraceResult) RenderText(w io.Writer) error {
	for _, ev := range r.Events {
		if r.raw {
			fmt.Fprintf(w, "%5d %10s %-16s %s\n", ev.Seq, ev.Time, ev.Type, ev.Line)
			continue
		}
		fmt.Fprintln(w, ev.Line)
	}
	return nil
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Print the stored event log of a run",
		Long: `Print the stored event log of a run as play-by-play.

Events are read in sequence order and decoded back into their typed form,
so the output matches the live narration of the original game.

Examples:
  diamondx trace 0192f7c4-... --db ./diamondx.db
  diamondx trace 0192f7c4-... --db ./diamondx.db --type RunScored --type GameEnded
  diamondx trace 0192f7c4-... --db ./diamondx.db --raw
  diamondx trace 0192f7c4-... --db ./diamondx.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Env.DB, "path to SQLite database")
	cmd.Flags().StringSliceVar(&opts.Types, "type", nil, "only show these event types")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "prefix each line with seq, time and type")

	return cmd
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
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
	records, err := st.ReadEvents(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read event log", err)
	}

	result := TraceResult{
		RunID:  runID,
		Events: make([]TraceEvent, 0, len(records)),
		Counts: make(map[event.Type]int),
		raw:    opts.Raw,
	}
	for _, rec := range records {
		if len(opts.Types) > 0 && !slices.Contains(opts.Types, string(rec.Type)) {
			continue
		}
		ev, err := decodeRecord(rec)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to decode event seq=%d", rec.Seq), err)
		}
		result.Counts[ev.Type]++
		result.Events = append(result.Events, TraceEvent{
			Seq:     ev.Seq,
			Time:    ev.Time,
			Type:    ev.Type,
			Line:    describeEvent(ev),
			Payload: ev.Payload,
		})
	}
	formatter.VerboseLog("Decoded %d of %d events", len(result.Events), len(records))

	return formatter.Success(result)
}

// describeEvent renders an event of any model as one line.
func describeEvent(ev event.Event) string {
	if line, ok := baseball.Narrate(ev); ok {
		return line
	}
	if p, ok := ev.Payload.(weather.Changed); ok {
		return fmt.Sprintf("  ~ wind %.2f mph, %.2f°F", p.WindMph, p.TempF)
	}
	return string(ev.Type)
}
