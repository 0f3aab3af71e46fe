package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/triple-play-labs/diamondx/internal/platform/config"
	"github.com/triple-play-labs/diamondx/internal/platform/otel"
	"github.com/triple-play-labs/diamondx/internal/sim"
)

// ServiceName identifies the binary in traces.
const ServiceName = "diamondx"

// Version is stamped at build time.
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Env is the environment configuration; command flag defaults come
	// from it.
	Env config.Sim

	// RunIDs overrides run and batch id generation (for testing). Nil means
	// sim.UUIDv7Generator.
	RunIDs sim.RunIDGenerator

	envErr   error
	shutdown func(context.Context) error
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the diamondx CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// newRootCommand builds the command tree around opts. Environment
// configuration is loaded here so flag defaults can use it.
func newRootCommand(opts *RootOptions) *cobra.Command {
	opts.Env, opts.envErr = config.LoadSim()

	cmd := &cobra.Command{
		Use:   "diamondx",
		Short: "diamondx - deterministic baseball simulation",
		Long: `Simulate baseball games plate appearance by plate appearance.

Every run is reproducible from its seed: the event log of a stored game can
be replayed and checked against its digest, and Monte Carlo batches derive
their per-game seeds from one base seed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envErr != nil {
				return WrapExitError(ExitCommandError, "invalid environment configuration", opts.envErr)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			slog.SetDefault(opts.newLogger(cmd))

			shutdown, err := otel.Setup(commandContext(cmd), ServiceName, Version, otel.Options{
				Endpoint: opts.Env.OTelEndpoint,
				Enabled:  opts.Env.OTelEnabled,
			})
			if err != nil {
				slog.Warn("tracing disabled", "error", err)
			}
			opts.shutdown = shutdown
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.shutdown == nil {
				return nil
			}
			if err := opts.shutdown(context.Background()); err != nil {
				slog.Warn("trace flush failed", "error", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewGameCommand(opts))
	cmd.AddCommand(NewMonteCarloCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger returns a text logger on the command's stderr, Debug when
// verbose and Info otherwise.
func (o *RootOptions) newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return newLoggerAt(cmd.ErrOrStderr(), level)
}

// runLogger is the logger handed to simulation runs. Per-run lines are
// Debug noise unless the user asked for them.
func (o *RootOptions) runLogger(cmd *cobra.Command) *slog.Logger {
	if o.Verbose {
		return newLoggerAt(cmd.ErrOrStderr(), slog.LevelDebug)
	}
	return newLoggerAt(cmd.ErrOrStderr(), slog.LevelWarn)
}

func (o *RootOptions) runIDs() sim.RunIDGenerator {
	if o.RunIDs != nil {
		return o.RunIDs
	}
	return sim.UUIDv7Generator{}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func newLoggerAt(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(commandContext(cmd))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
