package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/random"
)

const tracerName = "github.com/triple-play-labs/diamondx/internal/sim"

// ErrModelPanic wraps a panic recovered from a model step.
var ErrModelPanic = errors.New("model panicked")

// Status is the terminal status of a Run call.
type Status int

const (
	StatusCompleted Status = iota
	StatusPaused
	StatusStopped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Config configures a Runner.
type Config struct {
	// Seed seeds the run's random source. Recorded in the Result.
	Seed int64

	// MaxSteps bounds the number of steps; 0 means unbounded.
	MaxSteps int

	ClockMode ClockMode
	ClockStep time.Duration

	Params Params

	// RunID pins the run id; otherwise IDs (default UUIDv7Generator) is used.
	RunID string
	IDs   RunIDGenerator

	Logger *slog.Logger

	// KeepEvents copies the event log and its digest into the Result.
	KeepEvents bool

	// Observers are registered on the scheduler before Initialize, so they
	// see every event the model publishes.
	Observers []event.Handler
}

// Result reports how a run ended.
type Result struct {
	Index   int           `json:"index"`
	RunID   string        `json:"run_id"`
	Seed    int64         `json:"seed"`
	Status  Status        `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Err     error         `json:"-"`
	Metrics Metrics       `json:"metrics"`
	Digest  string        `json:"digest,omitempty"`
	Events  []event.Event `json:"-"`

	// Model is the driven model, for callers that extract domain results.
	Model Simulation `json:"-"`
}

// Runner drives one model through repeated Step calls.
//
// Thread-safety model:
//   - Run/Step/Initialize/Dispose: call from one goroutine
//   - Context().RequestPause/RequestStop: safe from any goroutine
type Runner struct {
	model   Simulation
	cfg     Config
	ctx     *Context
	counter *eventCounter
	steps   int
	wall    time.Duration

	initialized bool
	disposed    bool
}

// NewRunner builds the run services (seeded random source, clock, scheduler,
// snapshot manager) and binds them to model.
func NewRunner(model Simulation, cfg Config) *Runner {
	runID := cfg.RunID
	if runID == "" {
		ids := cfg.IDs
		if ids == nil {
			ids = UUIDv7Generator{}
		}
		runID = ids.Generate()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := NewClock(cfg.ClockMode, cfg.ClockStep)
	events := event.NewScheduler(event.WithLogger(logger))
	counter := newEventCounter()
	events.Register(counter)
	for _, obs := range cfg.Observers {
		events.Register(obs)
	}

	ctx := NewContext(runID, cfg.Seed, random.NewSeeded(cfg.Seed), clock, events, cfg.Params.Clone(), logger)

	return &Runner{
		model:   model,
		cfg:     cfg,
		ctx:     ctx,
		counter: counter,
	}
}

// Context returns the run context (available before Initialize).
func (r *Runner) Context() *Context { return r.ctx }

// Model returns the driven model.
func (r *Runner) Model() Simulation { return r.model }

// Steps returns the number of steps executed so far.
func (r *Runner) Steps() int { return r.steps }

// Initialize initializes the model. Safe to call more than once.
func (r *Runner) Initialize() error {
	if r.initialized {
		return nil
	}
	if err := r.model.Initialize(r.ctx); err != nil {
		return fmt.Errorf("initialize %s: %w", r.model.Name(), err)
	}
	r.initialized = true
	r.ctx.Logger.Debug("model initialized",
		"model", r.model.Name(),
		"version", r.model.Version(),
		"seed", r.ctx.Seed,
	)
	return nil
}

// Step executes exactly one model step. A panic inside the model is
// recovered and reported as StepError wrapping ErrModelPanic.
func (r *Runner) Step() (res StepResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = StepError
			err = fmt.Errorf("%s step %d: %w: %v", r.model.Name(), r.steps+1, ErrModelPanic, rec)
		}
	}()

	res, err = r.model.Step()
	r.steps++
	if err != nil {
		return StepError, err
	}

	if r.ctx.Clock.Mode() == FixedStep {
		now := r.ctx.Clock.Tick()
		if setErr := r.ctx.Events.SetTime(now); setErr != nil {
			r.ctx.Logger.Warn("scheduler ahead of clock", "error", setErr)
		}
	}
	return res, nil
}

// Run steps the model until it completes, a pause or stop is requested, a
// step fails, ctx is cancelled or the step budget is exhausted.
//
// Run may be called again after a Paused result; any pending pause request
// is cleared on entry.
func (r *Runner) Run(ctx context.Context) Result {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sim.run",
		trace.WithAttributes(
			attribute.String("run_id", r.ctx.RunID),
			attribute.Int64("seed", r.ctx.Seed),
			attribute.String("model", r.model.Name()),
		),
	)
	defer span.End()

	start := time.Now()
	r.ctx.ClearPause()

	result := r.loop(ctx)
	r.wall += time.Since(start)
	r.fill(&result)

	span.SetAttributes(
		attribute.String("status", result.Status.String()),
		attribute.Int("steps", result.Metrics.Steps),
	)
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}

	r.ctx.Logger.Info("run finished",
		"model", r.model.Name(),
		"status", result.Status.String(),
		"steps", result.Metrics.Steps,
		"events", result.Metrics.Events,
		"reason", result.Reason,
	)
	return result
}

func (r *Runner) loop(ctx context.Context) Result {
	if err := r.Initialize(); err != nil {
		return Result{Status: StatusError, Reason: "initialize failed", Err: err}
	}

	for {
		if r.model.IsComplete() {
			return Result{Status: StatusCompleted}
		}
		if err := ctx.Err(); err != nil {
			return Result{Status: StatusStopped, Reason: "context cancelled", Err: err}
		}
		if r.ctx.StopRequested() {
			return Result{Status: StatusStopped, Reason: "stop requested"}
		}
		if r.ctx.PauseRequested() {
			return Result{Status: StatusPaused, Reason: "pause requested"}
		}
		if r.cfg.MaxSteps > 0 && r.steps >= r.cfg.MaxSteps {
			return Result{Status: StatusStopped, Reason: "step budget exhausted"}
		}

		res, err := r.Step()
		switch res {
		case StepCompleted:
			return Result{Status: StatusCompleted}
		case StepPaused:
			return Result{Status: StatusPaused, Reason: "model paused"}
		case StepError:
			if err == nil {
				err = fmt.Errorf("%s reported a step error", r.model.Name())
			}
			return Result{Status: StatusError, Reason: "step failed", Err: err}
		}
	}
}

// fill stamps identity, metrics and (optionally) the event log onto res.
func (r *Runner) fill(res *Result) {
	res.RunID = r.ctx.RunID
	res.Seed = r.ctx.Seed
	res.Model = r.model

	total, byType := r.counter.snapshot()
	res.Metrics = Metrics{
		Steps:        r.steps,
		Events:       total,
		EventsByType: byType,
		SimTime:      r.ctx.Clock.Now(),
		WallTime:     r.wall,
	}

	if !r.cfg.KeepEvents {
		return
	}
	res.Events = r.ctx.Events.Events()
	digest, err := event.Digest(res.Events)
	if err != nil {
		r.ctx.Logger.Error("event log digest failed", "error", err)
		return
	}
	res.Digest = digest
}

// Dispose releases the model. Safe to call more than once.
func (r *Runner) Dispose() error {
	if r.disposed {
		return nil
	}
	r.disposed = true
	if err := r.model.Dispose(); err != nil {
		return fmt.Errorf("dispose %s: %w", r.model.Name(), err)
	}
	return nil
}

// Run drives model to a terminal status with a fresh Runner and disposes it.
func Run(ctx context.Context, model Simulation, cfg Config) Result {
	r := NewRunner(model, cfg)
	res := r.Run(ctx)
	if err := r.Dispose(); err != nil {
		r.ctx.Logger.Warn("dispose failed", "error", err)
	}
	return res
}
