package sim

import (
	"log/slog"
	"sync/atomic"

	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/random"
)

// control holds the cooperative pause/stop flags. It is shared by a base
// Context and every Context derived from it, so a model asking to stop is
// seen by whoever drives the run.
type control struct {
	pause atomic.Bool
	stop  atomic.Bool
}

// Context is the set of run services handed to a model in Initialize.
//
// A Context is a plain struct: the orchestrator derives per-model contexts by
// copying the service references and replacing Params with a merged bag, so
// no model can observe another model's overrides.
type Context struct {
	RunID     string
	Seed      int64
	Random    random.Source
	Clock     *Clock
	Events    *event.Scheduler
	Params    Params
	Snapshots *SnapshotManager

	// Shared is the cross-model store. Nil unless the model runs under an
	// orchestrator.
	Shared *Shared

	Logger *slog.Logger

	ctl *control
}

// NewContext assembles a Context from explicit services. Nil params become an
// empty bag and a nil logger becomes slog.Default().
func NewContext(runID string, seed int64, src random.Source, clock *Clock, events *event.Scheduler, params Params, logger *slog.Logger) *Context {
	if params == nil {
		params = Params{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		RunID:     runID,
		Seed:      seed,
		Random:    src,
		Clock:     clock,
		Events:    events,
		Params:    params,
		Snapshots: NewSnapshotManager(clock),
		Logger:    logger.With("run_id", runID),
		ctl:       &control{},
	}
}

// Derive returns a copy of c with params merged over c.Params and shared as
// the cross-model store. Pause/stop flags stay linked to c.
func (c *Context) Derive(overrides Params, shared *Shared) *Context {
	d := *c
	d.Params = c.Params.Merge(overrides)
	d.Shared = shared
	if d.ctl == nil {
		d.ctl = &control{}
	}
	return &d
}

// RequestPause asks the driver to pause after the current step.
func (c *Context) RequestPause() { c.control().pause.Store(true) }

// RequestStop asks the driver to stop after the current step.
func (c *Context) RequestStop() { c.control().stop.Store(true) }

// ClearPause withdraws a pause request so the run can resume.
func (c *Context) ClearPause() { c.control().pause.Store(false) }

// PauseRequested reports whether a pause is pending.
func (c *Context) PauseRequested() bool { return c.control().pause.Load() }

// StopRequested reports whether a stop is pending.
func (c *Context) StopRequested() bool { return c.control().stop.Load() }

func (c *Context) control() *control {
	if c.ctl == nil {
		c.ctl = &control{}
	}
	return c.ctl
}
