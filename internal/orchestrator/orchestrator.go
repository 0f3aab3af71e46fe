// Package orchestrator runs several independent simulation models in one
// coordinated, time-stepped execution.
//
// Models are registered with a priority and dependency ids. Initialize
// resolves one execution order: registrations are seeded in ascending
// priority (ties keep registration order) and visited depth-first, each
// model's dependencies before the model itself. Dependencies therefore win
// over priority. Every Step then steps each active model once in that order
// and fires the barrier hook.
//
// The Orchestrator implements sim.Simulation, so a sim.Runner drives it like
// any single model.
package orchestrator

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/triple-play-labs/diamondx/internal/sim"
)

// Model identity when driven as a sim.Simulation.
const (
	Name    = "orchestrator"
	Version = "1.0.0"
)

// State is the orchestrator lifecycle phase.
type State int

const (
	StateCreated State = iota
	StateReady
	StateRunning
	StateCompleted
	StateError
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ModelState is the lifecycle phase of one registration.
type ModelState int

const (
	ModelRegistered ModelState = iota
	ModelInitializing
	ModelReady
	ModelStepping
	ModelCompleted
	ModelError
)

func (s ModelState) String() string {
	switch s {
	case ModelRegistered:
		return "registered"
	case ModelInitializing:
		return "initializing"
	case ModelReady:
		return "ready"
	case ModelStepping:
		return "stepping"
	case ModelCompleted:
		return "completed"
	case ModelError:
		return "error"
	default:
		return fmt.Sprintf("ModelState(%d)", int(s))
	}
}

// Options configures one registration.
type Options struct {
	// Priority orders independent models; lower runs earlier.
	Priority int

	// Optional models may fail without failing the orchestrator.
	Optional bool

	// ContinueAfterComplete keeps stepping a model after it completes.
	ContinueAfterComplete bool

	// Params override the orchestrator-level parameters for this model.
	Params sim.Params
}

// Registration is one model under orchestration.
type Registration struct {
	ID        string
	Model     sim.Simulation
	Options   Options
	DependsOn []string

	state ModelState
	err   error
}

// State returns the model's lifecycle phase.
func (r *Registration) State() ModelState { return r.state }

// Err returns the error that put the model in ModelError.
func (r *Registration) Err() error { return r.err }

// StepInfo is passed to the per-model hooks.
type StepInfo struct {
	Step    int
	ModelID string
	Time    time.Duration
	Result  sim.StepResult
	Err     error
}

// BarrierInfo is passed to the barrier hook.
type BarrierInfo struct {
	Step   int
	Time   time.Duration
	Active int
}

// Hooks are lifecycle callbacks. Nil hooks are skipped.
type Hooks struct {
	BeforeStep func(StepInfo)
	AfterStep  func(StepInfo)
	Barrier    func(BarrierInfo)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHooks installs lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) { o.hooks = h }
}

// Orchestrator steps registered models in dependency order.
//
// Thread-safety: Orchestrator is NOT safe for concurrent use. Models are
// stepped sequentially on the caller's goroutine.
//
// INVARIANTS:
//   - Registration ids are unique
//   - The execution order is computed once, in Initialize
//   - A model is never stepped before any of its dependencies in a barrier
type Orchestrator struct {
	regs   []*Registration
	byID   map[string]*Registration
	order  []*Registration
	state  State
	shared *sim.Shared
	ctx    *sim.Context
	hooks  Hooks
	step   int
	logger *slog.Logger
}

// New creates an empty orchestrator with its own shared store.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		byID:   make(map[string]*Registration),
		shared: sim.NewShared(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Name() string    { return Name }
func (o *Orchestrator) Version() string { return Version }

// State returns the lifecycle phase.
func (o *Orchestrator) State() State { return o.state }

// Shared returns the cross-model store.
func (o *Orchestrator) Shared() *sim.Shared { return o.shared }

// Steps returns the number of barriers run.
func (o *Orchestrator) Steps() int { return o.step }

// Register adds a model. Registration is closed once Initialize is called.
func (o *Orchestrator) Register(id string, model sim.Simulation, opts Options, dependsOn ...string) error {
	if id == "" || model == nil {
		return fmt.Errorf("register %q: %w", id, ErrNilModel)
	}
	if o.state != StateCreated && o.state != StateReady {
		return newStateError("register", o.state)
	}
	if _, dup := o.byID[id]; dup {
		return &ConfigError{
			Code:    ErrCodeDuplicateModel,
			Message: "model id already registered",
			ModelID: id,
		}
	}

	reg := &Registration{
		ID:        id,
		Model:     model,
		Options:   opts,
		DependsOn: append([]string(nil), dependsOn...),
	}
	o.regs = append(o.regs, reg)
	o.byID[id] = reg
	o.state = StateReady
	return nil
}

// Registration returns the registration for id.
func (o *Orchestrator) Registration(id string) (*Registration, bool) {
	r, ok := o.byID[id]
	return r, ok
}

// Order returns the execution order (empty before Initialize).
func (o *Orchestrator) Order() []string {
	ids := make([]string, len(o.order))
	for i, r := range o.order {
		ids[i] = r.ID
	}
	return ids
}

// Initialize resolves the execution order and initializes every model in
// it, each with ctx's parameters merged with its own overrides and the
// shared store attached.
//
// A required model that fails to initialize aborts the call; an optional
// one is marked ModelError and skipped from then on.
func (o *Orchestrator) Initialize(ctx *sim.Context) error {
	switch o.state {
	case StateReady:
	case StateCreated:
		return &ConfigError{Code: ErrCodeNoModels, Message: "no models registered"}
	default:
		return newStateError("initialize", o.state)
	}
	if ctx == nil {
		return fmt.Errorf("initialize %s: context is required", Name)
	}
	if ctx.Logger != nil {
		o.logger = ctx.Logger
	}

	order, err := o.resolveOrder()
	if err != nil {
		o.state = StateError
		return err
	}
	o.order = order
	o.ctx = ctx
	o.logger.Debug("execution order resolved", "order", o.Order())

	for _, r := range o.order {
		r.state = ModelInitializing
		mctx := ctx.Derive(r.Options.Params, o.shared)
		if err := r.Model.Initialize(mctx); err != nil {
			r.state = ModelError
			r.err = err
			if !r.Options.Optional {
				o.state = StateError
				return &ConfigError{
					Code:    ErrCodeInitFailed,
					Message: "required model failed to initialize",
					ModelID: r.ID,
					Cause:   err,
				}
			}
			o.logger.Warn("optional model failed to initialize", "model", r.ID, "error", err)
			continue
		}
		r.state = ModelReady
	}

	o.state = StateRunning
	return nil
}

const (
	unvisited = iota
	visiting
	visited
)

// resolveOrder computes the execution order: seeds sorted by priority
// (stable, so ties keep registration order), each visited depth-first with
// dependencies first.
func (o *Orchestrator) resolveOrder() ([]*Registration, error) {
	seeds := make([]*Registration, len(o.regs))
	copy(seeds, o.regs)
	sort.SliceStable(seeds, func(i, j int) bool {
		return seeds[i].Options.Priority < seeds[j].Options.Priority
	})

	marks := make(map[string]int, len(o.regs))
	order := make([]*Registration, 0, len(o.regs))
	var path []string

	var visit func(r *Registration) error
	visit = func(r *Registration) error {
		switch marks[r.ID] {
		case visited:
			return nil
		case visiting:
			return newCycleError(cyclePath(path, r.ID))
		}

		marks[r.ID] = visiting
		path = append(path, r.ID)
		for _, depID := range r.DependsOn {
			dep, ok := o.byID[depID]
			if !ok {
				return &ConfigError{
					Code:    ErrCodeUnknownDependency,
					Message: fmt.Sprintf("depends on unregistered model %q", depID),
					ModelID: r.ID,
				}
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		marks[r.ID] = visited
		order = append(order, r)
		return nil
	}

	for _, r := range seeds {
		if err := visit(r); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cyclePath returns the tail of path starting at id, closed with id.
func cyclePath(path []string, id string) []string {
	for i, p := range path {
		if p == id {
			cycle := append([]string(nil), path[i:]...)
			return append(cycle, id)
		}
	}
	return []string{id, id}
}

// Step runs one barrier: every active model steps once in execution order,
// then the barrier hook fires. Returns StepCompleted once no model was
// active in a call.
//
// A failing optional model is marked ModelError and skipped from then on. A
// failing required model puts the orchestrator in StateError and its error
// is returned after the after-step hook has seen it.
func (o *Orchestrator) Step() (sim.StepResult, error) {
	switch o.state {
	case StateRunning:
	case StateCompleted:
		return sim.StepCompleted, nil
	default:
		return sim.StepError, newStateError("step", o.state)
	}

	o.step++
	active := 0
	paused := false

	for _, r := range o.order {
		if r.state == ModelError {
			continue
		}
		if r.state == ModelCompleted && !r.Options.ContinueAfterComplete {
			continue
		}
		active++

		res, err := o.stepModel(r)
		if err != nil {
			if !r.Options.Optional {
				o.state = StateError
				return sim.StepError, fmt.Errorf("step %d: model %s: %w", o.step, r.ID, err)
			}
			o.logger.Warn("optional model failed", "model", r.ID, "step", o.step, "error", err)
			continue
		}
		if res == sim.StepPaused {
			paused = true
		}
	}

	o.fireBarrier(active)

	if active == 0 {
		o.state = StateCompleted
		return sim.StepCompleted, nil
	}
	if paused {
		return sim.StepPaused, nil
	}
	return sim.StepContinue, nil
}

// stepModel steps one model between the before and after hooks. A panic in
// the model is converted into its error.
func (o *Orchestrator) stepModel(r *Registration) (res sim.StepResult, err error) {
	info := StepInfo{Step: o.step, ModelID: r.ID, Time: o.now()}
	r.state = ModelStepping
	if o.hooks.BeforeStep != nil {
		o.hooks.BeforeStep(info)
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				res, err = sim.StepError, fmt.Errorf("%w: %v", sim.ErrModelPanic, rec)
			}
		}()
		res, err = r.Model.Step()
	}()

	if err == nil && res == sim.StepError {
		err = errors.New("model reported a step error")
	}

	switch {
	case err != nil:
		res = sim.StepError
		r.state = ModelError
		r.err = err
	case res == sim.StepCompleted || r.Model.IsComplete():
		r.state = ModelCompleted
	default:
		r.state = ModelReady
	}

	if o.hooks.AfterStep != nil {
		info.Time = o.now()
		info.Result = res
		info.Err = err
		o.hooks.AfterStep(info)
	}
	return res, err
}

func (o *Orchestrator) fireBarrier(active int) {
	if o.hooks.Barrier == nil {
		return
	}
	o.hooks.Barrier(BarrierInfo{Step: o.step, Time: o.now(), Active: active})
}

func (o *Orchestrator) now() time.Duration {
	if o.ctx == nil || o.ctx.Clock == nil {
		return 0
	}
	return o.ctx.Clock.Now()
}

// IsComplete reports whether the last Step found no active model.
func (o *Orchestrator) IsComplete() bool { return o.state == StateCompleted }

// Dispose disposes every model (reverse execution order) and clears the
// shared store.
func (o *Orchestrator) Dispose() error {
	regs := o.order
	if len(regs) == 0 {
		regs = o.regs
	}
	var errs []error
	for i := len(regs) - 1; i >= 0; i-- {
		if err := regs[i].Model.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("dispose %s: %w", regs[i].ID, err))
		}
	}
	o.shared.Clear()
	return errors.Join(errs...)
}

// ModelStatus is a reporting view of one registration.
type ModelStatus struct {
	ID    string
	State ModelState
	Err   error
}

// Statuses reports every registration in execution order (registration
// order before Initialize).
func (o *Orchestrator) Statuses() []ModelStatus {
	regs := o.order
	if len(regs) == 0 {
		regs = o.regs
	}
	out := make([]ModelStatus, len(regs))
	for i, r := range regs {
		out[i] = ModelStatus{ID: r.ID, State: r.state, Err: r.err}
	}
	return out
}
