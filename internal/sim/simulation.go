// Package sim defines the contract shared by every simulation model and the
// services a model runs against: a random source, a simulated clock, an
// event scheduler, a parameter bag and a snapshot manager.
//
// # Execution model
//
// A single run is single-threaded and cooperative. The Runner calls Step in
// a loop and checks pause/stop requests only between steps; a request never
// interrupts a step in progress. Independent runs (Monte Carlo) are
// embarrassingly parallel: RunParallel gives every run a private Context
// built from a seed derived from one base seed.
package sim

import "fmt"

// StepResult is the outcome of one Simulation.Step call.
type StepResult int

const (
	// StepContinue means the model has more work to do.
	StepContinue StepResult = iota
	// StepCompleted means the model reached its natural end.
	StepCompleted
	// StepPaused means the model asked its driver to pause.
	StepPaused
	// StepError means the model failed; the accompanying error says why.
	StepError
)

func (r StepResult) String() string {
	switch r {
	case StepContinue:
		return "continue"
	case StepCompleted:
		return "completed"
	case StepPaused:
		return "paused"
	case StepError:
		return "error"
	default:
		return fmt.Sprintf("StepResult(%d)", int(r))
	}
}

// Simulation is implemented by every model the Runner or the orchestrator
// can drive (the baseball game, weather, the orchestrator itself).
type Simulation interface {
	// Name identifies the model in logs and registrations.
	Name() string

	// Version identifies the model's rules revision.
	Version() string

	// Initialize binds the model to its run services. Called once before
	// the first Step.
	Initialize(ctx *Context) error

	// Step advances the model by one unit of work.
	Step() (StepResult, error)

	// IsComplete reports whether the model has reached its natural end.
	IsComplete() bool

	// Dispose releases anything acquired in Initialize.
	Dispose() error
}
