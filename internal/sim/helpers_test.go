package sim

import (
	"errors"
	"io"
	"log/slog"

	"github.com/triple-play-labs/diamondx/internal/event"
)

type tickPayload struct {
	N    int     `json:"n"`
	Draw float64 `json:"draw"`
}

func (tickPayload) EventType() event.Type { return "Tick" }

// countingModel completes after limit steps, publishing one Tick per step
// carrying a random draw.
type countingModel struct {
	limit    int
	failAt   int
	panicAt  int
	pauseAt  int
	initErr  error
	steps    int
	ctx      *Context
	disposed int
}

func (m *countingModel) Name() string    { return "counter" }
func (m *countingModel) Version() string { return "1.0.0" }

func (m *countingModel) Initialize(ctx *Context) error {
	if m.initErr != nil {
		return m.initErr
	}
	m.ctx = ctx
	return nil
}

func (m *countingModel) Step() (StepResult, error) {
	m.steps++
	if m.steps == m.panicAt {
		panic("boom")
	}
	if m.steps == m.failAt {
		return StepError, errors.New("step failed")
	}
	m.ctx.Events.Publish(tickPayload{N: m.steps, Draw: m.ctx.Random.Float64()})
	if m.steps == m.pauseAt {
		m.ctx.RequestPause()
	}
	if m.limit > 0 && m.steps >= m.limit {
		return StepCompleted, nil
	}
	return StepContinue, nil
}

func (m *countingModel) IsComplete() bool { return m.limit > 0 && m.steps >= m.limit }

func (m *countingModel) Dispose() error {
	m.disposed++
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
