package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/random"
	"github.com/triple-play-labs/diamondx/internal/sim"
)

// fakeModel records its steps into a shared trace.
type fakeModel struct {
	id       string
	trace    *[]string
	limit    int
	failAt   int
	panicAt  int
	initErr  error
	steps    int
	ctx      *sim.Context
	disposed bool
}

func (m *fakeModel) Name() string    { return m.id }
func (m *fakeModel) Version() string { return "test" }

func (m *fakeModel) Initialize(ctx *sim.Context) error {
	if m.initErr != nil {
		return m.initErr
	}
	m.ctx = ctx
	*m.trace = append(*m.trace, "init:"+m.id)
	return nil
}

func (m *fakeModel) Step() (sim.StepResult, error) {
	m.steps++
	*m.trace = append(*m.trace, m.id)
	if m.steps == m.panicAt {
		panic("kaboom")
	}
	if m.steps == m.failAt {
		return sim.StepError, errors.New("model broke")
	}
	if m.limit > 0 && m.steps >= m.limit {
		return sim.StepCompleted, nil
	}
	return sim.StepContinue, nil
}

func (m *fakeModel) IsComplete() bool { return m.limit > 0 && m.steps >= m.limit }
func (m *fakeModel) Dispose() error {
	m.disposed = true
	return nil
}

func testContext(params sim.Params) *sim.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return sim.NewContext("orch", 1, random.NewSeeded(1), sim.NewClock(sim.DiscreteEvent, 0),
		event.NewScheduler(event.WithLogger(logger)), params, logger)
}

func TestOrchestrator_PriorityOrder(t *testing.T) {
	var trace []string
	o := New()
	require.NoError(t, o.Register("late", &fakeModel{id: "late", trace: &trace}, Options{Priority: 300}))
	require.NoError(t, o.Register("early", &fakeModel{id: "early", trace: &trace}, Options{Priority: 10}))
	require.NoError(t, o.Register("tie-a", &fakeModel{id: "tie-a", trace: &trace}, Options{Priority: 100}))
	require.NoError(t, o.Register("tie-b", &fakeModel{id: "tie-b", trace: &trace}, Options{Priority: 100}))

	require.NoError(t, o.Initialize(testContext(nil)))
	assert.Equal(t, []string{"early", "tie-a", "tie-b", "late"}, o.Order())
}

func TestOrchestrator_DependenciesBeatPriority(t *testing.T) {
	var trace []string
	o := New()
	// X would run first on priority alone, but depends on Y.
	require.NoError(t, o.Register("x", &fakeModel{id: "x", trace: &trace}, Options{Priority: 1}, "y"))
	require.NoError(t, o.Register("y", &fakeModel{id: "y", trace: &trace}, Options{Priority: 200}))
	require.NoError(t, o.Register("z", &fakeModel{id: "z", trace: &trace}, Options{Priority: 100}))

	require.NoError(t, o.Initialize(testContext(nil)))
	assert.Equal(t, []string{"y", "x", "z"}, o.Order())

	trace = nil
	for i := 0; i < 3; i++ {
		_, err := o.Step()
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"y", "x", "z", "y", "x", "z", "y", "x", "z"}, trace,
		"x steps after y in every barrier")
}

func TestOrchestrator_TransitiveDependencies(t *testing.T) {
	var trace []string
	o := New()
	require.NoError(t, o.Register("a", &fakeModel{id: "a", trace: &trace}, Options{}, "b", "c"))
	require.NoError(t, o.Register("b", &fakeModel{id: "b", trace: &trace}, Options{}, "c"))
	require.NoError(t, o.Register("c", &fakeModel{id: "c", trace: &trace}, Options{}))

	require.NoError(t, o.Initialize(testContext(nil)))
	assert.Equal(t, []string{"c", "b", "a"}, o.Order())
	assert.Equal(t, []string{"init:c", "init:b", "init:a"}, trace, "models initialize in execution order")
}

func TestOrchestrator_Cycle(t *testing.T) {
	var trace []string
	o := New()
	require.NoError(t, o.Register("a", &fakeModel{id: "a", trace: &trace}, Options{}, "b"))
	require.NoError(t, o.Register("b", &fakeModel{id: "b", trace: &trace}, Options{}, "a"))

	err := o.Initialize(testContext(nil))
	require.Error(t, err)
	assert.True(t, IsCycleError(err))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b", "a"}, ce.Path)
	assert.Empty(t, trace, "no model initialized")
	assert.Equal(t, StateError, o.State())
}

func TestOrchestrator_SelfDependency(t *testing.T) {
	var trace []string
	o := New()
	require.NoError(t, o.Register("a", &fakeModel{id: "a", trace: &trace}, Options{}, "a"))

	err := o.Initialize(testContext(nil))
	assert.True(t, IsCycleError(err))
}

func TestOrchestrator_UnknownDependency(t *testing.T) {
	var trace []string
	o := New()
	require.NoError(t, o.Register("a", &fakeModel{id: "a", trace: &trace}, Options{}, "ghost"))

	err := o.Initialize(testContext(nil))
	assert.True(t, IsConfigError(err, ErrCodeUnknownDependency))
	assert.ErrorContains(t, err, "ghost")
}

func TestOrchestrator_RegistrationRules(t *testing.T) {
	var trace []string
	o := New()

	assert.ErrorIs(t, o.Register("", &fakeModel{trace: &trace}, Options{}), ErrNilModel)
	assert.ErrorIs(t, o.Register("a", nil, Options{}), ErrNilModel)

	err := o.Initialize(testContext(nil))
	assert.True(t, IsConfigError(err, ErrCodeNoModels))

	require.NoError(t, o.Register("a", &fakeModel{id: "a", trace: &trace}, Options{}))
	err = o.Register("a", &fakeModel{id: "a", trace: &trace}, Options{})
	assert.True(t, IsConfigError(err, ErrCodeDuplicateModel))

	require.NoError(t, o.Initialize(testContext(nil)))
	err = o.Register("b", &fakeModel{id: "b", trace: &trace}, Options{})
	assert.True(t, IsConfigError(err, ErrCodeInvalidState), "registration closes at initialize")

	err = o.Initialize(testContext(nil))
	assert.True(t, IsConfigError(err, ErrCodeInvalidState))
}

func TestOrchestrator_StepBeforeInitialize(t *testing.T) {
	res, err := New().Step()
	assert.Equal(t, sim.StepError, res)
	assert.True(t, IsConfigError(err, ErrCodeInvalidState))
}

func TestOrchestrator_InitFailure(t *testing.T) {
	var trace []string

	t.Run("required", func(t *testing.T) {
		o := New()
		require.NoError(t, o.Register("bad", &fakeModel{id: "bad", trace: &trace, initErr: errors.New("no data")}, Options{}))
		require.NoError(t, o.Register("good", &fakeModel{id: "good", trace: &trace}, Options{Priority: 1}))

		err := o.Initialize(testContext(nil))
		assert.True(t, IsConfigError(err, ErrCodeInitFailed))
		assert.ErrorContains(t, err, "no data")
		assert.Equal(t, StateError, o.State())
	})

	t.Run("optional", func(t *testing.T) {
		o := New()
		require.NoError(t, o.Register("bad", &fakeModel{id: "bad", trace: &trace, initErr: errors.New("no data")}, Options{Optional: true}))
		require.NoError(t, o.Register("good", &fakeModel{id: "good", trace: &trace, limit: 1}, Options{Priority: 1}))

		require.NoError(t, o.Initialize(testContext(nil)))
		reg, ok := o.Registration("bad")
		require.True(t, ok)
		assert.Equal(t, ModelError, reg.State())
		assert.EqualError(t, reg.Err(), "no data")

		res, err := o.Step()
		require.NoError(t, err)
		assert.Equal(t, sim.StepContinue, res)
	})
}

func TestOrchestrator_OptionalStepFailureIsIsolated(t *testing.T) {
	var trace []string
	o := New()
	flaky := &fakeModel{id: "flaky", trace: &trace, failAt: 2}
	require.NoError(t, o.Register("flaky", flaky, Options{Optional: true}))
	require.NoError(t, o.Register("steady", &fakeModel{id: "steady", trace: &trace}, Options{Priority: 1}))
	require.NoError(t, o.Initialize(testContext(nil)))
	trace = nil

	for i := 0; i < 4; i++ {
		res, err := o.Step()
		require.NoError(t, err)
		assert.Equal(t, sim.StepContinue, res)
	}

	assert.Equal(t, []string{"flaky", "steady", "flaky", "steady", "steady", "steady"}, trace,
		"failed optional model is skipped permanently")
	reg, _ := o.Registration("flaky")
	assert.Equal(t, ModelError, reg.State())
	assert.Equal(t, StateRunning, o.State())
}

func TestOrchestrator_RequiredStepFailure(t *testing.T) {
	var trace []string
	var after []StepInfo
	o := New(WithHooks(Hooks{AfterStep: func(info StepInfo) { after = append(after, info) }}))
	require.NoError(t, o.Register("core", &fakeModel{id: "core", trace: &trace, failAt: 1}, Options{}))
	require.NoError(t, o.Register("next", &fakeModel{id: "next", trace: &trace}, Options{Priority: 1}))
	require.NoError(t, o.Initialize(testContext(nil)))

	res, err := o.Step()
	assert.Equal(t, sim.StepError, res)
	assert.ErrorContains(t, err, "model broke")
	assert.Equal(t, StateError, o.State())

	require.Len(t, after, 1, "after-step hook sees the failure before it propagates")
	assert.Equal(t, "core", after[0].ModelID)
	assert.EqualError(t, after[0].Err, "model broke")
	assert.Equal(t, sim.StepError, after[0].Result)

	_, err = o.Step()
	assert.True(t, IsConfigError(err, ErrCodeInvalidState), "no stepping after error")
}

func TestOrchestrator_PanicInOptionalModel(t *testing.T) {
	var trace []string
	o := New()
	require.NoError(t, o.Register("wild", &fakeModel{id: "wild", trace: &trace, panicAt: 1}, Options{Optional: true}))
	require.NoError(t, o.Initialize(testContext(nil)))

	_, err := o.Step()
	require.NoError(t, err)
	reg, _ := o.Registration("wild")
	assert.ErrorIs(t, reg.Err(), sim.ErrModelPanic)
}

func TestOrchestrator_HooksAndCompletion(t *testing.T) {
	var trace []string
	var events []string
	var barriers []BarrierInfo
	o := New(WithHooks(Hooks{
		BeforeStep: func(i StepInfo) { events = append(events, "before:"+i.ModelID) },
		AfterStep:  func(i StepInfo) { events = append(events, "after:"+i.ModelID) },
		Barrier: func(b BarrierInfo) {
			barriers = append(barriers, b)
			events = append(events, "barrier")
		},
	}))
	require.NoError(t, o.Register("short", &fakeModel{id: "short", trace: &trace, limit: 1}, Options{}))
	require.NoError(t, o.Register("long", &fakeModel{id: "long", trace: &trace, limit: 2}, Options{Priority: 1}))
	require.NoError(t, o.Initialize(testContext(nil)))

	res, err := o.Step()
	require.NoError(t, err)
	assert.Equal(t, sim.StepContinue, res)

	res, err = o.Step()
	require.NoError(t, err)
	assert.Equal(t, sim.StepContinue, res, "long was still active this barrier")

	res, err = o.Step()
	require.NoError(t, err)
	assert.Equal(t, sim.StepCompleted, res)
	assert.True(t, o.IsComplete())

	assert.Equal(t, []string{
		"before:short", "after:short", "before:long", "after:long", "barrier",
		"before:long", "after:long", "barrier",
		"barrier",
	}, events)
	require.Len(t, barriers, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{barriers[0].Step, barriers[1].Step, barriers[2].Step})
	assert.Equal(t, []int{2, 1, 0}, []int{barriers[0].Active, barriers[1].Active, barriers[2].Active})

	res, err = o.Step()
	require.NoError(t, err)
	assert.Equal(t, sim.StepCompleted, res, "completed orchestrator stays completed")
}

func TestOrchestrator_ContinueAfterComplete(t *testing.T) {
	var trace []string
	o := New()
	require.NoError(t, o.Register("sticky", &fakeModel{id: "sticky", trace: &trace, limit: 1}, Options{ContinueAfterComplete: true}))
	require.NoError(t, o.Initialize(testContext(nil)))
	trace = nil

	for i := 0; i < 3; i++ {
		res, err := o.Step()
		require.NoError(t, err)
		assert.Equal(t, sim.StepContinue, res)
	}
	assert.Equal(t, []string{"sticky", "sticky", "sticky"}, trace)
}

func TestOrchestrator_ParamsAndShared(t *testing.T) {
	var trace []string
	a := &fakeModel{id: "a", trace: &trace}
	b := &fakeModel{id: "b", trace: &trace}
	o := New()
	require.NoError(t, o.Register("a", a, Options{Params: sim.Params{"speed": 2}}))
	require.NoError(t, o.Register("b", b, Options{}))

	require.NoError(t, o.Initialize(testContext(sim.Params{"speed": 1, "name": "base"})))

	assert.Equal(t, 2, a.ctx.Params.Int("speed", 0))
	assert.Equal(t, 1, b.ctx.Params.Int("speed", 0), "overrides stay private to their model")
	assert.Equal(t, "base", a.ctx.Params.String("name", ""))
	assert.Same(t, o.Shared(), a.ctx.Shared)
	assert.Same(t, o.Shared(), b.ctx.Shared)

	a.ctx.Shared.Set("k", 1.0)
	require.NoError(t, o.Dispose())
	assert.Empty(t, o.Shared().Keys(), "dispose clears the shared store")
	assert.True(t, a.disposed)
	assert.True(t, b.disposed)
}

func TestOrchestrator_UnderRunner(t *testing.T) {
	var trace []string
	o := New()
	require.NoError(t, o.Register("a", &fakeModel{id: "a", trace: &trace, limit: 3}, Options{}))
	require.NoError(t, o.Register("b", &fakeModel{id: "b", trace: &trace, limit: 5}, Options{}))

	res := sim.Run(context.Background(), o, sim.Config{
		Seed:   1,
		RunID:  "orch",
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	assert.Equal(t, sim.StatusCompleted, res.Status)
	assert.Equal(t, 6, res.Metrics.Steps, "five barriers with work plus the empty one")
}
