// Package weather is a small ambient-conditions model run alongside a game
// under the orchestrator. It random-walks wind speed and temperature once per
// step and publishes the wind into the shared store for other models.
package weather

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/triple-play-labs/diamondx/internal/event"
	"github.com/triple-play-labs/diamondx/internal/sim"
)

const (
	ModelName    = "weather"
	ModelVersion = "1.0.0"
)

// Parameter keys.
const (
	ParamMaxSteps = "weather.max_steps"
	ParamWind     = "weather.wind_mph"
	ParamTemp     = "weather.temp_f"
	ParamGust     = "weather.gust_mph"
	ParamStopKey  = "weather.stop_key"
)

// SharedWindKey is where the current wind speed is published.
const SharedWindKey = "weather.wind_mph"

// DefaultStopKey is the shared flag that ends the model.
const DefaultStopKey = "baseball.final"

// TypeWeatherChanged tags Changed events.
const TypeWeatherChanged event.Type = "WeatherChanged"

// Changed is published every step.
type Changed struct {
	Step    int     `json:"step"`
	WindMph float64 `json:"wind_mph"`
	TempF   float64 `json:"temp_f"`
}

func (Changed) EventType() event.Type { return TypeWeatherChanged }

// Model is the weather simulation.
type Model struct {
	ctx      *sim.Context
	logger   *slog.Logger
	wind     float64
	temp     float64
	gust     float64
	stopKey  string
	maxSteps int
	steps    int
	complete bool
}

// New creates a weather model. Conditions come from parameters at Initialize.
func New() *Model { return &Model{} }

func (m *Model) Name() string    { return ModelName }
func (m *Model) Version() string { return ModelVersion }

func (m *Model) Initialize(ctx *sim.Context) error {
	if ctx == nil || ctx.Random == nil || ctx.Events == nil {
		return fmt.Errorf("initialize %s: incomplete context", ModelName)
	}
	m.ctx = ctx
	m.logger = ctx.Logger.With("model", ModelName)
	m.wind = math.Max(0, ctx.Params.Float(ParamWind, 5))
	m.temp = ctx.Params.Float(ParamTemp, 70)
	m.gust = math.Max(0, ctx.Params.Float(ParamGust, 2))
	m.stopKey = ctx.Params.String(ParamStopKey, DefaultStopKey)
	m.maxSteps = ctx.Params.Int(ParamMaxSteps, 0)
	if m.maxSteps < 0 {
		return fmt.Errorf("initialize %s: %s must be non-negative, got %d", ModelName, ParamMaxSteps, m.maxSteps)
	}
	m.publishWind()
	m.logger.Debug("weather initialized", "wind_mph", m.wind, "temp_f", m.temp)
	return nil
}

// Step moves the conditions one step. It completes once the stop flag is
// set in the shared store or the step budget is spent.
func (m *Model) Step() (sim.StepResult, error) {
	if m.ctx == nil {
		return sim.StepError, fmt.Errorf("%s: not initialized", ModelName)
	}
	if m.complete {
		return sim.StepCompleted, nil
	}
	if m.ctx.Shared != nil && m.ctx.Shared.Bool(m.stopKey) {
		m.complete = true
		return sim.StepCompleted, nil
	}

	m.steps++
	m.wind = math.Max(0, m.wind+(m.ctx.Random.Float64()-0.5)*2*m.gust)
	m.temp += (m.ctx.Random.Float64() - 0.5) * 0.5
	m.publishWind()
	m.ctx.Events.Publish(Changed{Step: m.steps, WindMph: round2(m.wind), TempF: round2(m.temp)})

	if m.maxSteps > 0 && m.steps >= m.maxSteps {
		m.complete = true
		return sim.StepCompleted, nil
	}
	return sim.StepContinue, nil
}

func (m *Model) publishWind() {
	if m.ctx.Shared != nil {
		m.ctx.Shared.Set(SharedWindKey, m.wind)
	}
}

func (m *Model) IsComplete() bool { return m.complete }

func (m *Model) Dispose() error { return nil }

// Wind returns the current wind speed in mph.
func (m *Model) Wind() float64 { return m.wind }

// Temp returns the current temperature in Fahrenheit.
func (m *Model) Temp() float64 { return m.temp }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// DecodeRecord rebuilds a WeatherChanged event from its storage form.
func DecodeRecord(rec event.Record) (event.Event, error) {
	if rec.Type != TypeWeatherChanged {
		return event.Event{}, fmt.Errorf("decode seq=%d: not a weather event: %s", rec.Seq, rec.Type)
	}
	var c Changed
	if err := json.Unmarshal(rec.Payload, &c); err != nil {
		return event.Event{}, fmt.Errorf("decode seq=%d: %w", rec.Seq, err)
	}
	return rec.Event(c), nil
}
