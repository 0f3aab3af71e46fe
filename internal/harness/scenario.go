package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/triple-play-labs/diamondx/internal/baseball"
)

// Scenario defines one situational test of the rules engine.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Home and Away name the teams; they default to "Home" and "Away".
	Home string `yaml:"home,omitempty"`
	Away string `yaml:"away,omitempty"`

	// Pitcher is the name recorded on every at-bat; defaults to "Pitcher".
	Pitcher string `yaml:"pitcher,omitempty"`

	// Start publishes GameStarted and InningStarted before the first play.
	Start bool `yaml:"start,omitempty"`

	// State is the situation before the first play. A zero inning means the
	// top of the first with nobody on.
	State InitialState `yaml:"state"`

	// Plays are applied in order.
	Plays []PlayStep `yaml:"plays"`

	// Assertions validate the final state and the event log.
	Assertions []Assertion `yaml:"assertions"`
}

// InitialState is the scoreboard a scenario starts from.
type InitialState struct {
	Inning    int    `yaml:"inning"`
	Half      string `yaml:"half"`
	Outs      int    `yaml:"outs"`
	HomeScore int    `yaml:"home_score"`
	AwayScore int    `yaml:"away_score"`
	Bases     Bases  `yaml:"bases"`
}

// Bases names the runner on each base; empty means unoccupied.
type Bases struct {
	First  string `yaml:"first,omitempty"`
	Second string `yaml:"second,omitempty"`
	Third  string `yaml:"third,omitempty"`
}

// PlayStep is one resolved plate appearance.
type PlayStep struct {
	Batter    string `yaml:"batter"`
	Outcome   string `yaml:"outcome"`
	Strikeout bool   `yaml:"strikeout,omitempty"`

	// Pitches defaults to the standard charge for the outcome.
	Pitches int `yaml:"pitches,omitempty"`

	// Expect validates the play's result. Nil fields are not checked.
	Expect *PlayExpect `yaml:"expect,omitempty"`
}

// PlayExpect specifies the expected result of one play.
type PlayExpect struct {
	Runs      *int  `yaml:"runs,omitempty"`
	HalfEnded *bool `yaml:"half_ended,omitempty"`
	GameOver  *bool `yaml:"game_over,omitempty"`

	// Error is the expected invariant code (e.g. OUTS_EXCEEDED). A play that
	// fails without an expected error fails the scenario.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final state or the event log.
type Assertion struct {
	// Type is one of final_state, event_count, event_order, event_contains.
	Type string `yaml:"type"`

	// Event is the event type (event_count, event_contains).
	Event string `yaml:"event,omitempty"`

	// Count is the expected number of occurrences (event_count).
	Count int `yaml:"count,omitempty"`

	// Events is the expected relative order (event_order).
	Events []string `yaml:"events,omitempty"`

	// Fields is a subset of payload fields (event_contains).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Expect is a subset of final state fields (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertEventCount    = "event_count"
	AssertEventOrder    = "event_order"
	AssertEventContains = "event_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob scenarios: %w", err)
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Plays) == 0 {
		return fmt.Errorf("plays list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.State.Half != "" {
		var h baseball.Half
		if err := h.UnmarshalText([]byte(s.State.Half)); err != nil {
			return fmt.Errorf("state.half: %w", err)
		}
	}
	if s.State.Inning < 0 {
		return fmt.Errorf("state.inning must be non-negative")
	}
	if s.State.Outs < 0 || s.State.Outs > 2 {
		return fmt.Errorf("state.outs must be 0, 1 or 2")
	}

	for i, step := range s.Plays {
		if step.Batter == "" {
			return fmt.Errorf("plays[%d]: batter is required", i)
		}
		if _, err := baseball.ParseOutcome(step.Outcome); err != nil {
			return fmt.Errorf("plays[%d]: %w", i, err)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		for key := range a.Expect {
			if _, ok := stateFields[key]; !ok {
				return fmt.Errorf("assertions[%d]: unknown final_state field %q", index, key)
			}
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertEventContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
