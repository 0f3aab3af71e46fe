package harness

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/triple-play-labs/diamondx/internal/baseball"
	"github.com/triple-play-labs/diamondx/internal/event"
)

// AssertionError is returned when an assertion fails.
// It includes the narrated trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []event.Event
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			line, ok := baseball.Narrate(ev)
			if !ok {
				line = string(ev.Type)
			}
			fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, line)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFinalState:
			err = assertFinalState(result.Final, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Events, assertion)
		case AssertEventOrder:
			err = assertEventOrder(result.Events, assertion)
		case AssertEventContains:
			err = assertEventContains(result.Events, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

// assertFinalState checks the expected fields of the final scoreboard
// (subset semantics).
func assertFinalState(final FinalState, assertion Assertion) error {
	actual := final.fields()
	for _, key := range sortedKeys(assertion.Expect) {
		got, ok := actual[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   "not a final state field",
			}
		}
		if !valuesEqual(got, assertion.Expect[key]) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %v", key, assertion.Expect[key]),
				Actual:   fmt.Sprintf("%s = %v", key, got),
			}
		}
	}
	return nil
}

// assertEventCount checks the event type appears exactly the specified number of times.
func assertEventCount(events []event.Event, assertion Assertion) error {
	count := 0
	for _, ev := range events {
		if string(ev.Type) == assertion.Event {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    events,
		}
	}
	return nil
}

// assertEventOrder checks the first occurrence of each listed type appears in
// the given order. Intervening events are allowed.
func assertEventOrder(events []event.Event, assertion Assertion) error {
	positions := make(map[string]int)
	for i, ev := range events {
		if _, seen := positions[string(ev.Type)]; !seen {
			positions[string(ev.Type)] = i + 1 // 1-indexed for readability
		}
	}

	for _, typ := range assertion.Events {
		if positions[typ] == 0 {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("all events present: %v", assertion.Events),
				Actual:   fmt.Sprintf("missing event: %s", typ),
				Trace:    events,
			}
		}
	}

	for i := 1; i < len(assertion.Events); i++ {
		prev, curr := assertion.Events[i-1], assertion.Events[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: events,
			}
		}
	}
	return nil
}

// assertEventContains checks some event of the given type carries all the
// listed payload fields.
func assertEventContains(events []event.Event, assertion Assertion) error {
	for _, ev := range events {
		if string(ev.Type) != assertion.Event {
			continue
		}
		fields, err := payloadFields(ev)
		if err != nil {
			return err
		}
		if matchFields(fields, assertion.Fields) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("%s with fields %v", assertion.Event, assertion.Fields),
		Actual:   "not found in trace",
		Trace:    events,
	}
}

// payloadFields flattens a payload to its JSON field map.
func payloadFields(ev event.Event) (map[string]any, error) {
	data, err := ev.MarshalPayload()
	if err != nil {
		return nil, fmt.Errorf("marshal %s seq=%d: %w", ev.Type, ev.Seq, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal %s seq=%d: %w", ev.Type, ev.Seq, err)
	}
	return fields, nil
}

// matchFields checks if actual contains all expected fields (subset match).
func matchFields(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares scalar values across YAML and JSON decodings, where
// the same number may arrive as int or float64.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
