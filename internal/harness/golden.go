package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/triple-play-labs/diamondx/internal/baseball"
	"github.com/triple-play-labs/diamondx/internal/event"
)

// Narration renders an event log as play-by-play text, one line per event
// the narrator knows, each line newline-terminated.
func Narration(events []event.Event) []byte {
	var buf strings.Builder
	for _, ev := range events {
		if line, ok := baseball.Narrate(ev); ok {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its narrated trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Returns error if the
// scenario cannot be set up.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's narrated trace against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Narration(result.Events))
}
