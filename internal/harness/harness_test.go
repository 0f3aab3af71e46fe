package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_SequencesStrictlyIncrease(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "walkoff_single.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	for i, ev := range result.Events {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong
description: "expectations that do not hold"
state: { bases: { third: C } }
plays:
  - batter: D
    outcome: single
    expect: { runs: 2, half_ended: true }
  - batter: E
    outcome: out
    expect: { error: OUTS_EXCEEDED }
assertions:
  - type: final_state
    expect: { away_score: 5 }
  - type: event_count
    event: RunScored
    count: 3
  - type: event_order
    events: [AtBatCompleted, AtBatStarted]
  - type: event_contains
    event: RunScored
    fields: { runner: Z }
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], "runs = 1, expected 2")
	assert.Contains(t, result.Errors[1], "half_ended = false, expected true")
	assert.Contains(t, result.Errors[2], "expected error OUTS_EXCEEDED")
	assert.Contains(t, result.Errors[3], "away_score = 5")
	assert.Contains(t, result.Errors[4], "3 occurrences of RunScored")
	assert.Contains(t, result.Errors[5], "should be before")
	assert.Contains(t, result.Errors[6], "not found in trace")
}

func TestRun_UnexpectedError(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: late
description: "plays after the final out"
state: { inning: 9, half: bottom, outs: 2, away_score: 1 }
plays:
  - batter: A
    outcome: out
  - batter: B
    outcome: walk
assertions:
  - type: final_state
    expect: { game_over: true, winner: Away }
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
	assert.Contains(t, result.Errors[0], "GAME_OVER")
}

func TestNarration_SkipsUnknownEvents(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "grand_slam.yaml"))
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)

	text := string(Narration(result.Events))
	assert.Equal(t, 6, strings.Count(text, "\n"))
	assert.True(t, strings.HasPrefix(text, "  D vs Pitcher"))
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "grand_slam.yaml"))
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)

	msg := (&AssertionError{Type: AssertEventCount, Expected: "1", Actual: "4", Trace: result.Events}).Error()
	assert.Contains(t, msg, "Assertion failed: event_count")
	assert.Contains(t, msg, "[2]     C scores (Away 3-1)")
}
