// Package harness runs situational scenarios against the baseball rules
// engine.
//
// A scenario fixes a game situation, feeds the engine a scripted list of
// resolved plays and checks the outcome. No random draws are involved, so a
// scenario pins the advancement and half-inning rules exactly.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: walkoff_single
//	description: "Single in the bottom of the ninth ties, double wins"
//	start: true
//	state:
//	  inning: 9
//	  half: bottom
//	  outs: 1
//	  home_score: 3
//	  away_score: 4
//	  bases: { first: Ana, third: Cal }
//	plays:
//	  - batter: Dee
//	    outcome: single
//	    expect: { runs: 1 }
//	  - batter: Eve
//	    outcome: 2b
//	    expect: { runs: 1, game_over: true }
//	assertions:
//	  - type: final_state
//	    expect: { home_score: 5, walk_off: true }
//	  - type: event_count
//	    event: RunScored
//	    count: 2
//
// # Assertion Types
//
//   - final_state: subset match over the final scoreboard
//   - event_count: an event type appears exactly N times
//   - event_order: event types appear in the given relative order
//   - event_contains: some event of a type carries the given payload fields
//
// # Golden Traces
//
// RunWithGolden renders the event log through the play-by-play narrator and
// compares it with testdata/golden/<name>.golden.
package harness
