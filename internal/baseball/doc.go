// Package baseball implements plate-appearance resolution and the baserunner
// and half-inning state machine of a simulated game.
//
// The pieces, leaf first:
//
//   - Resolver turns batter (and optionally pitcher) rates plus one or two
//     uniform draws into an Outcome, blending matchups with Log5
//   - GameState is the mutable scoreboard: inning, half, outs, bases, score
//   - Engine applies an Outcome to GameState, moves runners, credits runs,
//     ends half-innings and the game, and publishes every transition as an
//     event
//   - Game wires lineups, pitchers, the resolver and the engine into a
//     sim.Simulation that plays one plate appearance per Step
//
// # Determinism
//
// Given the same random source, a game consumes draws in a fixed order: one
// draw per plate appearance, plus a second draw for an Out in the matchup
// form (strikeout or not). Replaying a seed reproduces the event log exactly.
package baseball
