package baseball

import (
	"github.com/triple-play-labs/diamondx/internal/random"
)

// Pitches charged to the pitcher per plate appearance.
const (
	PitchesWalk      = 6
	PitchesHit       = 3
	PitchesOut       = 4
	PitchesStrikeout = 5
)

// Resolution is a resolved plate appearance.
type Resolution struct {
	Outcome   Outcome
	Strikeout bool
	Pitches   int
}

// PitchesFor returns the pitch charge for an outcome.
func PitchesFor(o Outcome, strikeout bool) int {
	switch {
	case o == Walk:
		return PitchesWalk
	case o.IsHit():
		return PitchesHit
	case strikeout:
		return PitchesStrikeout
	default:
		return PitchesOut
	}
}

// Resolver draws plate-appearance outcomes from a random source.
//
// Draw consumption is part of the contract: the single-rate form consumes one
// draw; the matchup form consumes one draw, plus a second when the outcome is
// an Out (strikeout or not).
type Resolver struct {
	src    random.Source
	league League
}

// NewResolver creates a resolver over src using the given league baseline.
func NewResolver(src random.Source, league League) *Resolver {
	return &Resolver{src: src, league: league}
}

// League returns the baseline in use.
func (r *Resolver) League() League { return r.league }

// Resolve picks an outcome from the batter's rates alone.
func (r *Resolver) Resolve(batter *Player) (Outcome, error) {
	if batter == nil {
		return 0, ErrNilBatter
	}
	return pick(batter.Rates, r.src.Float64()), nil
}

// ResolveMatchup picks an outcome from the Log5 blend of batter, fatigued
// pitcher and league rates, then charges the pitcher for the pitches thrown.
func (r *Resolver) ResolveMatchup(batter *Player, pitcher *Pitcher) (Resolution, error) {
	if batter == nil {
		return Resolution{}, ErrNilBatter
	}
	if pitcher == nil {
		return Resolution{}, ErrNilPitcher
	}

	blended := Blend(batter.Rates, pitcher.AdjustedRates(), r.league.Rates)
	outcome := pick(blended, r.src.Float64())

	strikeout := false
	if outcome == Out {
		k := Log5(batter.Rates.OutRate(), pitcher.AdjustedStrikeoutRate(), r.league.Strikeout)
		strikeout = r.src.Float64() < k
	}

	pitches := PitchesFor(outcome, strikeout)
	pitcher.AddPitches(pitches)

	return Resolution{Outcome: outcome, Strikeout: strikeout, Pitches: pitches}, nil
}

// pick subtracts rates from draw in resolution order and returns the first
// outcome whose rate exceeds what is left of the draw. Mass not covered by
// the rates is Out.
func pick(rates Rates, draw float64) Outcome {
	for i, rate := range rates.ordered() {
		if draw < rate {
			return Outcomes[i]
		}
		draw -= rate
	}
	return Out
}
