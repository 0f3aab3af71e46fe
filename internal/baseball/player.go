package baseball

import (
	"fmt"
	"math"
)

const rateEpsilon = 1e-9

// Rates holds the per-plate-appearance probabilities of each non-out
// outcome. The remaining mass (1 - Sum) is the out rate.
type Rates struct {
	Walk    float64 `json:"walk" yaml:"walk"`
	Single  float64 `json:"single" yaml:"single"`
	Double  float64 `json:"double" yaml:"double"`
	Triple  float64 `json:"triple" yaml:"triple"`
	HomeRun float64 `json:"home_run" yaml:"home_run"`
}

// Sum returns the total non-out probability.
func (r Rates) Sum() float64 {
	return r.Walk + r.Single + r.Double + r.Triple + r.HomeRun
}

// OutRate returns the residual out probability, never below zero.
func (r Rates) OutRate() float64 {
	return math.Max(0, 1-r.Sum())
}

// Validate rejects negative rates and rates summing past 1.
func (r Rates) Validate() error {
	for i, v := range r.ordered() {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%s rate %v: %w", Outcomes[i], v, ErrNegativeRate)
		}
	}
	if sum := r.Sum(); sum > 1+rateEpsilon {
		return fmt.Errorf("sum %.4f: %w", sum, ErrRatesExceedOne)
	}
	return nil
}

// ordered returns the rates in resolution order (walk first, home run last).
func (r Rates) ordered() [5]float64 {
	return [5]float64{r.Walk, r.Single, r.Double, r.Triple, r.HomeRun}
}

func (r Rates) scale(f float64) Rates {
	return Rates{
		Walk:    r.Walk * f,
		Single:  r.Single * f,
		Double:  r.Double * f,
		Triple:  r.Triple * f,
		HomeRun: r.HomeRun * f,
	}
}

// Player is a batter: a name and an immutable rate profile.
type Player struct {
	Name  string
	Rates Rates
}

// NewPlayer validates rates and returns a batter.
func NewPlayer(name string, rates Rates) (*Player, error) {
	if err := rates.Validate(); err != nil {
		return nil, fmt.Errorf("player %q: %w", name, err)
	}
	return &Player{Name: name, Rates: rates}, nil
}

// Pitcher defaults used when a profile leaves them unset.
const (
	DefaultFatigueThreshold = 75
	DefaultMaxPitchCount    = 110
)

// Pitcher is a rate profile for outcomes allowed plus pitch-count state.
//
// Rates and StrikeoutRate are immutable; the pitch count only grows, once
// per plate appearance.
type Pitcher struct {
	Name             string
	Rates            Rates
	StrikeoutRate    float64
	FatigueThreshold int
	MaxPitchCount    int

	pitchCount int
}

// NewPitcher validates the profile and fills in default fatigue limits.
func NewPitcher(name string, rates Rates, strikeoutRate float64, fatigueThreshold, maxPitchCount int) (*Pitcher, error) {
	if err := rates.Validate(); err != nil {
		return nil, fmt.Errorf("pitcher %q: %w", name, err)
	}
	if strikeoutRate < 0 || strikeoutRate > 1 {
		return nil, fmt.Errorf("pitcher %q: strikeout rate %v outside [0,1]", name, strikeoutRate)
	}
	if fatigueThreshold <= 0 {
		fatigueThreshold = DefaultFatigueThreshold
	}
	if maxPitchCount <= 0 {
		maxPitchCount = DefaultMaxPitchCount
	}
	if maxPitchCount <= fatigueThreshold {
		return nil, fmt.Errorf("pitcher %q: max pitch count %d must exceed fatigue threshold %d",
			name, maxPitchCount, fatigueThreshold)
	}
	return &Pitcher{
		Name:             name,
		Rates:            rates,
		StrikeoutRate:    strikeoutRate,
		FatigueThreshold: fatigueThreshold,
		MaxPitchCount:    maxPitchCount,
	}, nil
}

// PitchCount returns pitches thrown so far.
func (p *Pitcher) PitchCount() int { return p.pitchCount }

// AddPitches adds n pitches. Non-positive n is ignored.
func (p *Pitcher) AddPitches(n int) {
	if n > 0 {
		p.pitchCount += n
	}
}

// Fatigue returns a value in [0,1]: zero up to the fatigue threshold, rising
// linearly to one at the max pitch count.
func (p *Pitcher) Fatigue() float64 {
	if p.pitchCount <= p.FatigueThreshold {
		return 0
	}
	span := p.MaxPitchCount - p.FatigueThreshold
	if span <= 0 {
		return 1
	}
	return clamp(float64(p.pitchCount-p.FatigueThreshold)/float64(span), 0, 1)
}

// AdjustedRates returns the allowed-outcome rates inflated by fatigue.
func (p *Pitcher) AdjustedRates() Rates {
	return p.Rates.scale(1 + p.Fatigue()*0.5)
}

// AdjustedStrikeoutRate returns the strikeout rate reduced by fatigue.
func (p *Pitcher) AdjustedStrikeoutRate() float64 {
	return p.StrikeoutRate * (1 - p.Fatigue()*0.4)
}

// Tired reports whether the pitcher has reached the max pitch count.
func (p *Pitcher) Tired() bool { return p.pitchCount >= p.MaxPitchCount }

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
