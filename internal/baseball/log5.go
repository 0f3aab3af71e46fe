package baseball

// League holds league-average rates, the Log5 baseline.
type League struct {
	Rates     Rates   `json:"rates" yaml:"rates"`
	Strikeout float64 `json:"strikeout" yaml:"strikeout"`
}

// DefaultLeague is a modern MLB-like baseline.
var DefaultLeague = League{
	Rates: Rates{
		Walk:    0.085,
		Single:  0.145,
		Double:  0.045,
		Triple:  0.005,
		HomeRun: 0.030,
	},
	Strikeout: 0.225,
}

// Log5 blends batter rate b and pitcher rate p against league rate l.
// A degenerate league rate (<= 0 or >= 1) falls back to the plain mean.
func Log5(b, p, l float64) float64 {
	if l <= 0 || l >= 1 {
		return (b + p) / 2
	}
	num := b * p / l
	den := num + (1-b)*(1-p)/(1-l)
	if den <= 0 {
		return 0
	}
	return clamp(num/den, 0, 1)
}

// Blend applies Log5 category by category.
func Blend(batter, pitcher, league Rates) Rates {
	return Rates{
		Walk:    Log5(batter.Walk, pitcher.Walk, league.Walk),
		Single:  Log5(batter.Single, pitcher.Single, league.Single),
		Double:  Log5(batter.Double, pitcher.Double, league.Double),
		Triple:  Log5(batter.Triple, pitcher.Triple, league.Triple),
		HomeRun: Log5(batter.HomeRun, pitcher.HomeRun, league.HomeRun),
	}
}
