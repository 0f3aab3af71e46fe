package baseball

import (
	"fmt"
	"strings"
)

// Outcome is the result of one plate appearance.
type Outcome int

const (
	Walk Outcome = iota + 1
	Single
	Double
	Triple
	HomeRun
	Out
)

// Outcomes lists every outcome in resolution order.
var Outcomes = []Outcome{Walk, Single, Double, Triple, HomeRun, Out}

func (o Outcome) String() string {
	switch o {
	case Walk:
		return "Walk"
	case Single:
		return "Single"
	case Double:
		return "Double"
	case Triple:
		return "Triple"
	case HomeRun:
		return "HomeRun"
	case Out:
		return "Out"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Valid reports whether o is one of the defined outcomes.
func (o Outcome) Valid() bool { return o >= Walk && o <= Out }

// IsHit reports whether o is a single, double, triple or home run.
func (o Outcome) IsHit() bool { return o >= Single && o <= HomeRun }

// BatterBases is the number of bases the batter takes: 0 for an out, 4 for
// a home run.
func (o Outcome) BatterBases() int {
	switch o {
	case Walk, Single:
		return 1
	case Double:
		return 2
	case Triple:
		return 3
	case HomeRun:
		return 4
	default:
		return 0
	}
}

// MarshalText encodes the outcome name.
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText accepts any spelling ParseOutcome accepts.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome parses an outcome name or scorebook abbreviation
// (BB, 1B, 2B, 3B, HR, K), case-insensitively. "K" and "strikeout" parse
// to Out; the strikeout flag is carried separately.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "walk", "bb":
		return Walk, nil
	case "single", "1b":
		return Single, nil
	case "double", "2b":
		return Double, nil
	case "triple", "3b":
		return Triple, nil
	case "homerun", "home_run", "home run", "hr":
		return HomeRun, nil
	case "out", "k", "strikeout":
		return Out, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}
