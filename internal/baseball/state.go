package baseball

import (
	"fmt"
	"strings"
)

// RegulationInnings is the length of a game before extra innings.
const RegulationInnings = 9

// Half is the top or bottom of an inning.
type Half int

const (
	Top Half = iota
	Bottom
)

func (h Half) String() string {
	switch h {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return fmt.Sprintf("Half(%d)", int(h))
	}
}

// MarshalText encodes "top" or "bottom".
func (h Half) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText decodes "top" or "bottom".
func (h *Half) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "top":
		*h = Top
	case "bottom":
		*h = Bottom
	default:
		return fmt.Errorf("unknown half %q", text)
	}
	return nil
}

// Base identifies a base slot. Home is only used as an advancement target.
type Base int

const (
	First Base = iota
	Second
	Third
	Home
)

func (b Base) String() string {
	switch b {
	case First:
		return "first"
	case Second:
		return "second"
	case Third:
		return "third"
	case Home:
		return "home"
	default:
		return fmt.Sprintf("Base(%d)", int(b))
	}
}

// MarshalText encodes the base name.
func (b Base) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText decodes a base name or 1/2/3.
func (b *Base) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "first", "1", "1b":
		*b = First
	case "second", "2", "2b":
		*b = Second
	case "third", "3", "3b":
		*b = Third
	case "home":
		*b = Home
	default:
		return fmt.Errorf("unknown base %q", text)
	}
	return nil
}

func (b Base) occupiable() bool { return b >= First && b <= Third }

// GameState is the scoreboard of one game.
//
// INVARIANTS:
//   - Inning >= 1
//   - 0 <= Outs <= 3
//   - scores never decrease
//   - each base holds at most one runner
type GameState struct {
	Inning    int
	Half      Half
	Outs      int
	HomeScore int
	AwayScore int

	bases [3]*Player
}

// NewGameState returns the state at the top of the first.
func NewGameState() *GameState {
	return &GameState{Inning: 1, Half: Top}
}

// BeginHalfInning moves to the given half-inning with no outs and empty bases.
func (s *GameState) BeginHalfInning(inning int, half Half) {
	s.Inning = inning
	s.Half = half
	s.Outs = 0
	s.ClearBases()
}

// RecordOut adds one out. A fourth out in the same half-inning is an
// invariant violation and leaves the state unchanged.
func (s *GameState) RecordOut() error {
	if s.Outs >= 3 {
		return newInvariantError(ErrCodeOutsExceeded, "fourth out recorded in one half-inning", s)
	}
	s.Outs++
	return nil
}

// Runner returns the runner on base b, or nil.
func (s *GameState) Runner(b Base) (*Player, error) {
	if !b.occupiable() {
		return nil, fmt.Errorf("runner on %d: %w", int(b), ErrBaseOutOfRange)
	}
	return s.bases[b], nil
}

// SetRunner puts p on base b (nil empties it).
func (s *GameState) SetRunner(b Base, p *Player) error {
	if !b.occupiable() {
		return fmt.Errorf("set runner on %d: %w", int(b), ErrBaseOutOfRange)
	}
	s.bases[b] = p
	return nil
}

// Occupied reports whether base b holds a runner. Out-of-range bases are
// never occupied.
func (s *GameState) Occupied(b Base) bool {
	return b.occupiable() && s.bases[b] != nil
}

// RunnersOn counts occupied bases.
func (s *GameState) RunnersOn() int {
	n := 0
	for _, r := range s.bases {
		if r != nil {
			n++
		}
	}
	return n
}

// ClearBases empties all three bases.
func (s *GameState) ClearBases() {
	s.bases = [3]*Player{}
}

// BattingScore returns the score of the team at bat.
func (s *GameState) BattingScore() int {
	if s.Half == Top {
		return s.AwayScore
	}
	return s.HomeScore
}

// addRun credits one run to the team at bat.
func (s *GameState) addRun() {
	if s.Half == Top {
		s.AwayScore++
	} else {
		s.HomeScore++
	}
}

// BaseState renders the bases as a three-character mask, first base first
// ("1-3" means runners on first and third).
func (s *GameState) BaseState() string {
	marks := []byte("---")
	for i, r := range s.bases {
		if r != nil {
			marks[i] = byte('1' + i)
		}
	}
	return string(marks)
}

// StateSnapshot is the serializable form of GameState. Runners are stored by
// name.
type StateSnapshot struct {
	Inning    int       `json:"inning"`
	Half      Half      `json:"half"`
	Outs      int       `json:"outs"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Bases     [3]string `json:"bases"`
}

// Snapshot captures the state.
func (s *GameState) Snapshot() StateSnapshot {
	snap := StateSnapshot{
		Inning:    s.Inning,
		Half:      s.Half,
		Outs:      s.Outs,
		HomeScore: s.HomeScore,
		AwayScore: s.AwayScore,
	}
	for i, r := range s.bases {
		if r != nil {
			snap.Bases[i] = r.Name
		}
	}
	return snap
}

// Restore replaces the state with snap, resolving runner names via lookup.
func (s *GameState) Restore(snap StateSnapshot, lookup func(name string) *Player) error {
	if snap.Inning < 1 || snap.Outs < 0 || snap.Outs > 3 {
		return fmt.Errorf("restore state: inning %d outs %d: %w", snap.Inning, snap.Outs, ErrUnknownSnapshot)
	}
	var bases [3]*Player
	for i, name := range snap.Bases {
		if name == "" {
			continue
		}
		p := lookup(name)
		if p == nil {
			return fmt.Errorf("restore state: runner %q: %w", name, ErrUnknownSnapshot)
		}
		bases[i] = p
	}
	s.Inning = snap.Inning
	s.Half = snap.Half
	s.Outs = snap.Outs
	s.HomeScore = snap.HomeScore
	s.AwayScore = snap.AwayScore
	s.bases = bases
	return nil
}
