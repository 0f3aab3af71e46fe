package baseball

import (
	"fmt"
)

// Team is a batting order and a pitching staff in usage order: the starter
// first, then relievers.
type Team struct {
	Name   string
	Lineup []*Player
	Staff  []*Pitcher

	batting  int
	pitching int
}

// NewTeam validates and assembles a team.
func NewTeam(name string, lineup []*Player, starter *Pitcher, bullpen ...*Pitcher) (*Team, error) {
	t := &Team{
		Name:   name,
		Lineup: lineup,
		Staff:  append([]*Pitcher{starter}, bullpen...),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the team can take the field.
func (t *Team) Validate() error {
	if len(t.Lineup) == 0 {
		return fmt.Errorf("team %q: %w", t.Name, ErrEmptyLineup)
	}
	for i, p := range t.Lineup {
		if p == nil {
			return fmt.Errorf("team %q: lineup slot %d: %w", t.Name, i+1, ErrNilBatter)
		}
	}
	if len(t.Staff) == 0 || t.Staff[0] == nil {
		return fmt.Errorf("team %q: %w", t.Name, ErrNoPitcher)
	}
	for i, p := range t.Staff {
		if p == nil {
			return fmt.Errorf("team %q: staff slot %d: %w", t.Name, i+1, ErrNilPitcher)
		}
	}
	return nil
}

// NextBatter returns the due batter and moves the order along. The order
// wraps and carries over between innings.
func (t *Team) NextBatter() *Player {
	p := t.Lineup[t.batting]
	t.batting = (t.batting + 1) % len(t.Lineup)
	return p
}

// BattingIndex returns the lineup slot of the next batter (0-based).
func (t *Team) BattingIndex() int { return t.batting }

// Pitcher returns the pitcher in the game.
func (t *Team) Pitcher() *Pitcher { return t.Staff[t.pitching] }

// Bullpen returns the relievers not yet used.
func (t *Team) Bullpen() []*Pitcher { return t.Staff[t.pitching+1:] }

// NeedsRelief reports whether the current pitcher has reached the max pitch count and
// a reliever is available.
func (t *Team) NeedsRelief() bool {
	return t.Pitcher().Tired() && len(t.Bullpen()) > 0
}

// ChangePitcher brings in the next reliever.
func (t *Team) ChangePitcher() (outgoing, incoming *Pitcher, ok bool) {
	if len(t.Bullpen()) == 0 {
		return nil, nil, false
	}
	outgoing = t.Pitcher()
	t.pitching++
	return outgoing, t.Pitcher(), true
}

// Player finds a lineup member by name.
func (t *Team) Player(name string) *Player {
	for _, p := range t.Lineup {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// teamSnapshot is the mutable part of a team.
type teamSnapshot struct {
	Batting     int   `json:"batting"`
	Pitching    int   `json:"pitching"`
	PitchCounts []int `json:"pitch_counts"`
}

func (t *Team) snapshot() teamSnapshot {
	counts := make([]int, len(t.Staff))
	for i, p := range t.Staff {
		counts[i] = p.pitchCount
	}
	return teamSnapshot{Batting: t.batting, Pitching: t.pitching, PitchCounts: counts}
}

func (t *Team) restore(s teamSnapshot) error {
	if s.Batting < 0 || s.Batting >= len(t.Lineup) ||
		s.Pitching < 0 || s.Pitching >= len(t.Staff) ||
		len(s.PitchCounts) != len(t.Staff) {
		return fmt.Errorf("restore team %q: %w", t.Name, ErrUnknownSnapshot)
	}
	t.batting = s.Batting
	t.pitching = s.Pitching
	for i, n := range s.PitchCounts {
		t.Staff[i].pitchCount = n
	}
	return nil
}
