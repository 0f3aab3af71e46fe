package baseball

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/triple-play-labs/diamondx/internal/event"
)

// Narrate renders one event as a play-by-play line. The second result is
// false for payloads this package does not publish.
func Narrate(ev event.Event) (string, bool) {
	switch p := ev.Payload.(type) {
	case GameStarted:
		return fmt.Sprintf("Play ball: %s at %s", p.Away, p.Home), true
	case InningStarted:
		return fmt.Sprintf("%s %s: %s batting", titleHalf(p.Half), ordinal(p.Inning), p.Team), true
	case AtBatStarted:
		return fmt.Sprintf("  %s vs %s (%d out, bases %s)", p.Batter, p.Pitcher, p.Outs, p.Bases), true
	case AtBatCompleted:
		result := describeOutcome(p.Outcome, p.Strikeout)
		if p.Runs > 0 {
			result += fmt.Sprintf(", %d run%s", p.Runs, plural(p.Runs))
		}
		return fmt.Sprintf("  %s: %s [%d pitches]", p.Batter, result, p.Pitches), true
	case RunScored:
		return fmt.Sprintf("    %s scores (%s %d-%d)", p.Runner, p.Team, p.AwayScore, p.HomeScore), true
	case OutRecorded:
		return fmt.Sprintf("    %d out", p.Outs), true
	case RunnerAdvanced:
		return fmt.Sprintf("    %s %s to %s", p.Runner, p.From, p.To), true
	case InningEnded:
		return fmt.Sprintf("End of %s %s: %d run%s", p.Half, ordinal(p.Inning), p.Runs, plural(p.Runs)), true
	case GameEnded:
		line := fmt.Sprintf("Final: %s %d, %s %d (%d innings)", p.Away, p.AwayScore, p.Home, p.HomeScore, p.Innings)
		if p.WalkOff {
			line += ", walk-off"
		}
		return line, true
	case PitcherChanged:
		return fmt.Sprintf("  Pitching change for %s: %s replaces %s after %d pitches",
			p.Team, p.Incoming, p.Outgoing, p.PitchCount), true
	default:
		return "", false
	}
}

func describeOutcome(o Outcome, strikeout bool) string {
	switch o {
	case Walk:
		return "walks"
	case Single:
		return "singles"
	case Double:
		return "doubles"
	case Triple:
		return "triples"
	case HomeRun:
		return "homers"
	case Out:
		if strikeout {
			return "strikes out"
		}
		return "is out"
	default:
		return o.String()
	}
}

func titleHalf(h Half) string {
	s := h.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Narrator is an event handler writing play-by-play lines to w.
type Narrator struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNarrator creates a narrator writing to w.
func NewNarrator(w io.Writer) *Narrator {
	return &Narrator{w: w}
}

// Handle writes the line for ev. Foreign payloads are skipped.
func (n *Narrator) Handle(ev event.Event) error {
	line, ok := Narrate(ev)
	if !ok {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintln(n.w, line)
	return err
}
