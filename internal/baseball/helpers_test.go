package baseball

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/triple-play-labs/diamondx/internal/event"
)

func quietScheduler() *event.Scheduler {
	return event.NewScheduler(event.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func player(name string) *Player {
	return &Player{Name: name, Rates: DefaultLeague.Rates}
}

func leaguePitcher(t *testing.T, name string) *Pitcher {
	t.Helper()
	p, err := NewPitcher(name, DefaultLeague.Rates, DefaultLeague.Strikeout, 0, 0)
	require.NoError(t, err)
	return p
}

func testTeam(t *testing.T, name string, bullpen ...*Pitcher) *Team {
	t.Helper()
	lineup := make([]*Player, 9)
	for i := range lineup {
		lineup[i] = player(fmt.Sprintf("%s %d", name, i+1))
	}
	team, err := NewTeam(name, lineup, leaguePitcher(t, name+" Ace"), bullpen...)
	require.NoError(t, err)
	return team
}

func types(events []event.Event) []event.Type {
	out := make([]event.Type, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}
