package baseball

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/triple-play-labs/diamondx/internal/event"
)

// Event type tags published by the rules engine and the game.
const (
	TypeGameStarted    event.Type = "GameStarted"
	TypeInningStarted  event.Type = "InningStarted"
	TypeAtBatStarted   event.Type = "AtBatStarted"
	TypeAtBatCompleted event.Type = "AtBatCompleted"
	TypeRunScored      event.Type = "RunScored"
	TypeOutRecorded    event.Type = "OutRecorded"
	TypeRunnerAdvanced event.Type = "RunnerAdvanced"
	TypeInningEnded    event.Type = "InningEnded"
	TypeGameEnded      event.Type = "GameEnded"
	TypePitcherChanged event.Type = "PitcherChanged"
)

// GameStarted opens the log of a game.
type GameStarted struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

func (GameStarted) EventType() event.Type { return TypeGameStarted }

// InningStarted marks the start of a half-inning.
type InningStarted struct {
	Inning int    `json:"inning"`
	Half   Half   `json:"half"`
	Team   string `json:"team"`
}

func (InningStarted) EventType() event.Type { return TypeInningStarted }

// AtBatStarted is published before the plate appearance is resolved.
type AtBatStarted struct {
	Inning  int    `json:"inning"`
	Half    Half   `json:"half"`
	Outs    int    `json:"outs"`
	Batter  string `json:"batter"`
	Pitcher string `json:"pitcher"`
	Bases   string `json:"bases"`
}

func (AtBatStarted) EventType() event.Type { return TypeAtBatStarted }

// AtBatCompleted closes a plate appearance.
type AtBatCompleted struct {
	Inning    int     `json:"inning"`
	Half      Half    `json:"half"`
	Batter    string  `json:"batter"`
	Pitcher   string  `json:"pitcher"`
	Outcome   Outcome `json:"outcome"`
	Strikeout bool    `json:"strikeout,omitempty"`
	Pitches   int     `json:"pitches"`
	Runs      int     `json:"runs"`
	Outs      int     `json:"outs"`
	Bases     string  `json:"bases"`
}

func (AtBatCompleted) EventType() event.Type { return TypeAtBatCompleted }

// RunScored credits one run.
type RunScored struct {
	Runner    string  `json:"runner"`
	Batter    string  `json:"batter"`
	Team      string  `json:"team"`
	Outcome   Outcome `json:"outcome"`
	HomeScore int     `json:"home_score"`
	AwayScore int     `json:"away_score"`
}

func (RunScored) EventType() event.Type { return TypeRunScored }

// OutRecorded carries the running out count of the half-inning.
type OutRecorded struct {
	Batter    string `json:"batter"`
	Outs      int    `json:"outs"`
	Strikeout bool   `json:"strikeout,omitempty"`
}

func (OutRecorded) EventType() event.Type { return TypeOutRecorded }

// RunnerAdvanced is a non-scoring move of a runner already on base.
type RunnerAdvanced struct {
	Runner string  `json:"runner"`
	From   Base    `json:"from"`
	To     Base    `json:"to"`
	Cause  Outcome `json:"cause"`
}

func (RunnerAdvanced) EventType() event.Type { return TypeRunnerAdvanced }

// InningEnded closes a half-inning.
type InningEnded struct {
	Inning int    `json:"inning"`
	Half   Half   `json:"half"`
	Team   string `json:"team"`
	Runs   int    `json:"runs"`
}

func (InningEnded) EventType() event.Type { return TypeInningEnded }

// GameEnded is the last event of a game.
type GameEnded struct {
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Innings   int    `json:"innings"`
	WalkOff   bool   `json:"walk_off,omitempty"`
	Winner    string `json:"winner"`
}

func (GameEnded) EventType() event.Type { return TypeGameEnded }

// PitcherChanged announces a reliever.
type PitcherChanged struct {
	Team       string `json:"team"`
	Outgoing   string `json:"outgoing"`
	Incoming   string `json:"incoming"`
	PitchCount int    `json:"pitch_count"`
}

func (PitcherChanged) EventType() event.Type { return TypePitcherChanged }

// ErrUnknownEventType is returned by DecodeRecord for tags this package does
// not publish.
var ErrUnknownEventType = errors.New("unknown event type")

// DecodeRecord rebuilds an event from its storage form.
func DecodeRecord(rec event.Record) (event.Event, error) {
	var p event.Payload
	var err error
	switch rec.Type {
	case TypeGameStarted:
		p, err = decodeAs[GameStarted](rec.Payload)
	case TypeInningStarted:
		p, err = decodeAs[InningStarted](rec.Payload)
	case TypeAtBatStarted:
		p, err = decodeAs[AtBatStarted](rec.Payload)
	case TypeAtBatCompleted:
		p, err = decodeAs[AtBatCompleted](rec.Payload)
	case TypeRunScored:
		p, err = decodeAs[RunScored](rec.Payload)
	case TypeOutRecorded:
		p, err = decodeAs[OutRecorded](rec.Payload)
	case TypeRunnerAdvanced:
		p, err = decodeAs[RunnerAdvanced](rec.Payload)
	case TypeInningEnded:
		p, err = decodeAs[InningEnded](rec.Payload)
	case TypeGameEnded:
		p, err = decodeAs[GameEnded](rec.Payload)
	case TypePitcherChanged:
		p, err = decodeAs[PitcherChanged](rec.Payload)
	default:
		return event.Event{}, fmt.Errorf("decode seq=%d: %w: %s", rec.Seq, ErrUnknownEventType, rec.Type)
	}
	if err != nil {
		return event.Event{}, fmt.Errorf("decode seq=%d type=%s: %w", rec.Seq, rec.Type, err)
	}
	return rec.Event(p), nil
}

func decodeAs[T event.Payload](data json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
