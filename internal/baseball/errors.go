package baseball

import (
	"errors"
	"fmt"
)

// Precondition errors. These reject a call before any state changes or any
// random draw is consumed.
var (
	ErrNilBatter       = errors.New("batter is required")
	ErrNilPitcher      = errors.New("pitcher is required")
	ErrEmptyLineup     = errors.New("lineup is empty")
	ErrNoPitcher       = errors.New("team has no pitcher")
	ErrBaseOutOfRange  = errors.New("base index out of range")
	ErrRatesExceedOne  = errors.New("outcome rates sum to more than 1")
	ErrNegativeRate    = errors.New("outcome rate is negative")
	ErrInvalidOutcome  = errors.New("invalid outcome")
	ErrNotInitialized  = errors.New("game not initialized")
	ErrUnknownSnapshot = errors.New("snapshot does not match this game")
)

// InvariantError reports a state-machine invariant violation. It indicates a
// bug in the caller and is never recovered silently.
type InvariantError struct {
	Code    InvariantCode
	Message string

	Inning int
	Half   Half
	Outs   int
}

// InvariantCode categorizes invariant violations.
type InvariantCode string

const (
	// ErrCodeOutsExceeded indicates a fourth out in one half-inning.
	ErrCodeOutsExceeded InvariantCode = "OUTS_EXCEEDED"

	// ErrCodeGameOver indicates a play applied after the game ended.
	ErrCodeGameOver InvariantCode = "GAME_OVER"
)

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s (inning=%d %s, outs=%d)", e.Code, e.Message, e.Inning, e.Half, e.Outs)
}

// IsInvariantError reports whether err wraps an InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// IsOutsExceeded reports whether err wraps a fourth-out violation.
func IsOutsExceeded(err error) bool {
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeOutsExceeded
	}
	return false
}

func newInvariantError(code InvariantCode, msg string, s *GameState) *InvariantError {
	return &InvariantError{
		Code:    code,
		Message: msg,
		Inning:  s.Inning,
		Half:    s.Half,
		Outs:    s.Outs,
	}
}
