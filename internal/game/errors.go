package game

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected marks a well-formed move that the rules refuse. A rejected
	// move leaves the game untouched.
	ErrRejected = errors.New("move rejected")
	// ErrInvariant marks a broken precondition inside the engine. It is never
	// expected from player input.
	ErrInvariant = errors.New("game invariant violated")

	ErrInvalidState     = errors.New("invalid game state")
	ErrGameNotFound     = errors.New("game not found")
	ErrNotOngoing       = errors.New("game is not ongoing")
	ErrNotYourTurn      = errors.New("not your team's turn")
	ErrAlreadySubmitted = errors.New("operation already submitted")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrTeamFull         = errors.New("team is full")
)

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

// reject wraps cause as a rule rejection while keeping it matchable.
func reject(cause error) error {
	return fmt.Errorf("%w: %w", ErrRejected, cause)
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
