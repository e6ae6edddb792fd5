package game

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected operation
type ErrorKind string

const (
	KindGameNotFound        ErrorKind = "GameNotFound"
	KindInvalidCutPoint     ErrorKind = "InvalidCutPoint"
	KindNotShuffled         ErrorKind = "NotShuffled"
	KindRankMismatch        ErrorKind = "RankMismatch"
	KindNoCurrentCard       ErrorKind = "NoCurrentCard"
	KindEmptyPile           ErrorKind = "EmptyPile"
	KindGameAlreadyTerminal ErrorKind = "GameAlreadyTerminal"
	KindNotPlaying          ErrorKind = "NotPlaying"
	KindAlreadyStarted      ErrorKind = "AlreadyStarted"
	KindCardPending         ErrorKind = "CardPending"
	KindInvalidPile         ErrorKind = "InvalidPile"
	KindUnknownRules        ErrorKind = "UnknownRules"
)

// Error is returned for every rejected game operation. A rejected operation
// never changes game state.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches errors of the same kind, so errors.Is(err, ErrEmptyPile) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// NewError builds an Error of the given kind
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is comparisons
var (
	ErrGameNotFound        = &Error{Kind: KindGameNotFound}
	ErrInvalidCutPoint     = &Error{Kind: KindInvalidCutPoint}
	ErrNotShuffled         = &Error{Kind: KindNotShuffled}
	ErrRankMismatch        = &Error{Kind: KindRankMismatch}
	ErrNoCurrentCard       = &Error{Kind: KindNoCurrentCard}
	ErrEmptyPile           = &Error{Kind: KindEmptyPile}
	ErrGameAlreadyTerminal = &Error{Kind: KindGameAlreadyTerminal}
	ErrNotPlaying          = &Error{Kind: KindNotPlaying}
	ErrAlreadyStarted      = &Error{Kind: KindAlreadyStarted}
	ErrCardPending         = &Error{Kind: KindCardPending}
	ErrInvalidPile         = &Error{Kind: KindInvalidPile}
	ErrUnknownRules        = &Error{Kind: KindUnknownRules}
)

// KindOf extracts the ErrorKind from err, or "" if err is not a game error
func KindOf(err error) ErrorKind {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return ""
}
