package board

import (
	"errors"
	"fmt"
)

// Sentinel errors for board operations.
var (
	// ErrIllegalMove is returned when a move is not in the legal move set of
	// the position. The position is never modified in that case.
	ErrIllegalMove     = errors.New("illegal move")
	ErrMalformedMove   = errors.New("malformed move")
	ErrInvalidFEN      = errors.New("invalid FEN")
	ErrInvalidPosition = errors.New("invalid position")
)

// MoveError carries the move text and the position it was rejected in.
type MoveError struct {
	Text string
	FEN  string
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("%v: %s in %q", e.Err, e.Text, e.FEN)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// FENError reports which FEN field failed to parse.
type FENError struct {
	FEN    string
	Field  string
	Reason string
}

func (e *FENError) Error() string {
	return fmt.Sprintf("invalid FEN %q: %s: %s", e.FEN, e.Field, e.Reason)
}

func (e *FENError) Unwrap() error {
	return ErrInvalidFEN
}
