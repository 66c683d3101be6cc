package engine

import "errors"

var (
	// ErrInvalidConfig is returned by NewEngine for out-of-range options.
	ErrInvalidConfig = errors.New("invalid engine config")

	// ErrBadSnapshot is returned when a table snapshot cannot be decoded.
	ErrBadSnapshot = errors.New("malformed transposition table snapshot")
)
