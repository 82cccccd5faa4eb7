package adapter

import (
	"errors"
)

var (
	// ErrNotFound is returned when a remote resource does not exist.
	ErrNotFound = errors.New("remote resource not found")

	// ErrGone is returned when a remote resource was deleted on the
	// provider side. Deleting an already-gone event is not an error for
	// callers; they match on this sentinel.
	ErrGone = errors.New("remote resource gone")
)
