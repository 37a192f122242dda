package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrContended indicates an atomic toggle lost every retry against
	// concurrent toggles on the same key.
	ErrContended = errors.New("operation contended, retry")
)
