package domain

import "errors"

var (
	// ErrValidation marks malformed or incomplete input. No state change occurred.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a referenced entity that is missing or was deleted concurrently.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a transition attempted from a state that does not permit it.
	// Callers receive the current entity unchanged, which makes double submissions idempotent.
	ErrConflict = errors.New("conflict")
)
