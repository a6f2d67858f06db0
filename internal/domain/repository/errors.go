package repository

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict (duplicate, constraint violation).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyConsumed indicates a one-shot row was already consumed
	// by a concurrent caller.
	ErrAlreadyConsumed = errors.New("already consumed")
)

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
