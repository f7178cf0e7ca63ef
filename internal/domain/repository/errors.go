package repository

import "errors"

// Common repository errors.
// These errors provide a consistent error interface across storage implementations.
var (
	// ErrNotFound indicates the requested pattern was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the pattern is already stored.
	ErrAlreadyExists = errors.New("already exists")
)
