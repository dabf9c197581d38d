package repository

import "errors"

// Sentinel errors shared by every repository implementation, so that callers
// can branch on errors.Is without knowing the backing store.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateRecord is returned when a unique constraint is violated.
	ErrDuplicateRecord = errors.New("record already exists")
)
