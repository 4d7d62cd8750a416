package kv

import "errors"

var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("invalid key")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("database error")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("store closed")
)
