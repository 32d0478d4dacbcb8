package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a record collides with a unique key.
	ErrDuplicateKey = errors.New("duplicate key")
)
