package local

import "errors"

var (
	// ErrNotFound is returned when no record exists for a collection/id pair
	ErrNotFound = errors.New("not found")
)
