package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a required path was not found
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a destination filename conflict
	ErrConflict = errors.New("destination conflict")

	// ErrInvalidTemplate indicates an invalid rename template
	ErrInvalidTemplate = errors.New("invalid template")
)
