package run

import "errors"

var (
	// ErrRunNotFound is returned when no run has the requested id.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunExists is returned by Save for an id that is already stored.
	ErrRunExists = errors.New("run already exists")

	// ErrInvalidRunID is returned for an empty run id.
	ErrInvalidRunID = errors.New("invalid run ID")
)
