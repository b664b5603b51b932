package errors

import "errors"

var (
	ErrNotFound = errors.New("inventory not found")

	ErrAlreadyExists = errors.New("inventory already exists")

	ErrVersionConflict = errors.New("inventory was modified concurrently")

	ErrInsufficientCapacity = errors.New("not enough seats on every segment of the range")

	ErrCapacityOverflow = errors.New("restoring seats would exceed vehicle capacity")

	ErrRangeMismatch = errors.New("segment range does not match the current route")

	ErrRevisionMismatch = errors.New("inventory belongs to an older route revision")

	ErrInvalidSeats = errors.New("seats must be at least 1")
)
