package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrNotOwner = errors.New("booking belongs to another requester")

	ErrAlreadyCancelled = errors.New("booking is already cancelled")
)
