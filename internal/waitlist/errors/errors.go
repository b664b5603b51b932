package errors

import "errors"

var (
	ErrNotFound = errors.New("waitlist entry not found")

	ErrNotOwner = errors.New("waitlist entry belongs to another requester")
)
