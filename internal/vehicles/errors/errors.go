package errors

import "errors"

var (
	ErrNotFound = errors.New("vehicle not found")
	// ErrRegenerationForbidden is returned when a route or capacity change
	// would orphan confirmed bookings or waitlist entries for upcoming dates.
	ErrRegenerationForbidden = errors.New("vehicle route cannot change while upcoming bookings exist")
)
