package service

import (
	"context"
	"errors"
	"net/http"
	bookingserrors "railbook/internal/bookings/errors"
	"railbook/internal/bookings/validator"
	inventoryerrors "railbook/internal/inventory/errors"
	"railbook/internal/routing"
	vehicleserrors "railbook/internal/vehicles/errors"
	waitlisterrors "railbook/internal/waitlist/errors"
	mongodb "railbook/pkg/db/mongo"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/lock"
)

// toAppError maps domain failures to the API error taxonomy. Only lost races
// are reported as retryable.
func toAppError(err error) error {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case errors.As(err, &verrs):
		return apperrors.Wrap(err, apperrors.CodeValidation, "Booking request validation failed", http.StatusUnprocessableEntity).
			WithDetails(verrs.Details())

	case errors.Is(err, routing.ErrInvalidRoute):
		return apperrors.InvalidRoute(err.Error(), err)
	case errors.Is(err, inventoryerrors.ErrInsufficientCapacity):
		return apperrors.Wrap(err, apperrors.CodeInsufficientCapacity, err.Error(), http.StatusConflict)

	case errors.Is(err, vehicleserrors.ErrNotFound):
		return apperrors.Wrap(err, apperrors.CodeNotFound, "Vehicle not found", http.StatusNotFound)
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.Wrap(err, apperrors.CodeNotFound, "Booking not found", http.StatusNotFound)
	case errors.Is(err, waitlisterrors.ErrNotFound):
		return apperrors.Wrap(err, apperrors.CodeNotFound, "Waitlist entry not found", http.StatusNotFound)

	case errors.Is(err, bookingserrors.ErrNotOwner), errors.Is(err, waitlisterrors.ErrNotOwner):
		return apperrors.Wrap(err, apperrors.CodeForbidden, err.Error(), http.StatusForbidden)
	case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
		return apperrors.Wrap(err, apperrors.CodeAlreadyCancelled, "Booking is already cancelled", http.StatusConflict)

	case errors.Is(err, lock.ErrNotAcquired),
		errors.Is(err, inventoryerrors.ErrVersionConflict),
		errors.Is(err, inventoryerrors.ErrRevisionMismatch),
		errors.Is(err, errRouteChanged),
		mongodb.IsWriteConflict(err):
		return apperrors.StorageConflict(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("request timed out")
	}
	return apperrors.Internal("Allocation failed", err)
}
