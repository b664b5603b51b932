package repository

import (
	"context"
	"railbook/pkg/model"
	"time"
)

const CollectionName = "Bookings"

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error)
	CountByRequester(ctx context.Context, requesterID string) (int64, error)
	// MarkCancelled flips a confirmed booking to cancelled. A booking that is
	// no longer confirmed yields ErrAlreadyCancelled and is left untouched.
	MarkCancelled(ctx context.Context, id string, at time.Time) error
	CountConfirmedFrom(ctx context.Context, vehicleID, fromDate string) (int64, error)
}
