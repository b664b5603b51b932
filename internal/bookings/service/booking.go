package service

import (
	"context"
	bookingserrors "railbook/internal/bookings/errors"
	"railbook/internal/bookings/repository"
	"railbook/pkg/config"
	"railbook/pkg/model"
	"time"

	"golang.org/x/sync/errgroup"
)

// BookingService is the ledger of confirmed and cancelled bookings. It never
// touches inventory; callers pair every Create with a reserve and every
// Cancel with a restore inside one transaction.
type BookingService interface {
	Create(ctx context.Context, requesterID string, scope model.Scope, itinerary model.Itinerary, promotedFrom string) (*model.Booking, error)
	Cancel(ctx context.Context, id, requesterID string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, int64, error)
	CountConfirmedFrom(ctx context.Context, vehicleID, fromDate string) (int64, error)
}

type bookingService struct {
	repo repository.BookingRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewBookingService(repo repository.BookingRepository, cfg *config.Config) BookingService {
	return &bookingService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, requesterID string, scope model.Scope, itinerary model.Itinerary, promotedFrom string) (*model.Booking, error) {
	booking := &model.Booking{
		RequesterID:  requesterID,
		VehicleID:    scope.VehicleID,
		TravelDate:   scope.TravelDate,
		Itinerary:    itinerary,
		Status:       model.BookingConfirmed,
		PromotedFrom: promotedFrom,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking confirmed",
		"id", booking.ID,
		"requester_id", requesterID,
		"scope", scope.Key(),
		"from", itinerary.StartStation,
		"to", itinerary.EndStation,
		"seats", itinerary.Seats,
		"promoted_from", promotedFrom,
	)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id, requesterID string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.RequesterID != requesterID {
		s.cfg.Log.Warn("Cancellation refused, requester does not own booking",
			"id", id,
			"requester_id", requesterID,
		)
		return nil, bookingserrors.ErrNotOwner
	}
	if booking.Status == model.BookingCancelled {
		return booking, bookingserrors.ErrAlreadyCancelled
	}

	at := s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.MarkCancelled(ctx, id, at); err != nil {
		return nil, err
	}
	booking.Status = model.BookingCancelled
	booking.CancelledAt = &at

	s.cfg.Log.Info("Booking cancelled",
		"id", id,
		"requester_id", requesterID,
		"scope", booking.Scope().Key(),
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *bookingService) ListByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	var (
		bookings []*model.Booking
		count    int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.CountByRequester(gctx, requesterID)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.repo.FindByRequester(gctx, requesterID, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list bookings", "requester_id", requesterID, "error", err)
		return nil, 0, err
	}
	return bookings, count, nil
}

func (s *bookingService) CountConfirmedFrom(ctx context.Context, vehicleID, fromDate string) (int64, error) {
	return s.repo.CountConfirmedFrom(ctx, vehicleID, fromDate)
}
