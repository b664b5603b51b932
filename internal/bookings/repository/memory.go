package repository

import (
	"context"
	bookingserrors "railbook/internal/bookings/errors"
	"railbook/pkg/db/memory"
	"railbook/pkg/model"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryBookingRepository struct {
	mu    sync.RWMutex
	items map[string]*model.Booking
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{items: make(map[string]*model.Booking)}
}

func (r *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.ID == "" {
		booking.ID = primitive.NewObjectID().Hex()
	}
	booking.CreatedAt = time.Now().UTC()
	r.items[booking.ID] = cloneBooking(booking)

	id := booking.ID
	memory.Record(ctx, func() {
		r.mu.Lock()
		delete(r.items, id)
		r.mu.Unlock()
	})
	return nil
}

func (r *memoryBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.items[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *memoryBookingRepository) FindByRequester(_ context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error) {
	all := r.byRequester(requesterID)
	if offset >= int64(len(all)) {
		return []*model.Booking{}, nil
	}
	end := min(int(offset)+limit, len(all))
	return all[offset:end], nil
}

func (r *memoryBookingRepository) CountByRequester(_ context.Context, requesterID string) (int64, error) {
	return int64(len(r.byRequester(requesterID))), nil
}

func (r *memoryBookingRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.items[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if b.Status != model.BookingConfirmed {
		return bookingserrors.ErrAlreadyCancelled
	}

	prev := cloneBooking(b)
	b.Status = model.BookingCancelled
	cancelledAt := at
	b.CancelledAt = &cancelledAt

	memory.Record(ctx, func() {
		r.mu.Lock()
		r.items[id] = prev
		r.mu.Unlock()
	})
	return nil
}

func (r *memoryBookingRepository) CountConfirmedFrom(_ context.Context, vehicleID, fromDate string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, b := range r.items {
		// YYYY-MM-DD compares correctly as a string
		if b.VehicleID == vehicleID && b.Status == model.BookingConfirmed && b.TravelDate >= fromDate {
			count++
		}
	}
	return count, nil
}

func (r *memoryBookingRepository) byRequester(requesterID string) []*model.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Booking
	for _, b := range r.items {
		if b.RequesterID == requesterID {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TravelDate != out[j].TravelDate {
			return out[i].TravelDate < out[j].TravelDate
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneBooking(b *model.Booking) *model.Booking {
	out := *b
	out.Segments = append([]model.SegmentRef(nil), b.Segments...)
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		out.CancelledAt = &at
	}
	return &out
}
