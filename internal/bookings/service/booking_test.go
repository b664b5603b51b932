package service

import (
	"context"
	"errors"
	bookingserrors "railbook/internal/bookings/errors"
	"railbook/internal/bookings/repository"
	"railbook/pkg/config"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"testing"
	"time"
)

// ────────────────────────────────────────────────
// Mock repository for testing
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	findByIDFunc         func(ctx context.Context, id string) (*model.Booking, error)
	markCancelledFunc    func(ctx context.Context, id string, at time.Time) error
	findByRequesterFunc  func(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error)
	countByRequesterFunc func(ctx context.Context, requesterID string) (int64, error)
	markCancelledCalls   int
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	booking.ID = "b-new"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByRequesterFunc != nil {
		return m.findByRequesterFunc(ctx, requesterID, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByRequester(ctx context.Context, requesterID string) (int64, error) {
	if m.countByRequesterFunc != nil {
		return m.countByRequesterFunc(ctx, requesterID)
	}
	return 0, nil
}

func (m *mockBookingRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	m.markCancelledCalls++
	if m.markCancelledFunc != nil {
		return m.markCancelledFunc(ctx, id, at)
	}
	return nil
}

func (m *mockBookingRepository) CountConfirmedFrom(ctx context.Context, vehicleID, fromDate string) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{Log: logger.Discard()}
}

// ────────────────────────────────────────────────
// Tests for Cancel()
// ────────────────────────────────────────────────

func TestCancel(t *testing.T) {
	confirmed := func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, RequesterID: "alice", Status: model.BookingConfirmed}, nil
	}
	cancelled := func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, RequesterID: "alice", Status: model.BookingCancelled}, nil
	}

	tests := []struct {
		name          string
		requester     string
		findByID      func(ctx context.Context, id string) (*model.Booking, error)
		markCancelled func(ctx context.Context, id string, at time.Time) error
		wantErr       error
		wantMarkCalls int
	}{
		{name: "owner cancels", requester: "alice", findByID: confirmed, wantMarkCalls: 1},
		{name: "missing booking", requester: "alice", wantErr: bookingserrors.ErrNotFound},
		{name: "someone else's booking", requester: "bob", findByID: confirmed, wantErr: bookingserrors.ErrNotOwner},
		{name: "already cancelled", requester: "alice", findByID: cancelled, wantErr: bookingserrors.ErrAlreadyCancelled},
		{
			name:      "lost a concurrent cancel",
			requester: "alice",
			findByID:  confirmed,
			markCancelled: func(ctx context.Context, id string, at time.Time) error {
				return bookingserrors.ErrAlreadyCancelled
			},
			wantErr:       bookingserrors.ErrAlreadyCancelled,
			wantMarkCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{findByIDFunc: tt.findByID, markCancelledFunc: tt.markCancelled}
			svc := NewBookingService(repo, testConfig())

			booking, err := svc.Cancel(context.Background(), "b1", tt.requester)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if repo.markCancelledCalls != tt.wantMarkCalls {
				t.Errorf("MarkCancelled called %d times, want %d", repo.markCancelledCalls, tt.wantMarkCalls)
			}
			if tt.wantErr == nil {
				if booking.Status != model.BookingCancelled || booking.CancelledAt == nil {
					t.Errorf("unexpected booking %+v", booking)
				}
			}
		})
	}
}

// ────────────────────────────────────────────────
// Tests against the in-memory repository
// ────────────────────────────────────────────────

func TestCreateAndCancel_Memory(t *testing.T) {
	ctx := context.Background()
	svc := NewBookingService(repository.NewMemoryBookingRepository(), testConfig())
	scope := model.NewScope("12951", "2026-11-02")

	booking, err := svc.Create(ctx, "alice", scope, model.Itinerary{StartStation: "A", EndStation: "C", Seats: 2}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if booking.ID == "" || booking.Status != model.BookingConfirmed {
		t.Fatalf("unexpected booking %+v", booking)
	}

	if _, err := svc.Cancel(ctx, booking.ID, "alice"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, booking.ID, "alice"); !errors.Is(err, bookingserrors.ErrAlreadyCancelled) {
		t.Fatalf("second cancel should report already cancelled, got %v", err)
	}

	stored, err := svc.GetByID(ctx, booking.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != model.BookingCancelled {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestCountConfirmedFrom_Memory(t *testing.T) {
	ctx := context.Background()
	svc := NewBookingService(repository.NewMemoryBookingRepository(), testConfig())
	itin := model.Itinerary{Seats: 1}

	if _, err := svc.Create(ctx, "alice", model.NewScope("v1", "2026-01-01"), itin, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	future, _ := svc.Create(ctx, "alice", model.NewScope("v1", "2026-12-01"), itin, "")
	if _, err := svc.Create(ctx, "bob", model.NewScope("v2", "2026-12-01"), itin, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	count, err := svc.CountConfirmedFrom(ctx, "v1", "2026-06-01")
	if err != nil || count != 1 {
		t.Fatalf("count = %d, err = %v, want 1", count, err)
	}

	if _, err := svc.Cancel(ctx, future.ID, "alice"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	count, _ = svc.CountConfirmedFrom(ctx, "v1", "2026-06-01")
	if count != 0 {
		t.Errorf("cancelled bookings must not count, got %d", count)
	}
}

// ────────────────────────────────────────────────
// Tests for ListByRequester()
// ────────────────────────────────────────────────

func TestListByRequester(t *testing.T) {
	repo := &mockBookingRepository{
		countByRequesterFunc: func(ctx context.Context, requesterID string) (int64, error) {
			time.Sleep(5 * time.Millisecond)
			return 7, nil
		},
		findByRequesterFunc: func(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error) {
			return []*model.Booking{{ID: "1"}, {ID: "2"}}, nil
		},
	}
	svc := NewBookingService(repo, testConfig())

	bookings, count, err := svc.ListByRequester(context.Background(), "alice", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 7 || len(bookings) != 2 {
		t.Errorf("got %d bookings, count %d", len(bookings), count)
	}

	repo.countByRequesterFunc = func(ctx context.Context, requesterID string) (int64, error) {
		return 0, errors.New("db down")
	}
	if _, _, err := svc.ListByRequester(context.Background(), "alice", 2, 0); err == nil {
		t.Error("expected the count failure to surface")
	}
}
