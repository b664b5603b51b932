package service

import (
	"context"
	"errors"
	waitlisterrors "railbook/internal/waitlist/errors"
	"railbook/internal/waitlist/repository"
	"railbook/pkg/config"
	"railbook/pkg/model"
)

// WaitlistService keeps one FIFO queue per scope. Positions are always the
// contiguous range 1..n; callers hold the scope lock.
type WaitlistService interface {
	Admit(ctx context.Context, requesterID string, scope model.Scope, itinerary model.Itinerary) (*model.WaitlistEntry, error)
	Remove(ctx context.Context, entryID string) (*model.WaitlistEntry, error)
	Cancel(ctx context.Context, entryID, requesterID string) (*model.WaitlistEntry, error)
	Head(ctx context.Context, scope model.Scope) (*model.WaitlistEntry, error)
	GetByID(ctx context.Context, entryID string) (*model.WaitlistEntry, error)
	List(ctx context.Context, scope model.Scope) ([]*model.WaitlistEntry, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*model.WaitlistEntry, error)
	CountFrom(ctx context.Context, vehicleID, fromDate string) (int64, error)
}

type waitlistService struct {
	repo repository.WaitlistRepository
	cfg  *config.Config
}

func NewWaitlistService(repo repository.WaitlistRepository, cfg *config.Config) WaitlistService {
	return &waitlistService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *waitlistService) Admit(ctx context.Context, requesterID string, scope model.Scope, itinerary model.Itinerary) (*model.WaitlistEntry, error) {
	position, sequence, err := s.repo.NextPosition(ctx, scope)
	if err != nil {
		return nil, err
	}

	entry := &model.WaitlistEntry{
		RequesterID: requesterID,
		VehicleID:   scope.VehicleID,
		TravelDate:  scope.TravelDate,
		Itinerary:   itinerary,
		Position:    position,
		Sequence:    sequence,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Waitlist entry admitted",
		"id", entry.ID,
		"requester_id", requesterID,
		"scope", scope.Key(),
		"position", position,
		"sequence", sequence,
		"seats", itinerary.Seats,
	)
	return entry, nil
}

// Remove deletes the entry and closes the gap it leaves, keeping the relative
// order of everyone behind it.
func (s *waitlistService) Remove(ctx context.Context, entryID string) (*model.WaitlistEntry, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, entryID); err != nil {
		return nil, err
	}

	remaining, err := s.repo.FindByScope(ctx, entry.Scope())
	if err != nil {
		return nil, err
	}

	positions := make(map[string]int)
	for i, e := range remaining {
		if e.Position != i+1 {
			positions[e.ID] = i + 1
		}
	}
	if err := s.repo.SetPositions(ctx, positions); err != nil {
		return nil, err
	}
	if err := s.repo.SetCount(ctx, entry.Scope(), len(remaining)); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Waitlist entry removed",
		"id", entryID,
		"scope", entry.Scope().Key(),
		"old_position", entry.Position,
		"renumbered", len(positions),
		"remaining", len(remaining),
	)
	return entry, nil
}

func (s *waitlistService) Cancel(ctx context.Context, entryID, requesterID string) (*model.WaitlistEntry, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.RequesterID != requesterID {
		s.cfg.Log.Warn("Waitlist cancellation refused, requester does not own entry",
			"id", entryID,
			"requester_id", requesterID,
		)
		return nil, waitlisterrors.ErrNotOwner
	}
	return s.Remove(ctx, entryID)
}

// Head returns the entry at position 1, or nil when the queue is empty.
func (s *waitlistService) Head(ctx context.Context, scope model.Scope) (*model.WaitlistEntry, error) {
	entries, err := s.repo.FindByScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

func (s *waitlistService) GetByID(ctx context.Context, entryID string) (*model.WaitlistEntry, error) {
	return s.repo.FindByID(ctx, entryID)
}

func (s *waitlistService) List(ctx context.Context, scope model.Scope) ([]*model.WaitlistEntry, error) {
	return s.repo.FindByScope(ctx, scope)
}

func (s *waitlistService) ListByRequester(ctx context.Context, requesterID string) ([]*model.WaitlistEntry, error) {
	return s.repo.FindByRequester(ctx, requesterID)
}

func (s *waitlistService) CountFrom(ctx context.Context, vehicleID, fromDate string) (int64, error) {
	return s.repo.CountFrom(ctx, vehicleID, fromDate)
}

// IsNotFound reports whether err means the entry does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, waitlisterrors.ErrNotFound)
}
