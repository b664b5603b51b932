package repository

import (
	"context"
	"railbook/pkg/model"
)

const (
	EntriesCollection  = "Waitlist_entries"
	CountersCollection = "Waitlist_counters"
)

type WaitlistRepository interface {
	// NextPosition atomically bumps the scope's counter and returns the new
	// live count and admission sequence.
	NextPosition(ctx context.Context, scope model.Scope) (int, int64, error)
	SetCount(ctx context.Context, scope model.Scope, count int) error
	Insert(ctx context.Context, entry *model.WaitlistEntry) error
	FindByID(ctx context.Context, id string) (*model.WaitlistEntry, error)
	// FindByScope returns the scope's entries ordered by position, then sequence.
	FindByScope(ctx context.Context, scope model.Scope) ([]*model.WaitlistEntry, error)
	FindByRequester(ctx context.Context, requesterID string) ([]*model.WaitlistEntry, error)
	Delete(ctx context.Context, id string) error
	// SetPositions stores the given position for every entry id.
	SetPositions(ctx context.Context, positions map[string]int) error
	CountFrom(ctx context.Context, vehicleID, fromDate string) (int64, error)
}
