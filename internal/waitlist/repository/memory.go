package repository

import (
	"context"
	waitlisterrors "railbook/internal/waitlist/errors"
	"railbook/pkg/db/memory"
	"railbook/pkg/model"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryWaitlistRepository struct {
	mu       sync.RWMutex
	entries  map[string]*model.WaitlistEntry
	counters map[string]*model.WaitlistCounter
}

func NewMemoryWaitlistRepository() WaitlistRepository {
	return &memoryWaitlistRepository{
		entries:  make(map[string]*model.WaitlistEntry),
		counters: make(map[string]*model.WaitlistCounter),
	}
}

func (r *memoryWaitlistRepository) NextPosition(ctx context.Context, scope model.Scope) (int, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scope.Key()
	prev, existed := r.counters[key]
	next := &model.WaitlistCounter{ID: key, VehicleID: scope.VehicleID, TravelDate: scope.TravelDate}
	if existed {
		*next = *prev
	}
	next.Count++
	next.LastSequence++
	r.counters[key] = next

	memory.Record(ctx, func() { r.restoreCounter(key, prev) })
	return next.Count, next.LastSequence, nil
}

func (r *memoryWaitlistRepository) SetCount(ctx context.Context, scope model.Scope, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scope.Key()
	prev := r.counters[key]
	next := &model.WaitlistCounter{ID: key, VehicleID: scope.VehicleID, TravelDate: scope.TravelDate}
	if prev != nil {
		*next = *prev
	}
	next.Count = count
	r.counters[key] = next

	memory.Record(ctx, func() { r.restoreCounter(key, prev) })
	return nil
}

func (r *memoryWaitlistRepository) Insert(ctx context.Context, entry *model.WaitlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	entry.CreatedAt = time.Now().UTC()
	r.entries[entry.ID] = cloneEntry(entry)

	id := entry.ID
	memory.Record(ctx, func() { r.restoreEntry(id, nil) })
	return nil
}

func (r *memoryWaitlistRepository) FindByID(_ context.Context, id string) (*model.WaitlistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, waitlisterrors.ErrNotFound
	}
	return cloneEntry(entry), nil
}

func (r *memoryWaitlistRepository) FindByScope(_ context.Context, scope model.Scope) ([]*model.WaitlistEntry, error) {
	out := r.filter(func(e *model.WaitlistEntry) bool {
		return e.VehicleID == scope.VehicleID && e.TravelDate == scope.TravelDate
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (r *memoryWaitlistRepository) FindByRequester(_ context.Context, requesterID string) ([]*model.WaitlistEntry, error) {
	out := r.filter(func(e *model.WaitlistEntry) bool { return e.RequesterID == requesterID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].TravelDate != out[j].TravelDate {
			return out[i].TravelDate < out[j].TravelDate
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *memoryWaitlistRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.entries[id]
	if !ok {
		return waitlisterrors.ErrNotFound
	}
	delete(r.entries, id)

	memory.Record(ctx, func() { r.restoreEntry(id, prev) })
	return nil
}

func (r *memoryWaitlistRepository) SetPositions(ctx context.Context, positions map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, position := range positions {
		prev, ok := r.entries[id]
		if !ok {
			continue
		}
		next := cloneEntry(prev)
		next.Position = position
		r.entries[id] = next

		entryID := id
		memory.Record(ctx, func() { r.restoreEntry(entryID, prev) })
	}
	return nil
}

func (r *memoryWaitlistRepository) CountFrom(_ context.Context, vehicleID, fromDate string) (int64, error) {
	return int64(len(r.filter(func(e *model.WaitlistEntry) bool {
		return e.VehicleID == vehicleID && e.TravelDate >= fromDate
	}))), nil
}

func (r *memoryWaitlistRepository) filter(keep func(*model.WaitlistEntry) bool) []*model.WaitlistEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.WaitlistEntry{}
	for _, e := range r.entries {
		if keep(e) {
			out = append(out, cloneEntry(e))
		}
	}
	return out
}

func (r *memoryWaitlistRepository) restoreEntry(id string, prev *model.WaitlistEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev == nil {
		delete(r.entries, id)
		return
	}
	r.entries[id] = prev
}

func (r *memoryWaitlistRepository) restoreCounter(key string, prev *model.WaitlistCounter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev == nil {
		delete(r.counters, key)
		return
	}
	r.counters[key] = prev
}

func cloneEntry(e *model.WaitlistEntry) *model.WaitlistEntry {
	out := *e
	out.Segments = append([]model.SegmentRef(nil), e.Segments...)
	return &out
}
