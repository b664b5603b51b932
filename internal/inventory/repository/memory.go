package repository

import (
	"context"
	inventoryerrors "railbook/internal/inventory/errors"
	"railbook/pkg/db/memory"
	"railbook/pkg/model"
	"sync"
	"time"
)

type memoryInventoryRepository struct {
	mu    sync.RWMutex
	items map[string]*model.Inventory
}

func NewMemoryInventoryRepository() InventoryRepository {
	return &memoryInventoryRepository{items: make(map[string]*model.Inventory)}
}

func (r *memoryInventoryRepository) FindByScope(_ context.Context, scope model.Scope) (*model.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.items[scope.Key()]
	if !ok {
		return nil, inventoryerrors.ErrNotFound
	}
	return inv.Clone(), nil
}

func (r *memoryInventoryRepository) Insert(ctx context.Context, inv *model.Inventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv.ID = inv.Scope().Key()
	if _, exists := r.items[inv.ID]; exists {
		return inventoryerrors.ErrAlreadyExists
	}
	inv.UpdatedAt = time.Now().UTC()
	r.items[inv.ID] = inv.Clone()

	id := inv.ID
	memory.Record(ctx, func() { r.restore(id, nil) })
	return nil
}

func (r *memoryInventoryRepository) ReplaceSegments(ctx context.Context, inv *model.Inventory, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[inv.ID]
	if !ok || current.Version != expectedVersion {
		return inventoryerrors.ErrVersionConflict
	}

	next := current.Clone()
	next.Segments = append([]model.Segment(nil), inv.Segments...)
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()
	r.items[inv.ID] = next

	inv.Version = next.Version
	inv.UpdatedAt = next.UpdatedAt

	memory.Record(ctx, func() { r.restore(current.ID, current) })
	return nil
}

func (r *memoryInventoryRepository) Rebase(ctx context.Context, inv *model.Inventory, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[inv.ID]
	if !ok || current.Version != expectedVersion {
		return inventoryerrors.ErrVersionConflict
	}

	next := inv.Clone()
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()
	r.items[inv.ID] = next

	inv.Version = next.Version
	inv.UpdatedAt = next.UpdatedAt

	memory.Record(ctx, func() { r.restore(current.ID, current) })
	return nil
}

func (r *memoryInventoryRepository) DeleteByVehicle(ctx context.Context, vehicleID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, inv := range r.items {
		if inv.VehicleID != vehicleID {
			continue
		}
		delete(r.items, id)
		deleted++

		removed := inv
		memory.Record(ctx, func() { r.restore(removed.ID, removed) })
	}
	return deleted, nil
}

// restore puts back prev, or removes id when prev is nil.
func (r *memoryInventoryRepository) restore(id string, prev *model.Inventory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev == nil {
		delete(r.items, id)
		return
	}
	r.items[id] = prev
}
