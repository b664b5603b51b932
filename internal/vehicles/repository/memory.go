package repository

import (
	"context"
	vehicleserrors "railbook/internal/vehicles/errors"
	"railbook/pkg/db/memory"
	"railbook/pkg/model"
	"sync"
)

type memoryVehicleRepository struct {
	mu    sync.RWMutex
	items map[string]*model.Vehicle
}

func NewMemoryVehicleRepository() VehicleRepository {
	return &memoryVehicleRepository{items: make(map[string]*model.Vehicle)}
}

func (r *memoryVehicleRepository) FindByID(_ context.Context, id string) (*model.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items[id]
	if !ok {
		return nil, vehicleserrors.ErrNotFound
	}
	return cloneVehicle(v), nil
}

func (r *memoryVehicleRepository) Save(ctx context.Context, vehicle *model.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.items[vehicle.ID]
	r.items[vehicle.ID] = cloneVehicle(vehicle)

	id := vehicle.ID
	memory.Record(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if prev == nil {
			delete(r.items, id)
			return
		}
		r.items[id] = prev
	})
	return nil
}

func cloneVehicle(v *model.Vehicle) *model.Vehicle {
	c := *v
	c.Stops = append([]model.Stop(nil), v.Stops...)
	c.Segments = append([]model.Segment(nil), v.Segments...)
	return &c
}
