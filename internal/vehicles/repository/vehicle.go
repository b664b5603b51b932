package repository

import (
	"context"
	"railbook/pkg/model"
)

const CollectionName = "Vehicles"

type VehicleRepository interface {
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	// Save inserts or replaces the vehicle by id.
	Save(ctx context.Context, vehicle *model.Vehicle) error
}
