package repository

import (
	"context"
	"railbook/pkg/model"
)

const CollectionName = "Inventories"

type InventoryRepository interface {
	FindByScope(ctx context.Context, scope model.Scope) (*model.Inventory, error)
	Insert(ctx context.Context, inv *model.Inventory) error
	// ReplaceSegments writes inv.Segments if the stored version still equals
	// expectedVersion, and bumps the version.
	ReplaceSegments(ctx context.Context, inv *model.Inventory, expectedVersion int64) error
	// Rebase replaces the route revision, capacity and segments if the stored
	// version still equals expectedVersion, and bumps the version.
	Rebase(ctx context.Context, inv *model.Inventory, expectedVersion int64) error
	DeleteByVehicle(ctx context.Context, vehicleID string) (int64, error)
}
