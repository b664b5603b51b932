package repository

import (
	"context"
	"errors"
	"fmt"
	inventoryerrors "railbook/internal/inventory/errors"
	"railbook/pkg/config"
	mongodb "railbook/pkg/db/mongo"
	"railbook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoInventoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInventoryRepository(cfg *config.Config) InventoryRepository {
	return &mongoInventoryRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoInventoryRepository) FindByScope(ctx context.Context, scope model.Scope) (*model.Inventory, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var inv model.Inventory
	err := r.collection.FindOne(ctx, bson.M{"_id": scope.Key()}).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find inventory %s: %w", scope.Key(), err)
	}
	return &inv, nil
}

func (r *mongoInventoryRepository) Insert(ctx context.Context, inv *model.Inventory) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	inv.ID = inv.Scope().Key()
	inv.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return inventoryerrors.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert inventory %s: %w", inv.ID, err)
	}
	return nil
}

func (r *mongoInventoryRepository) ReplaceSegments(ctx context.Context, inv *model.Inventory, expectedVersion int64) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": inv.ID, "version": expectedVersion},
		bson.M{
			"$set": bson.M{"segments": inv.Segments, "updated_at": now},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory %s: %w", inv.ID, err)
	}
	if result.MatchedCount == 0 {
		return inventoryerrors.ErrVersionConflict
	}

	inv.Version = expectedVersion + 1
	inv.UpdatedAt = now
	return nil
}

func (r *mongoInventoryRepository) Rebase(ctx context.Context, inv *model.Inventory, expectedVersion int64) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": inv.ID, "version": expectedVersion},
		bson.M{
			"$set": bson.M{
				"route_revision": inv.RouteRevision,
				"capacity":       inv.Capacity,
				"segments":       inv.Segments,
				"updated_at":     now,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to rebase inventory %s: %w", inv.ID, err)
	}
	if result.MatchedCount == 0 {
		return inventoryerrors.ErrVersionConflict
	}

	inv.Version = expectedVersion + 1
	inv.UpdatedAt = now
	return nil
}

func (r *mongoInventoryRepository) DeleteByVehicle(ctx context.Context, vehicleID string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"vehicle_id": vehicleID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete inventories of vehicle %s: %w", vehicleID, err)
	}
	return result.DeletedCount, nil
}
