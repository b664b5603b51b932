package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingrepository "railbook/internal/bookings/repository"
	inventoryrepository "railbook/internal/inventory/repository"
	"railbook/internal/migrations/mongo/validators"
	vehiclerepository "railbook/internal/vehicles/repository"
	waitlistrepository "railbook/internal/waitlist/repository"
	"railbook/pkg/lock"
	"railbook/pkg/logger"
)

var (
	VehiclesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "number", Value: 1}}},
	}

	InventoriesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "travel_date", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "requester_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "vehicle_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "travel_date", Value: 1},
		}},
	}

	WaitlistEntriesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "vehicle_id", Value: 1},
			{Key: "travel_date", Value: 1},
			{Key: "sequence", Value: 1},
		}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	WaitlistCountersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "travel_date", Value: 1}}},
	}

	// Expired leases are removed by the server; the locker also takes over
	// an expired lease before the TTL monitor gets to it.
	ScopeLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	// Gate documents are kept; the index only serves lookups of stale writers.
	VehicleGatesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "writer.expires_at", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() map[string]collectionDef {
	return map[string]collectionDef{
		vehiclerepository.CollectionName: {
			Indexes:   VehiclesIndexes,
			Validator: validators.VehicleValidator,
		},
		inventoryrepository.CollectionName: {
			Indexes:   InventoriesIndexes,
			Validator: validators.InventoryValidator,
		},
		bookingrepository.CollectionName: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		waitlistrepository.EntriesCollection: {
			Indexes:   WaitlistEntriesIndexes,
			Validator: validators.WaitlistEntryValidator,
		},
		waitlistrepository.CountersCollection: {
			Indexes:   WaitlistCountersIndexes,
			Validator: validators.WaitlistCounterValidator,
		},
		lock.CollectionName: {
			Indexes:   ScopeLocksIndexes,
			Validator: validators.ScopeLockValidator,
		},
		lock.GateCollectionName: {
			Indexes:   VehicleGatesIndexes,
			Validator: validators.VehicleGateValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
