package repository

import (
	"context"
	"errors"
	"fmt"
	waitlisterrors "railbook/internal/waitlist/errors"
	"railbook/pkg/config"
	mongodb "railbook/pkg/db/mongo"
	"railbook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoWaitlistRepository struct {
	cfg      *config.Config
	entries  *mongo.Collection
	counters *mongo.Collection
}

func NewMongoWaitlistRepository(cfg *config.Config) WaitlistRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWaitlistRepository{
		cfg:      cfg,
		entries:  db.Collection(EntriesCollection),
		counters: db.Collection(CountersCollection),
	}
}

func (r *mongoWaitlistRepository) NextPosition(ctx context.Context, scope model.Scope) (int, int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter model.WaitlistCounter
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": scope.Key()},
		bson.M{
			"$inc":         bson.M{"count": 1, "last_sequence": 1},
			"$setOnInsert": bson.M{"vehicle_id": scope.VehicleID, "travel_date": scope.TravelDate},
		},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to advance waitlist counter %s: %w", scope.Key(), err)
	}
	return counter.Count, counter.LastSequence, nil
}

func (r *mongoWaitlistRepository) SetCount(ctx context.Context, scope model.Scope, count int) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.counters.UpdateOne(ctx,
		bson.M{"_id": scope.Key()},
		bson.M{
			"$set":         bson.M{"count": count},
			"$setOnInsert": bson.M{"vehicle_id": scope.VehicleID, "travel_date": scope.TravelDate, "last_sequence": int64(0)},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to set waitlist count %s: %w", scope.Key(), err)
	}
	return nil
}

func (r *mongoWaitlistRepository) Insert(ctx context.Context, entry *model.WaitlistEntry) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	entry.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.entries.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert waitlist entry: %w", err)
	}
	return nil
}

func (r *mongoWaitlistRepository) FindByID(ctx context.Context, id string) (*model.WaitlistEntry, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var entry model.WaitlistEntry
	if err := r.entries.FindOne(ctx, bson.M{"_id": id}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, waitlisterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find waitlist entry: %w", err)
	}
	return &entry, nil
}

func (r *mongoWaitlistRepository) FindByScope(ctx context.Context, scope model.Scope) ([]*model.WaitlistEntry, error) {
	return r.find(ctx,
		bson.M{"vehicle_id": scope.VehicleID, "travel_date": scope.TravelDate},
		bson.D{{Key: "position", Value: 1}, {Key: "sequence", Value: 1}},
	)
}

func (r *mongoWaitlistRepository) FindByRequester(ctx context.Context, requesterID string) ([]*model.WaitlistEntry, error) {
	return r.find(ctx,
		bson.M{"requester_id": requesterID},
		bson.D{{Key: "travel_date", Value: 1}, {Key: "position", Value: 1}},
	)
}

func (r *mongoWaitlistRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*model.WaitlistEntry, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.entries.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to find waitlist entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*model.WaitlistEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode waitlist entries: %w", err)
	}
	return entries, nil
}

func (r *mongoWaitlistRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.entries.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete waitlist entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return waitlisterrors.ErrNotFound
	}
	return nil
}

func (r *mongoWaitlistRepository) SetPositions(ctx context.Context, positions map[string]int) error {
	if len(positions) == 0 {
		return nil
	}
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	models := make([]mongo.WriteModel, 0, len(positions))
	for id, position := range positions {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"position": position}}))
	}

	if _, err := r.entries.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to renumber waitlist: %w", err)
	}
	return nil
}

func (r *mongoWaitlistRepository) CountFrom(ctx context.Context, vehicleID, fromDate string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.entries.CountDocuments(ctx, bson.M{
		"vehicle_id":  vehicleID,
		"travel_date": bson.M{"$gte": fromDate},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count waitlist entries: %w", err)
	}
	return count, nil
}
