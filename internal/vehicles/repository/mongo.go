package repository

import (
	"context"
	"errors"
	"fmt"
	vehicleserrors "railbook/internal/vehicles/errors"
	"railbook/pkg/config"
	mongodb "railbook/pkg/db/mongo"
	"railbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoVehicleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVehicleRepository(cfg *config.Config) VehicleRepository {
	return &mongoVehicleRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var vehicle model.Vehicle
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, vehicleserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find vehicle %s: %w", id, err)
	}
	return &vehicle, nil
}

func (r *mongoVehicleRepository) Save(ctx context.Context, vehicle *model.Vehicle) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": vehicle.ID},
		vehicle,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save vehicle %s: %w", vehicle.ID, err)
	}
	return nil
}
