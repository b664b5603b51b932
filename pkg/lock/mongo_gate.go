package lock

import (
	"context"
	"fmt"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const GateCollectionName = "Vehicle_gates"

// MongoGate is a Gate shared by every process using the same database. One
// document per key holds the shared leases and at most one exclusive lease.
// An exclusive holder first claims the writer slot, which keeps new shared
// holders out, then waits for the shared leases to drain. Expired leases are
// ignored so a crashed holder cannot wedge a vehicle.
type MongoGate struct {
	collection *mongo.Collection
	timeout    time.Duration
	ttl        time.Duration
	log        *logger.Logger
}

func NewMongoGate(db *mongo.Database, timeout, ttl time.Duration, log *logger.Logger) *MongoGate {
	return &MongoGate{
		collection: db.Collection(GateCollectionName),
		timeout:    timeout,
		ttl:        ttl,
		log:        log,
	}
}

func writerFree(now time.Time) bson.A {
	return bson.A{
		bson.M{"writer": nil},
		bson.M{"writer.expires_at": bson.M{"$lt": now}},
	}
}

func (g *MongoGate) Shared(ctx context.Context, key string) (Release, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	owner := uuid.NewString()
	err := poll(ctx, func() (bool, error) { return g.tryShared(ctx, key, owner) })
	if err != nil {
		return nil, gateError(ctx, key, err)
	}
	return g.releaseFunc(key, bson.M{"_id": key}, bson.M{"$pull": bson.M{"readers": bson.M{"owner": owner}}}), nil
}

func (g *MongoGate) tryShared(ctx context.Context, key, owner string) (bool, error) {
	now := time.Now().UTC()
	if err := g.pruneReaders(ctx, key, now); err != nil {
		return false, err
	}

	_, err := g.collection.UpdateOne(ctx,
		bson.M{"_id": key, "$or": writerFree(now)},
		bson.M{"$push": bson.M{"readers": model.GateLease{Owner: owner, ExpiresAt: now.Add(g.ttl)}}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// the document exists and an exclusive holder is in
		return false, nil
	}
	return err == nil, err
}

func (g *MongoGate) Exclusive(ctx context.Context, key string) (Release, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	owner := uuid.NewString()
	if err := poll(ctx, func() (bool, error) { return g.tryClaimWriter(ctx, key, owner) }); err != nil {
		return nil, gateError(ctx, key, err)
	}

	release := g.releaseFunc(key,
		bson.M{"_id": key, "writer.owner": owner},
		bson.M{"$unset": bson.M{"writer": ""}},
	)
	if err := poll(ctx, func() (bool, error) { return g.drained(ctx, key) }); err != nil {
		release()
		return nil, gateError(ctx, key, err)
	}
	return release, nil
}

func (g *MongoGate) tryClaimWriter(ctx context.Context, key, owner string) (bool, error) {
	now := time.Now().UTC()
	_, err := g.collection.UpdateOne(ctx,
		bson.M{"_id": key, "$or": writerFree(now)},
		bson.M{"$set": bson.M{"writer": model.GateLease{Owner: owner, ExpiresAt: now.Add(g.ttl)}}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	return err == nil, err
}

func (g *MongoGate) drained(ctx context.Context, key string) (bool, error) {
	now := time.Now().UTC()
	if err := g.pruneReaders(ctx, key, now); err != nil {
		return false, err
	}

	var gate model.VehicleGate
	if err := g.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&gate); err != nil {
		return false, err
	}
	return len(gate.Readers) == 0, nil
}

func (g *MongoGate) pruneReaders(ctx context.Context, key string, now time.Time) error {
	_, err := g.collection.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$pull": bson.M{"readers": bson.M{"expires_at": bson.M{"$lt": now}}}},
	)
	return err
}

func (g *MongoGate) releaseFunc(key string, filter, update bson.M) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if _, err := g.collection.UpdateOne(ctx, filter, update); err != nil {
				g.log.Error("Failed to release vehicle gate, the lease will expire on its own",
					"gate_id", key,
					"error", err,
				)
			}
		})
	}
}

// poll calls try with backoff until it succeeds, fails or ctx is done.
func poll(ctx context.Context, try func() (bool, error)) error {
	backoff := minBackoff
	for {
		ok, err := try()
		if err != nil && ctx.Err() == nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func gateError(ctx context.Context, key string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: gate %s: %v", ErrNotAcquired, key, err)
	}
	return fmt.Errorf("failed to acquire gate %s: %w", key, err)
}
