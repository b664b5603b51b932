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
)

const (
	CollectionName = "Scope_locks"

	minBackoff = 10 * time.Millisecond
	maxBackoff = 250 * time.Millisecond
)

// MongoLocker is a ScopeLocker shared by every process using the same
// database. A lock is a document keyed by scope; an expired lease may be
// taken over so a crashed holder cannot wedge a scope forever.
type MongoLocker struct {
	collection *mongo.Collection
	timeout    time.Duration
	ttl        time.Duration
	log        *logger.Logger
}

func NewMongoLocker(db *mongo.Database, timeout, ttl time.Duration, log *logger.Logger) *MongoLocker {
	return &MongoLocker{
		collection: db.Collection(CollectionName),
		timeout:    timeout,
		ttl:        ttl,
		log:        log,
	}
}

func (l *MongoLocker) Lock(ctx context.Context, key string) (Release, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	owner := uuid.NewString()
	id := "scope_lock_" + key
	backoff := minBackoff

	for {
		acquired, err := l.tryAcquire(ctx, id, owner)
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire scope lock %s: %w", key, err)
		}
		if acquired {
			return l.releaseFunc(id, owner), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (l *MongoLocker) tryAcquire(ctx context.Context, id, owner string) (bool, error) {
	now := time.Now().UTC()
	doc := model.ScopeLock{
		ID:        id,
		Owner:     owner,
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}

	_, err := l.collection.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, err
	}

	// held: take it over only if the lease ran out
	result, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": id, "expires_at": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"owner": owner, "expires_at": now.Add(l.ttl), "created_at": now}},
	)
	if err != nil {
		return false, err
	}
	if result.ModifiedCount == 1 {
		l.log.Warn("Took over expired scope lock", "lock_id", id)
		return true, nil
	}
	return false, nil
}

func (l *MongoLocker) releaseFunc(id, owner string) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner}); err != nil {
				l.log.Error("Failed to release scope lock, it will expire on its own",
					"lock_id", id,
					"error", err,
				)
			}
		})
	}
}
