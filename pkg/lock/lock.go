// Package lock serializes work on one vehicle and travel date. Every
// operation that reads and then writes a scope's inventory, waitlist or
// counter holds the scope's lock for the whole read-decide-write sequence.
package lock

import (
	"context"
	"errors"
)

var ErrNotAcquired = errors.New("scope lock not acquired")

// Release frees a held lock. It is safe to call once.
type Release func()

type ScopeLocker interface {
	// Lock blocks until key is held or the acquire timeout (or ctx) expires,
	// in which case the error wraps ErrNotAcquired.
	Lock(ctx context.Context, key string) (Release, error)
}

// Gate guards a whole vehicle. Operations on any of its scopes hold it
// shared; a route change holds it exclusive, so it never runs while an
// allocation on the same vehicle is between its revision check and commit.
type Gate interface {
	Shared(ctx context.Context, key string) (Release, error)
	Exclusive(ctx context.Context, key string) (Release, error)
}
