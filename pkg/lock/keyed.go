package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

type keyedEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// semaphores hands out one weighted semaphore per key and drops it once
// nobody holds or waits for it.
type semaphores struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
	weight  int64
	timeout time.Duration
}

func newSemaphores(weight int64, timeout time.Duration) *semaphores {
	return &semaphores{
		entries: make(map[string]*keyedEntry),
		weight:  weight,
		timeout: timeout,
	}
}

func (s *semaphores) acquire(ctx context.Context, key string, n int64) (Release, error) {
	entry := s.ref(key)

	acquireCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := entry.sem.Acquire(acquireCtx, n); err != nil {
		s.unref(key, entry)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.sem.Release(n)
			s.unref(key, entry)
		})
	}, nil
}

func (s *semaphores) ref(key string) *keyedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &keyedEntry{sem: semaphore.NewWeighted(s.weight)}
		s.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (s *semaphores) unref(key string, entry *keyedEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(s.entries, key)
	}
}

func (s *semaphores) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// KeyedLocker is an in-process ScopeLocker: one weight-1 semaphore per key.
type KeyedLocker struct {
	sems *semaphores
}

func NewKeyedLocker(timeout time.Duration) *KeyedLocker {
	return &KeyedLocker{sems: newSemaphores(1, timeout)}
}

func (l *KeyedLocker) Lock(ctx context.Context, key string) (Release, error) {
	return l.sems.acquire(ctx, key, 1)
}

// size is the number of keys currently tracked.
func (l *KeyedLocker) size() int {
	return l.sems.size()
}

// gateWeight bounds the number of concurrent shared holders of one key.
const gateWeight = 1 << 20

// KeyedGate is an in-process Gate. Shared holders take one unit of a key's
// semaphore, an exclusive holder takes all of them. Waiters are served in
// arrival order, so a waiting exclusive holder keeps new shared holders out.
type KeyedGate struct {
	sems *semaphores
}

func NewKeyedGate(timeout time.Duration) *KeyedGate {
	return &KeyedGate{sems: newSemaphores(gateWeight, timeout)}
}

func (g *KeyedGate) Shared(ctx context.Context, key string) (Release, error) {
	return g.sems.acquire(ctx, key, 1)
}

func (g *KeyedGate) Exclusive(ctx context.Context, key string) (Release, error) {
	return g.sems.acquire(ctx, key, gateWeight)
}

func (g *KeyedGate) size() int {
	return g.sems.size()
}
