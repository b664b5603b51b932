package storage

import (
	"testing"
	"time"

	"railbook/pkg/config"
	"railbook/pkg/lock"
	"railbook/pkg/logger"
)

func TestNew_MemoryDriver(t *testing.T) {
	cfg := &config.Config{
		StorageDriver:    config.StorageMemory,
		ScopeLockTimeout: time.Second,
		Log:              logger.Discard(),
	}

	s := New(cfg)

	if s.Vehicles == nil || s.Inventory == nil || s.Bookings == nil || s.Waitlist == nil {
		t.Fatal("expected every repository to be set")
	}
	if _, ok := s.Locker.(*lock.KeyedLocker); !ok {
		t.Errorf("locker = %T, want *lock.KeyedLocker", s.Locker)
	}
	if _, ok := s.Gate.(*lock.KeyedGate); !ok {
		t.Errorf("gate = %T, want *lock.KeyedGate", s.Gate)
	}
	if s.Tx == nil {
		t.Fatal("expected a transaction manager")
	}
}
