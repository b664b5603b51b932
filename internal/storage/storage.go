package storage

import (
	bookingrepository "railbook/internal/bookings/repository"
	bookingservice "railbook/internal/bookings/service"
	inventoryrepository "railbook/internal/inventory/repository"
	inventoryservice "railbook/internal/inventory/service"
	vehiclerepository "railbook/internal/vehicles/repository"
	waitlistrepository "railbook/internal/waitlist/repository"
	waitlistservice "railbook/internal/waitlist/service"
	"railbook/pkg/config"
	"railbook/pkg/db"
	"railbook/pkg/db/memory"
	mongodb "railbook/pkg/db/mongo"
	"railbook/pkg/lock"
)

// Storage is the set of repositories and coordination primitives one
// process shares between the HTTP intake and the definition consumer.
type Storage struct {
	Vehicles  vehiclerepository.VehicleRepository
	Inventory inventoryservice.InventoryService
	Bookings  bookingservice.BookingService
	Waitlist  waitlistservice.WaitlistService
	Tx        db.TransactionManager
	Locker    lock.ScopeLocker
	Gate      lock.Gate
}

// New builds the storage selected by cfg.StorageDriver. Mongo mode expects
// cfg.SetMongo to have been called.
func New(cfg *config.Config) *Storage {
	if cfg.UsesMongo() {
		return newMongo(cfg)
	}
	return newMemory(cfg)
}

func newMemory(cfg *config.Config) *Storage {
	cfg.Log.Warn("Using in-memory storage, state is lost on restart and not shared between processes")
	return &Storage{
		Vehicles:  vehiclerepository.NewMemoryVehicleRepository(),
		Inventory: inventoryservice.NewInventoryService(inventoryrepository.NewMemoryInventoryRepository(), cfg),
		Bookings:  bookingservice.NewBookingService(bookingrepository.NewMemoryBookingRepository(), cfg),
		Waitlist:  waitlistservice.NewWaitlistService(waitlistrepository.NewMemoryWaitlistRepository(), cfg),
		Tx:        memory.NewTransactionManager(),
		Locker:    lock.NewKeyedLocker(cfg.ScopeLockTimeout),
		Gate:      lock.NewKeyedGate(cfg.ScopeLockTimeout),
	}
}

func newMongo(cfg *config.Config) *Storage {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	cfg.Log.Info("Using Mongo storage", "database", cfg.MongoDatabaseName)
	return &Storage{
		Vehicles:  vehiclerepository.NewMongoVehicleRepository(cfg),
		Inventory: inventoryservice.NewInventoryService(inventoryrepository.NewMongoInventoryRepository(cfg), cfg),
		Bookings:  bookingservice.NewBookingService(bookingrepository.NewMongoBookingRepository(cfg), cfg),
		Waitlist:  waitlistservice.NewWaitlistService(waitlistrepository.NewMongoWaitlistRepository(cfg), cfg),
		Tx:        mongodb.NewTransactionManager(cfg.Client.Mongo),
		Locker:    lock.NewMongoLocker(database, cfg.ScopeLockTimeout, cfg.ScopeLockTTL, cfg.Log),
		Gate:      lock.NewMongoGate(database, cfg.ScopeLockTimeout, cfg.ScopeLockTTL, cfg.Log),
	}
}
