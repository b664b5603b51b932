package service

import (
	"context"
	"errors"
	"fmt"
	inventoryerrors "railbook/internal/inventory/errors"
	"railbook/internal/inventory/repository"
	"railbook/internal/routing"
	"railbook/pkg/config"
	"railbook/pkg/model"
)

// InventoryService owns the seats of every (vehicle, travel date) scope.
// Callers hold the scope lock and run writes inside a transaction.
type InventoryService interface {
	Get(ctx context.Context, vehicle *model.Vehicle, travelDate string) (*model.Inventory, error)
	Find(ctx context.Context, scope model.Scope) (*model.Inventory, error)
	CheckAndReserve(ctx context.Context, vehicle *model.Vehicle, travelDate string, refs []model.SegmentRef, seats int) (*model.Inventory, error)
	Restore(ctx context.Context, vehicle *model.Vehicle, travelDate string, refs []model.SegmentRef, seats int) (*model.Inventory, error)
	Fits(ctx context.Context, vehicle *model.Vehicle, travelDate string, refs []model.SegmentRef, seats int) (bool, error)
	ResetVehicle(ctx context.Context, vehicleID string) (int64, error)
}

type inventoryService struct {
	repo repository.InventoryRepository
	cfg  *config.Config
}

func NewInventoryService(repo repository.InventoryRepository, cfg *config.Config) InventoryService {
	return &inventoryService{
		repo: repo,
		cfg:  cfg,
	}
}

// Get returns the scope's inventory, materializing it from the vehicle's
// segment template on first use.
func (s *inventoryService) Get(ctx context.Context, vehicle *model.Vehicle, travelDate string) (*model.Inventory, error) {
	scope := model.NewScope(vehicle.ID, travelDate)

	inv, err := s.repo.FindByScope(ctx, scope)
	switch {
	case err == nil:
		if inv.RouteRevision == vehicle.RouteRevision {
			return inv, nil
		}
		if !untouched(inv) {
			return nil, fmt.Errorf("%w: %s at revision %d, vehicle at %d",
				inventoryerrors.ErrRevisionMismatch, scope.Key(), inv.RouteRevision, vehicle.RouteRevision)
		}
		return s.rebase(ctx, inv, vehicle)
	case !errors.Is(err, inventoryerrors.ErrNotFound):
		return nil, err
	}

	inv = &model.Inventory{
		VehicleID:     vehicle.ID,
		TravelDate:    travelDate,
		RouteRevision: vehicle.RouteRevision,
		Capacity:      vehicle.Capacity,
		Segments:      routing.BuildSegments(vehicle.Stops, vehicle.Capacity),
	}
	if err := s.repo.Insert(ctx, inv); err != nil {
		if errors.Is(err, inventoryerrors.ErrAlreadyExists) {
			return s.repo.FindByScope(ctx, scope)
		}
		return nil, err
	}

	s.cfg.Log.Info("Inventory materialized",
		"scope", scope.Key(),
		"route_revision", inv.RouteRevision,
		"segments", len(inv.Segments),
		"capacity", inv.Capacity,
	)
	return inv, nil
}

// Find returns the stored inventory without materializing one.
func (s *inventoryService) Find(ctx context.Context, scope model.Scope) (*model.Inventory, error) {
	return s.repo.FindByScope(ctx, scope)
}

func (s *inventoryService) CheckAndReserve(ctx context.Context, vehicle *model.Vehicle, travelDate string, refs []model.SegmentRef, seats int) (*model.Inventory, error) {
	inv, err := s.load(ctx, vehicle, travelDate, refs, seats)
	if err != nil {
		return nil, err
	}

	if !fits(inv, refs, seats) {
		return nil, inventoryerrors.ErrInsufficientCapacity
	}

	expected := inv.Version
	for _, ref := range refs {
		inv.Segments[ref.Index].SeatsAvailable -= seats
	}
	if err := s.repo.ReplaceSegments(ctx, inv, expected); err != nil {
		return nil, err
	}

	s.cfg.Log.Debug("Seats reserved",
		"scope", inv.ID,
		"from", refs[0].From,
		"to", refs[len(refs)-1].To,
		"seats", seats,
		"version", inv.Version,
	)
	return inv, nil
}

// Restore is the inverse of CheckAndReserve. A restore that would push any
// segment above capacity is refused without writing.
func (s *inventoryService) Restore(ctx context.Context, vehicle *model.Vehicle, travelDate string, refs []model.SegmentRef, seats int) (*model.Inventory, error) {
	inv, err := s.load(ctx, vehicle, travelDate, refs, seats)
	if err != nil {
		return nil, err
	}

	expected := inv.Version
	for _, ref := range refs {
		next := inv.Segments[ref.Index].SeatsAvailable + seats
		if next > inv.Capacity {
			s.cfg.Log.Error("Restore would overflow segment capacity",
				"scope", inv.ID,
				"segment_from", ref.From,
				"segment_to", ref.To,
				"seats_available", inv.Segments[ref.Index].SeatsAvailable,
				"seats", seats,
				"capacity", inv.Capacity,
			)
			return nil, inventoryerrors.ErrCapacityOverflow
		}
		inv.Segments[ref.Index].SeatsAvailable = next
	}
	if err := s.repo.ReplaceSegments(ctx, inv, expected); err != nil {
		return nil, err
	}

	s.cfg.Log.Debug("Seats restored",
		"scope", inv.ID,
		"from", refs[0].From,
		"to", refs[len(refs)-1].To,
		"seats", seats,
		"version", inv.Version,
	)
	return inv, nil
}

func (s *inventoryService) Fits(ctx context.Context, vehicle *model.Vehicle, travelDate string, refs []model.SegmentRef, seats int) (bool, error) {
	inv, err := s.load(ctx, vehicle, travelDate, refs, seats)
	if err != nil {
		return false, err
	}
	return fits(inv, refs, seats), nil
}

func (s *inventoryService) ResetVehicle(ctx context.Context, vehicleID string) (int64, error) {
	deleted, err := s.repo.DeleteByVehicle(ctx, vehicleID)
	if err != nil {
		return 0, err
	}
	s.cfg.Log.Info("Inventories reset", "vehicle_id", vehicleID, "deleted", deleted)
	return deleted, nil
}

func (s *inventoryService) load(ctx context.Context, vehicle *model.Vehicle, travelDate string, refs []model.SegmentRef, seats int) (*model.Inventory, error) {
	if seats < 1 {
		return nil, inventoryerrors.ErrInvalidSeats
	}
	inv, err := s.Get(ctx, vehicle, travelDate)
	if err != nil {
		return nil, err
	}
	if !routing.RangeMatches(inv.Segments, refs) {
		return nil, inventoryerrors.ErrRangeMismatch
	}
	return inv, nil
}

// rebase moves an inventory nobody has reserved from onto the vehicle's
// current route.
func (s *inventoryService) rebase(ctx context.Context, inv *model.Inventory, vehicle *model.Vehicle) (*model.Inventory, error) {
	expected := inv.Version
	stale := inv.RouteRevision
	inv.RouteRevision = vehicle.RouteRevision
	inv.Capacity = vehicle.Capacity
	inv.Segments = routing.BuildSegments(vehicle.Stops, vehicle.Capacity)
	if err := s.repo.Rebase(ctx, inv, expected); err != nil {
		return nil, err
	}

	s.cfg.Log.Warn("Stale inventory rebased",
		"scope", inv.ID,
		"from_revision", stale,
		"route_revision", inv.RouteRevision,
	)
	return inv, nil
}

func untouched(inv *model.Inventory) bool {
	for _, seg := range inv.Segments {
		if seg.SeatsAvailable != inv.Capacity {
			return false
		}
	}
	return true
}

func fits(inv *model.Inventory, refs []model.SegmentRef, seats int) bool {
	for _, ref := range refs {
		if inv.Segments[ref.Index].SeatsAvailable < seats {
			return false
		}
	}
	return true
}
