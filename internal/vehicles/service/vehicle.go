package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	bookingservice "railbook/internal/bookings/service"
	inventoryservice "railbook/internal/inventory/service"
	"railbook/internal/routing"
	vehicleserrors "railbook/internal/vehicles/errors"
	"railbook/internal/vehicles/repository"
	"railbook/internal/vehicles/validator"
	waitlistservice "railbook/internal/waitlist/service"
	"railbook/pkg/config"
	"railbook/pkg/db"
	mongodb "railbook/pkg/db/mongo"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/fare"
	"railbook/pkg/lock"
	"railbook/pkg/model"
	"railbook/pkg/sanitizer"
	"time"
)

// DefineResult tells the caller whether the definition changed the route.
type DefineResult struct {
	Vehicle     *model.Vehicle `json:"vehicle"`
	Created     bool           `json:"created"`
	Regenerated bool           `json:"regenerated"`
}

type VehicleService interface {
	Define(ctx context.Context, id string, def *model.VehicleDefinition) (*DefineResult, error)
	GetByID(ctx context.Context, id string) (*model.Vehicle, error)
}

type vehicleService struct {
	repo      repository.VehicleRepository
	bookings  bookingservice.BookingService
	waitlist  waitlistservice.WaitlistService
	inventory inventoryservice.InventoryService
	tx        db.TransactionManager
	gate      lock.Gate
	validator *validator.VehicleValidator
	fare      fare.Calculator
	cfg       *config.Config
	now       func() time.Time
}

func NewVehicleService(
	repo repository.VehicleRepository,
	bookings bookingservice.BookingService,
	waitlist waitlistservice.WaitlistService,
	inventory inventoryservice.InventoryService,
	tx db.TransactionManager,
	gate lock.Gate,
	validator *validator.VehicleValidator,
	cfg *config.Config,
) VehicleService {
	return &vehicleService{
		repo:      repo,
		bookings:  bookings,
		waitlist:  waitlist,
		inventory: inventory,
		tx:        tx,
		gate:      gate,
		validator: validator,
		fare:      fare.NewDistanceCalculator(cfg.FareRatePerUnit),
		cfg:       cfg,
		now:       time.Now,
	}
}

// Define creates or updates a vehicle. A change to stops or capacity is a
// controlled migration: it is refused while confirmed bookings or waitlist
// entries exist for today or later, and otherwise bumps the route revision
// and drops every stored inventory so dates re-materialize from the new
// segments. The vehicle's gate is held exclusively, so no allocation on the
// vehicle is in flight while the guard counts its bookings.
func (s *vehicleService) Define(ctx context.Context, id string, def *model.VehicleDefinition) (*DefineResult, error) {
	sanitizer.SanitizeVehicleDefinition(def)
	if err := s.validator.Validate(id, def); err != nil {
		return nil, toAppError(err, id)
	}

	stops, err := routing.NormalizeStops(def)
	if err != nil {
		s.cfg.Log.Warn("Vehicle definition has invalid stops", "vehicle_id", id, "error", err)
		return nil, toAppError(err, id)
	}

	release, err := s.gate.Exclusive(ctx, id)
	if err != nil {
		return nil, toAppError(err, id)
	}
	defer release()

	var result *DefineResult
	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		result, txErr = s.define(ctx, id, def, stops)
		return txErr
	})
	if err != nil {
		if !errors.Is(err, vehicleserrors.ErrRegenerationForbidden) {
			s.cfg.Log.Error("Vehicle definition failed", "vehicle_id", id, "error", err)
		}
		return nil, toAppError(err, id)
	}

	s.cfg.Log.Info("Vehicle defined",
		"vehicle_id", id,
		"created", result.Created,
		"regenerated", result.Regenerated,
		"route_revision", result.Vehicle.RouteRevision,
		"stops", len(stops),
		"capacity", def.Capacity,
	)
	return result, nil
}

func (s *vehicleService) define(ctx context.Context, id string, def *model.VehicleDefinition, stops []model.Stop) (*DefineResult, error) {
	now := s.now().UTC().Truncate(time.Millisecond)

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, vehicleserrors.ErrNotFound) {
		return nil, err
	}

	vehicle := &model.Vehicle{
		ID:            id,
		Number:        def.Number,
		Name:          def.Name,
		Source:        stops[0].Station,
		Destination:   stops[len(stops)-1].Station,
		DepartureTime: def.DepartureTime,
		ArrivalTime:   def.ArrivalTime,
		Capacity:      def.Capacity,
		Stops:         stops,
		Segments:      routing.BuildSegments(stops, def.Capacity),
		BaseFare:      s.fare.PerSeat(routing.Length(stops)),
		RouteRevision: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	result := &DefineResult{Vehicle: vehicle, Created: existing == nil}

	if existing != nil {
		vehicle.CreatedAt = existing.CreatedAt
		vehicle.RouteRevision = existing.RouteRevision

		if routeChanged(existing, vehicle) {
			if err := s.guardRegeneration(ctx, id, now); err != nil {
				return nil, err
			}
			if _, err := s.inventory.ResetVehicle(ctx, id); err != nil {
				return nil, err
			}
			vehicle.RouteRevision++
			result.Regenerated = true
		}
	}

	if err := s.repo.Save(ctx, vehicle); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *vehicleService) guardRegeneration(ctx context.Context, id string, now time.Time) error {
	today := now.Format(model.TravelDateLayout)

	confirmed, err := s.bookings.CountConfirmedFrom(ctx, id, today)
	if err != nil {
		return err
	}
	queued, err := s.waitlist.CountFrom(ctx, id, today)
	if err != nil {
		return err
	}

	if confirmed > 0 || queued > 0 {
		s.cfg.Log.Warn("Route regeneration refused",
			"vehicle_id", id,
			"confirmed_bookings", confirmed,
			"waitlist_entries", queued,
			"from", today,
		)
		return fmt.Errorf("%w: %d confirmed bookings and %d waitlist entries from %s",
			vehicleserrors.ErrRegenerationForbidden, confirmed, queued, today)
	}
	return nil
}

func routeChanged(prev, next *model.Vehicle) bool {
	if prev.Capacity != next.Capacity || len(prev.Stops) != len(next.Stops) {
		return true
	}
	for i := range prev.Stops {
		if routing.Normalize(prev.Stops[i].Station) != routing.Normalize(next.Stops[i].Station) ||
			prev.Stops[i].Km != next.Stops[i].Km {
			return true
		}
	}
	return false
}

func (s *vehicleService) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, toAppError(err, id)
	}
	return vehicle, nil
}

// toAppError maps vehicle domain failures to their API form. The domain error
// stays in the chain so callers can still match it with errors.Is.
func toAppError(err error, id string) error {
	var verrs validator.ValidationErrors
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.As(err, &verrs):
		return apperrors.Wrap(err, apperrors.CodeValidation, "Vehicle definition validation failed", http.StatusUnprocessableEntity).
			WithDetails(verrs.Details())
	case errors.Is(err, routing.ErrInvalidStops):
		return apperrors.InvalidRoute(err.Error(), err)
	case errors.Is(err, vehicleserrors.ErrRegenerationForbidden):
		return apperrors.Wrap(err, apperrors.CodeConflict, err.Error(), http.StatusConflict)
	case errors.Is(err, vehicleserrors.ErrNotFound):
		return apperrors.Wrap(err, apperrors.CodeNotFound, "Vehicle not found", http.StatusNotFound).
			WithDetails(map[string]any{"id": id})
	case errors.Is(err, lock.ErrNotAcquired), mongodb.IsWriteConflict(err):
		return apperrors.StorageConflict(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("vehicle definition timed out")
	}
	return apperrors.Internal("Failed to define vehicle", err)
}
