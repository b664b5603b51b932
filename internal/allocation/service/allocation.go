// Package service is the request intake: it turns a booking request into a
// confirmed booking or a waitlist admission, and a cancellation into a
// restore plus promotion, each under the scope lock and one transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "railbook/internal/bookings/errors"
	bookingservice "railbook/internal/bookings/service"
	"railbook/internal/bookings/validator"
	inventoryerrors "railbook/internal/inventory/errors"
	inventoryservice "railbook/internal/inventory/service"
	"railbook/internal/promotion"
	"railbook/internal/routing"
	vehiclerepository "railbook/internal/vehicles/repository"
	waitlisterrors "railbook/internal/waitlist/errors"
	waitlistservice "railbook/internal/waitlist/service"
	"railbook/pkg/config"
	"railbook/pkg/db"
	"railbook/pkg/events"
	"railbook/pkg/fare"
	"railbook/pkg/lock"
	"railbook/pkg/model"
	"railbook/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

// errRouteChanged aborts a transaction that raced a route regeneration.
var errRouteChanged = errors.New("vehicle route changed during the operation")

type AllocationService interface {
	Book(ctx context.Context, req *model.BookingRequest) (*model.BookingOutcome, error)
	CancelBooking(ctx context.Context, requesterID, bookingID string) (*model.CancellationOutcome, error)
	CancelWaitlistEntry(ctx context.Context, requesterID, entryID string) (*model.CancellationOutcome, error)
	Cancel(ctx context.Context, requesterID, id string) (*model.CancellationOutcome, error)

	GetBooking(ctx context.Context, requesterID, bookingID string) (*model.Booking, error)
	ListBookings(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, int64, error)
	ListWaitlistEntries(ctx context.Context, requesterID string) ([]*model.WaitlistEntry, error)
	Waitlist(ctx context.Context, scope model.Scope) ([]*model.WaitlistEntry, error)
	Inventory(ctx context.Context, scope model.Scope) (*model.Inventory, error)
}

type allocationService struct {
	vehicles  vehiclerepository.VehicleRepository
	inventory inventoryservice.InventoryService
	bookings  bookingservice.BookingService
	waitlist  waitlistservice.WaitlistService
	engine    *promotion.Engine
	tx        db.TransactionManager
	locker    lock.ScopeLocker
	gate      lock.Gate
	publisher events.Publisher
	validator *validator.BookingValidator
	fare      fare.Calculator
	cfg       *config.Config
}

func NewAllocationService(
	vehicles vehiclerepository.VehicleRepository,
	inventory inventoryservice.InventoryService,
	bookings bookingservice.BookingService,
	waitlist waitlistservice.WaitlistService,
	tx db.TransactionManager,
	locker lock.ScopeLocker,
	gate lock.Gate,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) AllocationService {
	return &allocationService{
		vehicles:  vehicles,
		inventory: inventory,
		bookings:  bookings,
		waitlist:  waitlist,
		engine:    promotion.NewEngine(inventory, bookings, waitlist, cfg),
		tx:        tx,
		locker:    locker,
		gate:      gate,
		publisher: publisher,
		validator: validator,
		fare:      fare.NewDistanceCalculator(cfg.FareRatePerUnit),
		cfg:       cfg,
	}
}

// ────────────────────────────────────────────────────────────────
// Booking
// ────────────────────────────────────────────────────────────────

func (s *allocationService) Book(ctx context.Context, req *model.BookingRequest) (*model.BookingOutcome, error) {
	sanitizer.SanitizeBookingRequest(req)
	if err := s.validator.Validate(req); err != nil {
		return nil, toAppError(err)
	}

	vehicle, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, toAppError(err)
	}
	if req.Seats > vehicle.Capacity {
		return nil, toAppError(fmt.Errorf("%w: %d seats requested, vehicle holds %d",
			inventoryerrors.ErrInsufficientCapacity, req.Seats, vehicle.Capacity))
	}

	itinerary, err := s.itinerary(vehicle, req)
	if err != nil {
		s.cfg.Log.Warn("Booking request has an unresolvable route",
			"requester_id", req.RequesterID,
			"vehicle_id", req.VehicleID,
			"from", req.StartStation,
			"to", req.EndStation,
			"error", err,
		)
		return nil, toAppError(err)
	}

	scope := req.Scope()
	release, err := s.lockScope(ctx, scope)
	if err != nil {
		return nil, toAppError(err)
	}
	defer release()

	var outcome *model.BookingOutcome
	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkRevision(ctx, vehicle); err != nil {
			return err
		}

		_, err := s.inventory.CheckAndReserve(ctx, vehicle, scope.TravelDate, itinerary.Segments, itinerary.Seats)
		switch {
		case err == nil:
			booking, err := s.bookings.Create(ctx, req.RequesterID, scope, itinerary, "")
			if err != nil {
				return err
			}
			outcome = &model.BookingOutcome{
				Status:    model.OutcomeConfirmed,
				BookingID: booking.ID,
				Price:     booking.Price,
				Booking:   booking,
			}
			return nil
		case errors.Is(err, inventoryerrors.ErrInsufficientCapacity):
			entry, err := s.waitlist.Admit(ctx, req.RequesterID, scope, itinerary)
			if err != nil {
				return err
			}
			outcome = &model.BookingOutcome{
				Status:   model.OutcomeWaitlisted,
				EntryID:  entry.ID,
				Position: entry.Position,
				Entry:    entry,
			}
			return nil
		default:
			return err
		}
	})
	if err != nil {
		s.logFailure("Booking failed", scope, req.RequesterID, err)
		return nil, toAppError(err)
	}

	if outcome.Booking != nil {
		s.publisher.Publish(ctx, events.NewBookingEvent(events.BookingConfirmed, outcome.Booking))
	} else {
		s.publisher.Publish(ctx, events.NewWaitlistEvent(events.WaitlistAdmitted, outcome.Entry))
	}
	return outcome, nil
}

func (s *allocationService) itinerary(vehicle *model.Vehicle, req *model.BookingRequest) (model.Itinerary, error) {
	refs, err := routing.ResolveRange(vehicle.Segments, req.StartStation, req.EndStation)
	if err != nil {
		return model.Itinerary{}, err
	}
	distance, err := routing.Distance(vehicle.Stops, req.StartStation, req.EndStation)
	if err != nil {
		return model.Itinerary{}, err
	}

	perSeat := s.fare.PerSeat(distance)
	return model.Itinerary{
		StartStation:  refs[0].From,
		EndStation:    refs[len(refs)-1].To,
		Seats:         req.Seats,
		Segments:      refs,
		RouteRevision: vehicle.RouteRevision,
		Distance:      distance,
		Fare:          perSeat,
		Price:         fare.Total(perSeat, req.Seats),
		Passenger:     req.Passenger,
	}, nil
}

// lockScope holds the vehicle's gate shared, then the scope lock. A route
// change waits for both to be released before it counts bookings.
func (s *allocationService) lockScope(ctx context.Context, scope model.Scope) (lock.Release, error) {
	leave, err := s.gate.Shared(ctx, scope.VehicleID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.locker.Lock(ctx, scope.Key())
	if err != nil {
		leave()
		return nil, err
	}
	return func() {
		unlock()
		leave()
	}, nil
}

// checkRevision re-reads the vehicle inside the transaction so an operation
// that loaded it before a regeneration committed is rolled back.
func (s *allocationService) checkRevision(ctx context.Context, vehicle *model.Vehicle) error {
	current, err := s.vehicles.FindByID(ctx, vehicle.ID)
	if err != nil {
		return err
	}
	if current.RouteRevision != vehicle.RouteRevision {
		return fmt.Errorf("%w: revision %d is now %d", errRouteChanged, vehicle.RouteRevision, current.RouteRevision)
	}
	return nil
}

// ────────────────────────────────────────────────────────────────
// Cancellation
// ────────────────────────────────────────────────────────────────

func (s *allocationService) CancelBooking(ctx context.Context, requesterID, bookingID string) (*model.CancellationOutcome, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, toAppError(err)
	}
	return s.cancelBooking(ctx, requesterID, booking)
}

func (s *allocationService) cancelBooking(ctx context.Context, requesterID string, booking *model.Booking) (*model.CancellationOutcome, error) {
	if booking.RequesterID != requesterID {
		return nil, toAppError(bookingserrors.ErrNotOwner)
	}
	if booking.Status == model.BookingCancelled {
		return nil, toAppError(bookingserrors.ErrAlreadyCancelled)
	}

	vehicle, err := s.vehicles.FindByID(ctx, booking.VehicleID)
	if err != nil {
		return nil, toAppError(err)
	}

	scope := booking.Scope()
	release, err := s.lockScope(ctx, scope)
	if err != nil {
		return nil, toAppError(err)
	}
	defer release()

	var (
		cancelled *model.Booking
		run       *promotion.Run
	)
	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkRevision(ctx, vehicle); err != nil {
			return err
		}

		var err error
		cancelled, err = s.bookings.Cancel(ctx, booking.ID, requesterID)
		if err != nil {
			return err
		}

		// The seats of a booking made before the last regeneration were
		// dropped with the old inventory, there is nothing to restore.
		if cancelled.RouteRevision != vehicle.RouteRevision {
			s.cfg.Log.WithScope(scope.VehicleID, scope.TravelDate).Info("Cancelled booking predates the current route, skipping restore",
				"id", cancelled.ID,
				"booking_revision", cancelled.RouteRevision,
				"route_revision", vehicle.RouteRevision,
			)
			return nil
		}

		run, err = s.engine.Run(ctx, vehicle, cancelled)
		return err
	})
	if err != nil {
		s.logFailure("Booking cancellation failed", scope, requesterID, err)
		return nil, toAppError(err)
	}

	outcome := &model.CancellationOutcome{
		CancelledID: cancelled.ID,
		Kind:        model.KindBooking,
		Promotions:  []model.Promotion{},
	}
	published := []events.Event{events.NewBookingEvent(events.BookingCancelled, cancelled)}
	if run != nil {
		outcome.Promotions = run.Promotions
		published = append(published, promotionEvents(scope, run)...)
	}
	s.publisher.Publish(ctx, published...)
	return outcome, nil
}

func (s *allocationService) CancelWaitlistEntry(ctx context.Context, requesterID, entryID string) (*model.CancellationOutcome, error) {
	entry, err := s.waitlist.GetByID(ctx, entryID)
	if err != nil {
		return nil, toAppError(err)
	}
	return s.cancelWaitlistEntry(ctx, requesterID, entry)
}

// cancelWaitlistEntry removes an entry and, when it was the head, gives the
// new head a chance: it may fit where the old one did not.
func (s *allocationService) cancelWaitlistEntry(ctx context.Context, requesterID string, entry *model.WaitlistEntry) (*model.CancellationOutcome, error) {
	if entry.RequesterID != requesterID {
		return nil, toAppError(waitlisterrors.ErrNotOwner)
	}

	vehicle, err := s.vehicles.FindByID(ctx, entry.VehicleID)
	if err != nil {
		return nil, toAppError(err)
	}

	scope := entry.Scope()
	release, err := s.lockScope(ctx, scope)
	if err != nil {
		return nil, toAppError(err)
	}
	defer release()

	var (
		removed *model.WaitlistEntry
		run     *promotion.Run
	)
	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.waitlist.Cancel(ctx, entry.ID, requesterID)
		if err != nil {
			return err
		}
		if removed.Position != 1 {
			return nil
		}
		if err := s.checkRevision(ctx, vehicle); err != nil {
			return err
		}
		run, err = s.engine.Promote(ctx, vehicle, scope)
		return err
	})
	if err != nil {
		s.logFailure("Waitlist cancellation failed", scope, requesterID, err)
		return nil, toAppError(err)
	}

	outcome := &model.CancellationOutcome{
		CancelledID: removed.ID,
		Kind:        model.KindWaitlistEntry,
		Promotions:  []model.Promotion{},
	}
	published := []events.Event{events.NewWaitlistEvent(events.WaitlistRemoved, removed)}
	if run != nil {
		outcome.Promotions = run.Promotions
		published = append(published, promotionEvents(scope, run)...)
	}
	s.publisher.Publish(ctx, published...)
	return outcome, nil
}

// Cancel resolves id as a booking first, then as a waitlist entry.
func (s *allocationService) Cancel(ctx context.Context, requesterID, id string) (*model.CancellationOutcome, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err == nil {
		return s.cancelBooking(ctx, requesterID, booking)
	}
	if !errors.Is(err, bookingserrors.ErrNotFound) {
		return nil, toAppError(err)
	}

	entry, err := s.waitlist.GetByID(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return s.cancelWaitlistEntry(ctx, requesterID, entry)
}

func promotionEvents(scope model.Scope, run *promotion.Run) []events.Event {
	out := make([]events.Event, 0, len(run.Dropped)+2*len(run.Promotions))
	for _, dropped := range run.Dropped {
		out = append(out, events.NewWaitlistEvent(events.WaitlistRemoved, dropped))
	}
	for i, p := range run.Promotions {
		out = append(out,
			events.NewPromotionEvent(scope, p),
			events.NewBookingEvent(events.BookingConfirmed, run.Bookings[i]),
		)
	}
	return out
}

// ────────────────────────────────────────────────────────────────
// Reads
// ────────────────────────────────────────────────────────────────

func (s *allocationService) GetBooking(ctx context.Context, requesterID, bookingID string) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, toAppError(err)
	}
	if booking.RequesterID != requesterID {
		return nil, toAppError(bookingserrors.ErrNotOwner)
	}
	return booking, nil
}

func (s *allocationService) ListBookings(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	bookings, total, err := s.bookings.ListByRequester(ctx, requesterID, limit, offset)
	if err != nil {
		return nil, 0, toAppError(err)
	}
	return bookings, total, nil
}

func (s *allocationService) ListWaitlistEntries(ctx context.Context, requesterID string) ([]*model.WaitlistEntry, error) {
	entries, err := s.waitlist.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, toAppError(err)
	}
	return entries, nil
}

func (s *allocationService) Waitlist(ctx context.Context, scope model.Scope) ([]*model.WaitlistEntry, error) {
	entries, err := s.waitlist.List(ctx, scope)
	if err != nil {
		return nil, toAppError(err)
	}
	return entries, nil
}

// Inventory reports seats for a scope. The vehicle lookup and the stored
// inventory are read in parallel; a scope nobody has booked yet is shown
// from the vehicle's template without materializing it.
func (s *allocationService) Inventory(ctx context.Context, scope model.Scope) (*model.Inventory, error) {
	var (
		vehicle *model.Vehicle
		stored  *model.Inventory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vehicle, err = s.vehicles.FindByID(gctx, scope.VehicleID)
		return err
	})
	g.Go(func() error {
		var err error
		stored, err = s.inventory.Find(gctx, scope)
		if errors.Is(err, inventoryerrors.ErrNotFound) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, toAppError(err)
	}

	if stored != nil && stored.RouteRevision == vehicle.RouteRevision {
		return stored, nil
	}
	return &model.Inventory{
		ID:            scope.Key(),
		VehicleID:     vehicle.ID,
		TravelDate:    scope.TravelDate,
		RouteRevision: vehicle.RouteRevision,
		Capacity:      vehicle.Capacity,
		Segments:      routing.BuildSegments(vehicle.Stops, vehicle.Capacity),
	}, nil
}

func (s *allocationService) logFailure(msg string, scope model.Scope, requesterID string, err error) {
	log := s.cfg.Log.WithScope(scope.VehicleID, scope.TravelDate)
	if isExpected(err) {
		log.Warn(msg, "requester_id", requesterID, "error", err)
		return
	}
	log.Error(msg, "requester_id", requesterID, "error", err)
}

func isExpected(err error) bool {
	return errors.Is(err, bookingserrors.ErrAlreadyCancelled) ||
		errors.Is(err, bookingserrors.ErrNotOwner) ||
		errors.Is(err, waitlisterrors.ErrNotOwner) ||
		errors.Is(err, waitlisterrors.ErrNotFound) ||
		errors.Is(err, lock.ErrNotAcquired) ||
		errors.Is(err, errRouteChanged) ||
		errors.Is(err, inventoryerrors.ErrVersionConflict)
}
