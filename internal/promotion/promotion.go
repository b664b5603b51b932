package promotion

import (
	"context"
	bookingservice "railbook/internal/bookings/service"
	inventoryservice "railbook/internal/inventory/service"
	"railbook/internal/routing"
	waitlistservice "railbook/internal/waitlist/service"
	"railbook/pkg/config"
	"railbook/pkg/fare"
	"railbook/pkg/model"
)

// Engine runs cancel -> restore -> attempt promotion -> renumber. It must be
// called with the scope lock held and inside the same transaction as the
// cancellation, so a failure anywhere undoes all of it.
type Engine struct {
	inventory inventoryservice.InventoryService
	bookings  bookingservice.BookingService
	waitlist  waitlistservice.WaitlistService
	cfg       *config.Config

	restore  Step
	attempt  Step
	renumber Step
}

func NewEngine(
	inventory inventoryservice.InventoryService,
	bookings bookingservice.BookingService,
	waitlist waitlistservice.WaitlistService,
	cfg *config.Config,
) *Engine {
	e := &Engine{
		inventory: inventory,
		bookings:  bookings,
		waitlist:  waitlist,
		cfg:       cfg,
	}
	e.restore = NewStep("restore_inventory", StateInventoryRestored, e.restoreInventory)
	e.attempt = NewStep("attempt_promotion", StatePromotionAttempted, e.attemptPromotion)
	e.renumber = NewStep("renumber_waitlist", StateRenumbered, e.renumberWaitlist)
	return e
}

// Run restores the cancelled booking's seats and promotes as many waitlist
// heads as now fit.
func (e *Engine) Run(ctx context.Context, vehicle *model.Vehicle, cancelled *model.Booking) (*Run, error) {
	run := newRun(vehicle, cancelled.Scope(), cancelled)
	if err := e.execute(ctx, run, e.restore); err != nil {
		return run, err
	}
	return run, e.promote(ctx, run)
}

// Promote retries promotion without a cancellation, used when the head of
// the queue leaves and the next entry may fit where it did not.
func (e *Engine) Promote(ctx context.Context, vehicle *model.Vehicle, scope model.Scope) (*Run, error) {
	run := newRun(vehicle, scope, nil)
	run.State = StateInventoryRestored
	return run, e.promote(ctx, run)
}

func (e *Engine) promote(ctx context.Context, run *Run) error {
	queued, err := e.waitlist.List(ctx, run.Scope)
	if err != nil {
		return err
	}

	for range queued {
		if err := e.execute(ctx, run, e.attempt); err != nil {
			return err
		}
		if run.candidate == nil {
			break
		}
		if err := e.execute(ctx, run, e.renumber); err != nil {
			return err
		}
	}

	if len(run.Promotions) > 0 {
		e.log(run).Info("Waitlist promotion finished",
			"promoted", len(run.Promotions),
			"state", run.State,
		)
	}
	return nil
}

func (e *Engine) restoreInventory(ctx context.Context, run *Run) error {
	b := run.Cancelled
	_, err := e.inventory.Restore(ctx, run.Vehicle, b.TravelDate, b.Segments, b.Seats)
	return err
}

// attemptPromotion re-validates the head against current capacity. A head
// that does not fit stays queued and nobody behind it jumps ahead.
func (e *Engine) attemptPromotion(ctx context.Context, run *Run) error {
	run.candidate = nil

	head, itinerary, err := e.resolveHead(ctx, run)
	if err != nil || head == nil {
		return err
	}

	fits, err := e.inventory.Fits(ctx, run.Vehicle, run.Scope.TravelDate, itinerary.Segments, itinerary.Seats)
	if err != nil {
		return err
	}
	if !fits {
		e.log(run).Info("Waitlist head does not fit, left queued",
			"entry_id", head.ID,
			"seats", itinerary.Seats,
		)
		return nil
	}

	if _, err := e.inventory.CheckAndReserve(ctx, run.Vehicle, run.Scope.TravelDate, itinerary.Segments, itinerary.Seats); err != nil {
		return err
	}

	e.fillFare(run, &itinerary)
	booking, err := e.bookings.Create(ctx, head.RequesterID, run.Scope, itinerary, head.ID)
	if err != nil {
		return err
	}

	run.candidate = head
	run.Bookings = append(run.Bookings, booking)
	run.Promotions = append(run.Promotions, model.Promotion{
		EntryID:     head.ID,
		BookingID:   booking.ID,
		RequesterID: head.RequesterID,
	})
	return nil
}

// resolveHead returns the head with its itinerary on the current route.
// Heads whose stations the route no longer serves can never be promoted, so
// they leave the queue instead of blocking everyone behind them.
func (e *Engine) resolveHead(ctx context.Context, run *Run) (*model.WaitlistEntry, model.Itinerary, error) {
	for {
		head, err := e.waitlist.Head(ctx, run.Scope)
		if err != nil || head == nil {
			return nil, model.Itinerary{}, err
		}

		itinerary := head.Itinerary
		if itinerary.RouteRevision == run.Vehicle.RouteRevision {
			return head, itinerary, nil
		}
		refs, err := routing.ResolveRange(run.Vehicle.Segments, itinerary.StartStation, itinerary.EndStation)
		if err == nil {
			itinerary.Segments = refs
			itinerary.RouteRevision = run.Vehicle.RouteRevision
			return head, itinerary, nil
		}

		dropped, rerr := e.waitlist.Remove(ctx, head.ID)
		if rerr != nil {
			return nil, model.Itinerary{}, rerr
		}
		run.Dropped = append(run.Dropped, dropped)
		e.log(run).Warn("Waitlist head no longer matches the route, removed",
			"entry_id", head.ID,
			"requester_id", head.RequesterID,
			"error", err,
		)
	}
}

func (e *Engine) renumberWaitlist(ctx context.Context, run *Run) error {
	removed, err := e.waitlist.Remove(ctx, run.candidate.ID)
	if err != nil {
		return err
	}
	run.Removed = append(run.Removed, removed)
	run.candidate = nil
	return nil
}

// fillFare copies distance and fare from the cancelled booking when the
// entry was stored without them, then prices the seats.
func (e *Engine) fillFare(run *Run, itinerary *model.Itinerary) {
	if run.Cancelled != nil {
		if itinerary.Distance == 0 {
			itinerary.Distance = run.Cancelled.Distance
		}
		if itinerary.Fare == 0 {
			itinerary.Fare = run.Cancelled.Fare
		}
	}
	itinerary.Price = fare.Total(itinerary.Fare, itinerary.Seats)
}
