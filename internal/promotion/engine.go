// Package promotion moves waitlisted requests into confirmed bookings when a
// cancellation frees capacity.
package promotion

import (
	"context"
	"fmt"
	"railbook/pkg/logger"
	"railbook/pkg/model"
)

type State string

const (
	StateCancelled          State = "cancelled"
	StateInventoryRestored  State = "inventory_restored"
	StatePromotionAttempted State = "promotion_attempted"
	StateRenumbered         State = "renumbered"
)

// Step is one named unit of the workflow. A successful Execute moves the run
// into Target.
type Step struct {
	Name    string
	Target  State
	Execute func(ctx context.Context, run *Run) error
}

func NewStep(name string, target State, execute func(ctx context.Context, run *Run) error) Step {
	return Step{Name: name, Target: target, Execute: execute}
}

// Run carries the workflow state between steps.
type Run struct {
	Vehicle   *model.Vehicle
	Scope     model.Scope
	Cancelled *model.Booking
	State     State

	Promotions []model.Promotion
	Bookings   []*model.Booking
	Removed    []*model.WaitlistEntry
	// Dropped are entries whose stations the current route no longer serves.
	Dropped []*model.WaitlistEntry

	candidate *model.WaitlistEntry
}

func newRun(vehicle *model.Vehicle, scope model.Scope, cancelled *model.Booking) *Run {
	return &Run{
		Vehicle:    vehicle,
		Scope:      scope,
		Cancelled:  cancelled,
		State:      StateCancelled,
		Promotions: []model.Promotion{},
	}
}

func (e *Engine) execute(ctx context.Context, run *Run, step Step) error {
	if err := step.Execute(ctx, run); err != nil {
		return fmt.Errorf("%s step failed: %w", step.Name, err)
	}
	e.log(run).Debug("Promotion state transition",
		"step", step.Name,
		"from", run.State,
		"to", step.Target,
	)
	run.State = step.Target
	return nil
}

func (e *Engine) log(run *Run) *logger.Logger {
	return e.cfg.Log.WithScope(run.Scope.VehicleID, run.Scope.TravelDate)
}
