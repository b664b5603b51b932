package handler

import (
	"context"
	"net/http"
	"railbook/internal/allocation/service"
	apperrors "railbook/pkg/errors"
	httputil "railbook/pkg/http"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"strings"

	"github.com/julienschmidt/httprouter"
)

type AllocationHandler struct {
	service service.AllocationService
	log     *logger.Logger
}

func NewAllocationHandler(service service.AllocationService, log *logger.Logger) *AllocationHandler {
	return &AllocationHandler{
		service: service,
		log:     log,
	}
}

type cancellationRequest struct {
	ID string `json:"id"`
}

func (h *AllocationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// Book answers 201 for a confirmed booking and 202 for a waitlist admission.
func (h *AllocationHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "Book", err)
		return
	}

	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Book", err)
		return
	}
	req.RequesterID = requester

	outcome, err := h.service.Book(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if outcome.Status == model.OutcomeWaitlisted {
		if err := httputil.WriteAccepted(w, outcome); err != nil {
			h.log.Error("failed to write accepted response", "handler", "Book", "operation", "WriteAccepted", "error", err)
		}
		return
	}
	if err := httputil.WriteCreated(w, outcome); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *AllocationHandler) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "GetBooking", err)
		return
	}

	booking, err := h.service.GetBooking(r.Context(), requester, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetBooking", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBooking", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AllocationHandler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}

	bookings, total, err := h.service.ListBookings(r.Context(), requester, limit, offset)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListBookings", "operation", "WritePaginated", "error", err)
	}
}

func (h *AllocationHandler) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.cancel(w, r, "CancelBooking", ps.ByName("id"), h.service.CancelBooking)
}

func (h *AllocationHandler) CancelWaitlistEntry(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.cancel(w, r, "CancelWaitlistEntry", ps.ByName("id"), h.service.CancelWaitlistEntry)
}

// Cancel takes {"id": ...} naming either a booking or a waitlist entry.
func (h *AllocationHandler) Cancel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req cancellationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		h.writeError(w, "Cancel", apperrors.Validation("Cancellation request validation failed", map[string]any{
			"fields": map[string]any{"id": "id is required"},
		}))
		return
	}
	h.cancel(w, r, "Cancel", id, h.service.Cancel)
}

type cancelFunc func(ctx context.Context, requesterID, id string) (*model.CancellationOutcome, error)

func (h *AllocationHandler) cancel(w http.ResponseWriter, r *http.Request, handler, id string, fn cancelFunc) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	outcome, err := fn(r.Context(), requester, id)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	if err := httputil.WriteSuccess(w, outcome); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

// Waitlist lists one scope's queue in position order, or the requester's
// own entries when no scope is given. In a scope listing only the caller's
// own entries keep their identity and passenger details.
func (h *AllocationHandler) Waitlist(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if r.URL.Query().Get("vehicle_id") == "" && r.URL.Query().Get("travel_date") == "" {
		requester, err := httputil.ExtractRequester(r)
		if err != nil {
			h.writeError(w, "Waitlist", err)
			return
		}
		entries, err := h.service.ListWaitlistEntries(r.Context(), requester)
		if err != nil {
			h.writeError(w, "Waitlist", err)
			return
		}
		if err := httputil.WriteSuccess(w, entries); err != nil {
			h.log.Error("failed to write success response", "handler", "Waitlist", "operation", "WriteSuccess", "error", err)
		}
		return
	}

	scope, err := httputil.ExtractScope(r)
	if err != nil {
		h.writeError(w, "Waitlist", err)
		return
	}

	entries, err := h.service.Waitlist(r.Context(), scope)
	if err != nil {
		h.writeError(w, "Waitlist", err)
		return
	}
	caller := strings.TrimSpace(r.Header.Get(httputil.RequesterHeader))
	for i, e := range entries {
		if caller == "" || e.RequesterID != caller {
			entries[i] = e.Redacted()
		}
	}

	if err := httputil.WriteSuccess(w, entries); err != nil {
		h.log.Error("failed to write success response", "handler", "Waitlist", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AllocationHandler) Inventory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scope, err := httputil.ExtractScope(r)
	if err != nil {
		h.writeError(w, "Inventory", err)
		return
	}

	inv, err := h.service.Inventory(r.Context(), scope)
	if err != nil {
		h.writeError(w, "Inventory", err)
		return
	}

	if err := httputil.WriteSuccess(w, inv); err != nil {
		h.log.Error("failed to write success response", "handler", "Inventory", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AllocationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Book)
	router.GET("/api/v1/bookings", h.ListBookings)
	router.GET("/api/v1/bookings/id/:id", h.GetBooking)
	router.POST("/api/v1/bookings/id/:id/cancel", h.CancelBooking)
	router.POST("/api/v1/waitlist/id/:id/cancel", h.CancelWaitlistEntry)
	router.GET("/api/v1/waitlist", h.Waitlist)
	router.POST("/api/v1/cancellations", h.Cancel)
	router.GET("/api/v1/inventory", h.Inventory)
}
