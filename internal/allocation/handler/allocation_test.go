package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"railbook/internal/allocation/service"
	bookingrepository "railbook/internal/bookings/repository"
	bookingservice "railbook/internal/bookings/service"
	"railbook/internal/bookings/validator"
	inventoryrepository "railbook/internal/inventory/repository"
	inventoryservice "railbook/internal/inventory/service"
	"railbook/internal/routing"
	vehiclerepository "railbook/internal/vehicles/repository"
	waitlistrepository "railbook/internal/waitlist/repository"
	waitlistservice "railbook/internal/waitlist/service"
	"railbook/pkg/client"
	"railbook/pkg/config"
	"railbook/pkg/db/memory"
	"railbook/pkg/events"
	"railbook/pkg/lock"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

const travelDate = "2099-03-01"

var scope = model.NewScope("12951", travelDate)

// newServer wires the handler to a real service over in-memory storage with
// a one-seat vehicle X(0) -> Y(10) -> Z(25).
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{Log: logger.Discard(), FareRatePerUnit: 2, MaxSeatsPerBooking: 6}

	stops := []model.Stop{
		{Station: "X", Km: 0},
		{Station: "Y", Km: 10},
		{Station: "Z", Km: 25},
	}
	vehicles := vehiclerepository.NewMemoryVehicleRepository()
	if err := vehicles.Save(context.Background(), &model.Vehicle{
		ID:            "12951",
		Capacity:      1,
		Stops:         stops,
		Segments:      routing.BuildSegments(stops, 1),
		RouteRevision: 1,
	}); err != nil {
		t.Fatal(err)
	}

	svc := service.NewAllocationService(
		vehicles,
		inventoryservice.NewInventoryService(inventoryrepository.NewMemoryInventoryRepository(), cfg),
		bookingservice.NewBookingService(bookingrepository.NewMemoryBookingRepository(), cfg),
		waitlistservice.NewWaitlistService(waitlistrepository.NewMemoryWaitlistRepository(), cfg),
		memory.NewTransactionManager(),
		lock.NewKeyedLocker(time.Second),
		lock.NewKeyedGate(time.Second),
		events.NewNoopPublisher(),
		validator.NewBookingValidator(cfg.Log, cfg.MaxSeatsPerBooking),
		cfg,
	)

	router := httprouter.New()
	NewAllocationHandler(svc, cfg.Log).RegisterRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func request(start, end string) *model.BookingRequest {
	return &model.BookingRequest{
		VehicleID:    scope.VehicleID,
		StartStation: start,
		EndStation:   end,
		Seats:        1,
		TravelDate:   travelDate,
		Passenger:    model.Passenger{Name: "Asha Rao", Phone: "+919820012345"},
	}
}

func expectStatus(t *testing.T, resp *client.Response, err error, want int) {
	t.Helper()
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, want, resp.ToString())
	}
}

// ────────────────────────────────────────────────────────────────
// Booking intake
// ────────────────────────────────────────────────────────────────

func TestBook_StatusCodes(t *testing.T) {
	server := newServer(t)
	ctx := context.Background()
	alice := client.NewBookingClient(server.URL, "alice")
	bob := client.NewBookingClient(server.URL, "bob")

	resp, err := alice.Book(ctx, request("X", "Z"))
	expectStatus(t, resp, err, http.StatusCreated)
	confirmed, err := alice.DecodeOutcome(resp)
	if err != nil {
		t.Fatal(err)
	}
	if confirmed.Status != model.OutcomeConfirmed || confirmed.BookingID == "" || confirmed.Price != 50 {
		t.Errorf("outcome = %+v", confirmed)
	}

	resp, err = bob.Book(ctx, request("X", "Y"))
	expectStatus(t, resp, err, http.StatusAccepted)
	waitlisted, err := bob.DecodeOutcome(resp)
	if err != nil {
		t.Fatal(err)
	}
	if waitlisted.Status != model.OutcomeWaitlisted || waitlisted.Position != 1 || waitlisted.EntryID == "" {
		t.Errorf("outcome = %+v", waitlisted)
	}

	resp, err = alice.Book(ctx, request("Z", "X"))
	expectStatus(t, resp, err, http.StatusBadRequest)

	bad := request("X", "Z")
	bad.Seats = 0
	resp, err = alice.Book(ctx, bad)
	expectStatus(t, resp, err, http.StatusUnprocessableEntity)

	resp, err = client.NewBookingClient(server.URL, "").Book(ctx, request("X", "Z"))
	expectStatus(t, resp, err, http.StatusUnauthorized)
}

func TestBook_RejectsUnknownFields(t *testing.T) {
	server := newServer(t)
	c := client.NewHttpClient(server.URL)
	c.Headers[client.RequesterHeader] = "alice"

	resp, err := c.POST(context.Background(), "/api/v1/bookings", map[string]any{"vehicle_id": "12951", "upgrade": true})
	expectStatus(t, resp, err, http.StatusBadRequest)
}

// ────────────────────────────────────────────────────────────────
// Cancellation intake
// ────────────────────────────────────────────────────────────────

func TestCancel_PromotesAndReports(t *testing.T) {
	server := newServer(t)
	ctx := context.Background()
	alice := client.NewBookingClient(server.URL, "alice")
	bob := client.NewBookingClient(server.URL, "bob")

	resp, _ := alice.Book(ctx, request("X", "Z"))
	booking, err := alice.DecodeOutcome(resp)
	if err != nil {
		t.Fatal(err)
	}
	resp, _ = bob.Book(ctx, request("X", "Y"))
	entry, err := bob.DecodeOutcome(resp)
	if err != nil {
		t.Fatal(err)
	}

	resp, err = bob.CancelBooking(ctx, booking.BookingID)
	expectStatus(t, resp, err, http.StatusForbidden)

	resp, err = alice.CancelBooking(ctx, booking.BookingID)
	expectStatus(t, resp, err, http.StatusOK)
	outcome, err := alice.DecodeCancellation(resp)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != model.KindBooking || !outcome.Promoted() || outcome.Promotions[0].EntryID != entry.EntryID {
		t.Errorf("outcome = %+v", outcome)
	}

	resp, err = alice.CancelBooking(ctx, booking.BookingID)
	expectStatus(t, resp, err, http.StatusConflict)

	resp, err = bob.GetBooking(ctx, outcome.Promotions[0].BookingID)
	expectStatus(t, resp, err, http.StatusOK)
}

func TestCancel_GenericResolvesWaitlistEntry(t *testing.T) {
	server := newServer(t)
	ctx := context.Background()
	alice := client.NewBookingClient(server.URL, "alice")
	bob := client.NewBookingClient(server.URL, "bob")

	alice.Book(ctx, request("X", "Z"))
	resp, _ := bob.Book(ctx, request("X", "Z"))
	entry, err := bob.DecodeOutcome(resp)
	if err != nil {
		t.Fatal(err)
	}

	resp, err = bob.Cancel(ctx, entry.EntryID)
	expectStatus(t, resp, err, http.StatusOK)
	outcome, err := bob.DecodeCancellation(resp)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != model.KindWaitlistEntry || outcome.CancelledID != entry.EntryID {
		t.Errorf("outcome = %+v", outcome)
	}

	resp, err = bob.Cancel(ctx, entry.EntryID)
	expectStatus(t, resp, err, http.StatusNotFound)

	resp, err = bob.Cancel(ctx, "")
	expectStatus(t, resp, err, http.StatusUnprocessableEntity)
}

// ────────────────────────────────────────────────────────────────
// Reads
// ────────────────────────────────────────────────────────────────

func TestReads(t *testing.T) {
	server := newServer(t)
	ctx := context.Background()
	alice := client.NewBookingClient(server.URL, "alice")
	bob := client.NewBookingClient(server.URL, "bob")

	alice.Book(ctx, request("X", "Y"))
	bob.Book(ctx, request("X", "Z"))

	resp, err := alice.Inventory(ctx, scope)
	expectStatus(t, resp, err, http.StatusOK)
	var inv struct {
		Data model.Inventory `json:"data"`
	}
	if err := resp.DecodeJSON(&inv); err != nil {
		t.Fatal(err)
	}
	if inv.Data.Segments[0].SeatsAvailable != 0 || inv.Data.Segments[1].SeatsAvailable != 1 {
		t.Errorf("segments = %+v", inv.Data.Segments)
	}

	resp, err = alice.Waitlist(ctx, scope)
	expectStatus(t, resp, err, http.StatusOK)
	var queue struct {
		Data []model.WaitlistEntry `json:"data"`
	}
	if err := resp.DecodeJSON(&queue); err != nil {
		t.Fatal(err)
	}
	if len(queue.Data) != 1 || queue.Data[0].Position != 1 || queue.Data[0].EndStation != "Z" {
		t.Errorf("queue = %+v", queue.Data)
	}

	resp, err = alice.ListBookings(ctx, 10, 0)
	expectStatus(t, resp, err, http.StatusOK)
	var page struct {
		Data       []model.Booking `json:"data"`
		TotalCount int64           `json:"total_count"`
	}
	if err := resp.DecodeJSON(&page); err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 1 || len(page.Data) != 1 {
		t.Errorf("page = %+v", page)
	}

	resp, err = alice.Inventory(ctx, model.NewScope("12951", "03/01/2099"))
	expectStatus(t, resp, err, http.StatusBadRequest)
}

func TestWaitlist_HidesOtherRequesters(t *testing.T) {
	server := newServer(t)
	ctx := context.Background()
	alice := client.NewBookingClient(server.URL, "alice")
	bob := client.NewBookingClient(server.URL, "bob")
	carol := client.NewBookingClient(server.URL, "carol")

	alice.Book(ctx, request("X", "Z"))
	queued := request("X", "Z")
	queued.Passenger = model.Passenger{Name: "Bina Shah", Phone: "+919820054321", Email: "bina@example.com", DocumentID: "P1234567"}
	bob.Book(ctx, queued)
	carol.Book(ctx, request("X", "Y"))

	resp, err := bob.Waitlist(ctx, scope)
	expectStatus(t, resp, err, http.StatusOK)
	var queue struct {
		Data []model.WaitlistEntry `json:"data"`
	}
	if err := resp.DecodeJSON(&queue); err != nil {
		t.Fatal(err)
	}
	if len(queue.Data) != 2 {
		t.Fatalf("queue = %+v", queue.Data)
	}

	own, other := queue.Data[0], queue.Data[1]
	if own.RequesterID != "bob" || own.ID == "" || own.Passenger.DocumentID != "P1234567" {
		t.Errorf("own entry = %+v", own)
	}
	if other.Position != 2 || other.EndStation != "Y" || other.Seats != 1 {
		t.Errorf("other entry lost its place: %+v", other)
	}
	if other.ID != "" || other.RequesterID != "" || other.Passenger != (model.Passenger{}) {
		t.Errorf("other entry leaks identity: %+v", other)
	}

	resp, err = alice.Waitlist(ctx, scope)
	expectStatus(t, resp, err, http.StatusOK)
	var seen struct {
		Data []model.WaitlistEntry `json:"data"`
	}
	if err := resp.DecodeJSON(&seen); err != nil {
		t.Fatal(err)
	}
	if len(seen.Data) != 2 {
		t.Fatalf("queue = %+v", seen.Data)
	}
	for _, e := range seen.Data {
		if e.RequesterID != "" || e.Passenger.Phone != "" {
			t.Errorf("entry leaks to alice: %+v", e)
		}
	}
}
