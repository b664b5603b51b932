package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"railbook/internal/routing"
	"railbook/internal/vehicles/service"
	"railbook/pkg/client"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"testing"

	"github.com/julienschmidt/httprouter"
)

const secret = "webhook-secret"

type mockVehicleService struct {
	DefineFunc  func(ctx context.Context, id string, def *model.VehicleDefinition) (*service.DefineResult, error)
	GetByIDFunc func(ctx context.Context, id string) (*model.Vehicle, error)
}

func (m *mockVehicleService) Define(ctx context.Context, id string, def *model.VehicleDefinition) (*service.DefineResult, error) {
	return m.DefineFunc(ctx, id, def)
}

func (m *mockVehicleService) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	return m.GetByIDFunc(ctx, id)
}

func newServer(t *testing.T, svc service.VehicleService) *httptest.Server {
	t.Helper()
	router := httprouter.New()
	NewVehicleHandler(svc, secret, logger.Discard()).RegisterRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func definition() *model.VehicleDefinition {
	return &model.VehicleDefinition{
		Number:        "12951",
		Name:          "Rajdhani Express",
		Source:        "Mumbai",
		Destination:   "Delhi",
		DepartureTime: "17:00",
		ArrivalTime:   "08:30",
		Capacity:      72,
	}
}

// ────────────────────────────────────────────────────────────────
// PUT /api/v1/vehicles/id/:id
// ────────────────────────────────────────────────────────────────

func TestDefine_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		result     *service.DefineResult
		err        error
		wantStatus int
	}{
		{"created", &service.DefineResult{Vehicle: &model.Vehicle{ID: "12951"}, Created: true}, nil, http.StatusCreated},
		{"updated", &service.DefineResult{Vehicle: &model.Vehicle{ID: "12951"}, Regenerated: true}, nil, http.StatusOK},
		{"invalid stops", nil, apperrors.InvalidRoute("bad km", routing.ErrInvalidStops), http.StatusBadRequest},
		{"regeneration refused", nil, apperrors.Conflict("upcoming bookings"), http.StatusConflict},
		{"validation", nil, apperrors.Validation("bad", nil), http.StatusUnprocessableEntity},
		{"unexpected", nil, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			svc := &mockVehicleService{
				DefineFunc: func(_ context.Context, id string, def *model.VehicleDefinition) (*service.DefineResult, error) {
					gotID = id
					if def.Capacity != 72 {
						t.Errorf("capacity = %d", def.Capacity)
					}
					return tt.result, tt.err
				},
			}
			server := newServer(t, svc)

			resp, err := client.NewVehicleClient(server.URL, secret).Define(context.Background(), "12951", definition())
			if err != nil {
				t.Fatalf("Define() error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.wantStatus, resp.ToString())
			}
			if gotID != "12951" {
				t.Errorf("id = %q", gotID)
			}
		})
	}
}

func TestDefine_RejectsBadSignature(t *testing.T) {
	called := false
	svc := &mockVehicleService{
		DefineFunc: func(context.Context, string, *model.VehicleDefinition) (*service.DefineResult, error) {
			called = true
			return nil, nil
		},
	}
	server := newServer(t, svc)

	resp, err := client.NewVehicleClient(server.URL, "wrong").Define(context.Background(), "12951", definition())
	if err != nil {
		t.Fatalf("Define() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if called {
		t.Error("service must not run for an unsigned request")
	}
}

// ────────────────────────────────────────────────────────────────
// GET /api/v1/vehicles/id/:id
// ────────────────────────────────────────────────────────────────

func TestGetByID(t *testing.T) {
	svc := &mockVehicleService{
		GetByIDFunc: func(_ context.Context, id string) (*model.Vehicle, error) {
			if id == "12951" {
				return &model.Vehicle{ID: id, RouteRevision: 3}, nil
			}
			return nil, apperrors.NotFoundWithID("Vehicle", id)
		},
	}
	server := newServer(t, svc)
	c := client.NewHttpClient(server.URL)

	resp, err := c.GET(context.Background(), "/api/v1/vehicles/id/12951")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Data model.Vehicle `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		t.Fatal(err)
	}
	if body.Data.RouteRevision != 3 {
		t.Errorf("revision = %d", body.Data.RouteRevision)
	}

	resp, err = c.GET(context.Background(), "/api/v1/vehicles/id/nope")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
