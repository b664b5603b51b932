package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"railbook/internal/vehicles/service"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/kafka"
	kafka_config "railbook/pkg/kafka/config"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"testing"
)

type mockVehicleService struct {
	DefineFunc func(ctx context.Context, id string, def *model.VehicleDefinition) (*service.DefineResult, error)
}

func (m *mockVehicleService) Define(ctx context.Context, id string, def *model.VehicleDefinition) (*service.DefineResult, error) {
	return m.DefineFunc(ctx, id, def)
}

func (m *mockVehicleService) GetByID(context.Context, string) (*model.Vehicle, error) {
	return nil, errors.New("not used")
}

func message(t *testing.T, key string, event model.VehicleDefinitionEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Key: key, Value: value}
}

func TestHandle_AppliesDefinition(t *testing.T) {
	var gotID string
	svc := &mockVehicleService{
		DefineFunc: func(_ context.Context, id string, def *model.VehicleDefinition) (*service.DefineResult, error) {
			gotID = id
			return &service.DefineResult{Vehicle: &model.Vehicle{ID: id}, Created: true}, nil
		},
	}
	h := NewDefinitionHandler(svc, logger.Discard())

	msg := message(t, "ignored", model.VehicleDefinitionEvent{VehicleID: " 12951 ", Definition: model.VehicleDefinition{Capacity: 72}})
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if gotID != "12951" {
		t.Errorf("id = %q", gotID)
	}
}

func TestHandle_FallsBackToMessageKey(t *testing.T) {
	var gotID string
	svc := &mockVehicleService{
		DefineFunc: func(_ context.Context, id string, _ *model.VehicleDefinition) (*service.DefineResult, error) {
			gotID = id
			return &service.DefineResult{Vehicle: &model.Vehicle{ID: id}}, nil
		},
	}
	h := NewDefinitionHandler(svc, logger.Discard())

	if err := h.Handle(context.Background(), message(t, "12952", model.VehicleDefinitionEvent{})); err != nil {
		t.Fatal(err)
	}
	if gotID != "12952" {
		t.Errorf("id = %q, want key", gotID)
	}
}

func TestHandle_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantRetry bool
	}{
		{"validation", apperrors.Validation("bad", nil), false},
		{"invalid stops", apperrors.InvalidRoute("km", errors.New("km")), false},
		{"regeneration refused", apperrors.Conflict("upcoming bookings"), false},
		{"lock busy", apperrors.StorageConflict(errors.New("busy")), true},
		{"timeout", apperrors.Timeout("slow"), true},
		{"storage down", apperrors.Internal("db", errors.New("down")), true},
		{"plain error", errors.New("unknown"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockVehicleService{
				DefineFunc: func(context.Context, string, *model.VehicleDefinition) (*service.DefineResult, error) {
					return nil, tt.err
				},
			}
			h := NewDefinitionHandler(svc, logger.Discard())

			err := h.Handle(context.Background(), message(t, "12951", model.VehicleDefinitionEvent{VehicleID: "12951"}))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := kafka.ClassifyError(err) == kafka.ErrorTypeTransient; got != tt.wantRetry {
				t.Errorf("transient = %v, want %v", got, tt.wantRetry)
			}
		})
	}
}

func TestHandle_UndecodablePayloadIsPermanent(t *testing.T) {
	h := NewDefinitionHandler(&mockVehicleService{}, logger.Discard())

	err := h.Handle(context.Background(), kafka.Message{Key: "12951", Value: []byte("{not json")})
	if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Errorf("err = %v, want permanent", err)
	}
}

func TestNewDefinitionConsumer_RequiresBrokers(t *testing.T) {
	h := NewDefinitionHandler(&mockVehicleService{}, logger.Discard())
	cfg := &kafka_config.Config{
		VehicleDefinitionsTopic: "vehicle-definitions",
		ConsumerGroupID:         "railbook-vehicle-sync",
	}

	if _, err := NewDefinitionConsumer(cfg, h, logger.Discard()); err == nil {
		t.Fatal("expected an error without brokers")
	}
}
