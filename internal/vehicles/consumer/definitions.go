package consumer

import (
	"context"
	"errors"
	"railbook/internal/vehicles/service"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/kafka"
	kafka_config "railbook/pkg/kafka/config"
	kafka_middleware "railbook/pkg/kafka/middleware"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"strings"
)

// DefinitionHandler applies vehicle definitions arriving on the definitions
// topic. Rejections that a retry cannot fix are returned as permanent so the
// consumer routes them to the DLQ.
type DefinitionHandler struct {
	service service.VehicleService
	log     *logger.Logger
}

func NewDefinitionHandler(service service.VehicleService, log *logger.Logger) *DefinitionHandler {
	return &DefinitionHandler{service: service, log: log}
}

// NewDefinitionConsumer subscribes h to the definitions topic. Messages the
// handler rejects for good are parked on the definitions DLQ.
func NewDefinitionConsumer(cfg *kafka_config.Config, h *DefinitionHandler, log *logger.Logger) (*kafka.Consumer, error) {
	c, err := kafka.NewConsumer(
		cfg,
		cfg.VehicleDefinitionsTopic,
		cfg.ConsumerGroupID,
		cfg.VehicleDefinitionsDLQ,
		h.Handle,
		log,
	)
	if err != nil {
		return nil, err
	}
	if cfg.EnableMiddleware {
		c.Use(kafka_middleware.LoggingConsumerMiddleware(log))
	}
	return c, nil
}

func (h *DefinitionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.VehicleDefinitionEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("malformed vehicle definition", err)
	}

	id := strings.TrimSpace(event.VehicleID)
	if id == "" {
		id = strings.TrimSpace(msg.Key)
	}

	result, err := h.service.Define(ctx, id, &event.Definition)
	if err != nil {
		return classify(err)
	}

	h.log.Info("Vehicle definition applied from topic",
		"vehicle_id", id,
		"offset", msg.Offset,
		"created", result.Created,
		"regenerated", result.Regenerated,
	)
	return nil
}

func classify(err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return kafka.NewTransientError("vehicle definition failed", err)
	}
	switch {
	case appErr.Retryable(), appErr.Code == apperrors.CodeTimeout, appErr.Code == apperrors.CodeInternal:
		return kafka.NewTransientError(appErr.Message, err)
	default:
		return kafka.NewPermanentError(appErr.Message, err)
	}
}
