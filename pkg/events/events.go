// Package events publishes booking and waitlist changes after they commit.
package events

import (
	"context"
	"railbook/pkg/kafka"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"time"
)

const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	WaitlistAdmitted = "waitlist.admitted"
	WaitlistRemoved  = "waitlist.removed"
	WaitlistPromoted = "waitlist.promoted"

	SchemaVersion = "1"
	Source        = "railbook"
)

type Event struct {
	Type        string               `json:"type"`
	VehicleID   string               `json:"vehicle_id"`
	TravelDate  string               `json:"travel_date"`
	RequesterID string               `json:"requester_id"`
	Booking     *model.Booking       `json:"booking,omitempty"`
	Entry       *model.WaitlistEntry `json:"entry,omitempty"`
	Promotion   *model.Promotion     `json:"promotion,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

func (e Event) Scope() model.Scope {
	return model.NewScope(e.VehicleID, e.TravelDate)
}

func NewBookingEvent(eventType string, b *model.Booking) Event {
	return Event{
		Type:        eventType,
		VehicleID:   b.VehicleID,
		TravelDate:  b.TravelDate,
		RequesterID: b.RequesterID,
		Booking:     b,
		OccurredAt:  time.Now().UTC(),
	}
}

func NewWaitlistEvent(eventType string, e *model.WaitlistEntry) Event {
	return Event{
		Type:        eventType,
		VehicleID:   e.VehicleID,
		TravelDate:  e.TravelDate,
		RequesterID: e.RequesterID,
		Entry:       e,
		OccurredAt:  time.Now().UTC(),
	}
}

func NewPromotionEvent(scope model.Scope, p model.Promotion) Event {
	return Event{
		Type:        WaitlistPromoted,
		VehicleID:   scope.VehicleID,
		TravelDate:  scope.TravelDate,
		RequesterID: p.RequesterID,
		Promotion:   &p,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher delivers events. Failures are the publisher's to log; the state
// change they describe has already committed.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
	Close() error
}

type batchWriter interface {
	PublishBatch(ctx context.Context, messages []kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer batchWriter
	log    *logger.Logger
}

func NewKafkaPublisher(writer batchWriter, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		log:    log,
	}
}

// Publish sends all events in one batch keyed by scope, so consumers see a
// scope's events in commit order.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := kafka.NewMessage().
			WithKey(e.Scope().Key()).
			WithEventType(e.Type).
			WithSchemaVersion(SchemaVersion).
			WithSource(Source).
			WithTimestamp(e.OccurredAt).
			WithValue(e).
			Build()
		if err != nil {
			p.log.Error("Failed to encode event", "type", e.Type, "scope", e.Scope().Key(), "error", err)
			continue
		}
		messages = append(messages, msg)
	}

	if err := p.writer.PublishBatch(context.WithoutCancel(ctx), messages); err != nil {
		p.log.Error("Failed to publish events",
			"count", len(messages),
			"scope", events[0].Scope().Key(),
			"error", err,
		)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, ...Event) {}

func (noopPublisher) Close() error { return nil }
