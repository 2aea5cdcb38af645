// Package events publishes booking and payment state changes after they
// commit. Publishing is best effort: a failure is logged and never undoes
// the state change that produced the event.
package events

import (
	"context"
	"time"

	"hotelbooking/pkg/kafka"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/middleware"

	"github.com/shopspring/decimal"
)

const (
	BookingCreated   = "booking.created"
	BookingExpired   = "booking.expired"
	PaymentInitiated = "payment.initiated"
	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
	PaymentUpdated   = "payment.updated"
	PaymentDeleted   = "payment.deleted"

	SchemaVersion = "1"
	Source        = "hotelbooking"
)

type Event struct {
	Type          string           `json:"type"`
	BookingID     string           `json:"booking_id"`
	PaymentID     string           `json:"payment_id,omitempty"`
	RoomID        string           `json:"room_id,omitempty"`
	UserID        string           `json:"user_id,omitempty"`
	BookingStatus string           `json:"booking_status,omitempty"`
	PaymentStatus string           `json:"payment_status,omitempty"`
	Provider      string           `json:"provider,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer MessagePublisher
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessagePublisher, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to encode event",
			"event_type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
		return
	}

	// the request context may already be cancelled by the time a slow
	// broker answers
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.Type,
			"booking_id", event.BookingID,
			"payment_id", event.PaymentID,
			"error", err,
		)
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
