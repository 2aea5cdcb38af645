package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"hotelbooking/pkg/kafka"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/middleware"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureProducer struct {
	msgs []kafka.Message
	err  error
}

func (c *captureProducer) Publish(_ context.Context, msg kafka.Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &captureProducer{}
	pub := NewKafkaPublisher(producer, logger.Nop())

	amount := decimal.NewFromInt(3600)
	occurred := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")

	pub.Publish(ctx, Event{
		Type:          PaymentSucceeded,
		BookingID:     "b1",
		PaymentID:     "p1",
		BookingStatus: "confirmed",
		PaymentStatus: "success",
		Amount:        &amount,
		OccurredAt:    occurred,
	})

	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, "b1", msg.Key)
	assert.Equal(t, PaymentSucceeded, msg.GetEventType())
	assert.Equal(t, "req-42", msg.GetCorrelationID())
	assert.Equal(t, Source, msg.Headers[kafka.HeaderSource])
	assert.Equal(t, "2026-05-01T12:00:00Z", msg.Headers[kafka.HeaderTimestamp])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "3600", decoded["amount"])
	assert.Equal(t, "confirmed", decoded["booking_status"])
}

func TestKafkaPublisher_FailureIsSwallowed(t *testing.T) {
	producer := &captureProducer{err: errors.New("broker down")}
	pub := NewKafkaPublisher(producer, logger.Nop())

	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), Event{Type: BookingExpired, BookingID: "b1"})
	})
	assert.Len(t, producer.msgs, 1)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Publish(context.Background(), Event{Type: BookingCreated, BookingID: "b1"})
	r.Publish(context.Background(), Event{Type: PaymentInitiated, BookingID: "b1"})

	assert.Equal(t, []string{BookingCreated, PaymentInitiated}, r.Types())
	assert.Len(t, r.Events(), 2)
}
