package kafka_middleware

import (
	"context"
	"time"

	"hotelbooking/pkg/kafka"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records publish and consume counts and latencies on an OTel meter.
type Metrics struct {
	published       metric.Int64Counter
	publishFailed   metric.Int64Counter
	publishDuration metric.Float64Histogram
	consumed        metric.Int64Counter
	consumeFailed   metric.Int64Counter
	consumeDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.published, err = meter.Int64Counter("kafka.messages.published",
		metric.WithDescription("Messages written to Kafka")); err != nil {
		return nil, err
	}
	if m.publishFailed, err = meter.Int64Counter("kafka.messages.publish_failed",
		metric.WithDescription("Messages that could not be written to Kafka")); err != nil {
		return nil, err
	}
	if m.publishDuration, err = meter.Float64Histogram("kafka.publish.duration",
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.consumed, err = meter.Int64Counter("kafka.messages.consumed",
		metric.WithDescription("Messages handled successfully")); err != nil {
		return nil, err
	}
	if m.consumeFailed, err = meter.Int64Counter("kafka.messages.consume_failed",
		metric.WithDescription("Handler attempts that returned an error")); err != nil {
		return nil, err
	}
	if m.consumeDuration, err = meter.Float64Histogram("kafka.consume.duration",
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return &m, nil
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func (m *Metrics) Producer() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := metric.WithAttributes(
			attribute.String("topic", msg.Topic),
			attribute.String("event_type", msg.GetEventType()),
		)
		m.publishDuration.Record(ctx, elapsedMs(start), attrs)
		if err != nil {
			m.publishFailed.Add(ctx, 1, attrs)
		} else {
			m.published.Add(ctx, 1, attrs)
		}
		return err
	}
}

func (m *Metrics) Consumer() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := metric.WithAttributes(attribute.String("topic", msg.Topic))
		m.consumeDuration.Record(ctx, elapsedMs(start), attrs)
		if err != nil {
			m.consumeFailed.Add(ctx, 1, metric.WithAttributes(
				attribute.String("topic", msg.Topic),
				attribute.String("error_type", kafka.ClassifyError(err).String()),
			))
		} else {
			m.consumed.Add(ctx, 1, attrs)
		}
		return err
	}
}
