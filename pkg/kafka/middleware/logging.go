package kafka_middleware

import (
	"context"
	"time"

	"hotelbooking/pkg/kafka"
	"hotelbooking/pkg/logger"
)

func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.ErrorContext(ctx, "Failed to publish Kafka message", append(attrs, "error", err)...)
		} else {
			log.DebugContext(ctx, "Published Kafka message", attrs...)
		}
		return err
	}
}

func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"retry_count", msg.GetRetryCount(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.WarnContext(ctx, "Failed to process Kafka message", append(attrs, "error", err)...)
		} else {
			log.InfoContext(ctx, "Processed Kafka message", attrs...)
		}
		return err
	}
}
