package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafka_config "hotelbooking/pkg/kafka/config"
	"hotelbooking/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader       messageReader
	dlq          messageWriter
	topic        string
	groupID      string
	maxRetries   int
	retryBackoff time.Duration
	handler      MessageHandler
	middleware   []ConsumerMiddleware
	log          *logger.Logger
	closed       bool
	mu           sync.RWMutex
	wg           sync.WaitGroup
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

// NewConsumer reads topic as part of groupID. Messages that fail
// permanently, or exhaust their retries, are copied to dlqTopic when it is
// set and committed either way.
func NewConsumer(cfg *kafka_config.Config, topic, groupID, dlqTopic string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, ErrNoTopic
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           groupID,
		MinBytes:          cfg.ConsumerMinBytes,
		MaxBytes:          cfg.ConsumerMaxBytes,
		MaxWait:           cfg.ConsumerMaxWait,
		CommitInterval:    cfg.ConsumerCommitInterval,
		HeartbeatInterval: cfg.ConsumerHeartbeatInterval,
		SessionTimeout:    cfg.ConsumerSessionTimeout,
		RebalanceTimeout:  cfg.ConsumerRebalanceTimeout,
		StartOffset:       cfg.ConsumerStartOffset,
		ErrorLogger:       errorLogger(log, "kafka reader error", "topic", topic, "group_id", groupID),
	})

	var dlq messageWriter
	if dlqTopic != "" {
		dlqCfg := *cfg
		dlqCfg.ProducerRequireAcks = -1
		dlqCfg.ProducerAsync = false
		dlq = newWriter(&dlqCfg, dlqTopic, log)
	}

	c := newConsumer(reader, dlq, topic, groupID, handler, log)
	c.maxRetries = cfg.ConsumerMaxRetries
	c.retryBackoff = cfg.ConsumerRetryBackoff
	return c, nil
}

func newConsumer(reader messageReader, dlq messageWriter, topic, groupID string, handler MessageHandler, log *logger.Logger) *Consumer {
	return &Consumer{
		reader:  reader,
		dlq:     dlq,
		topic:   topic,
		groupID: groupID,
		handler: handler,
		log:     &logger.Logger{Logger: log.With("topic", topic, "group_id", groupID)},
	}
}

func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware)
}

// Start blocks, fetching and handling messages until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.wg.Add(1)
	c.mu.RUnlock()
	defer c.wg.Done()

	c.log.Info("Kafka consumer started")
	for {
		km, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.log.Error("Failed to fetch Kafka message", "error", err)
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		if err := c.processMessage(ctx, fromKafkaMessage(km)); err != nil && ctx.Err() != nil {
			// shutting down mid-retry: leave the offset for the next member
			return ctx.Err()
		}

		if err := c.reader.CommitMessages(ctx, km); err != nil {
			c.log.Error("Failed to commit Kafka offset",
				"partition", km.Partition,
				"offset", km.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) chain() MessageHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	handler := c.handler
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw := c.middleware[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	return handler
}

// processMessage runs the handler, retrying transient failures with a
// linear backoff. The returned error is the last handler error.
func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	handler := c.chain()

	for {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}

		retries := msg.GetRetryCount()
		if ShouldRetry(err, retries, c.maxRetries) {
			msg.IncrementRetryCount()
			c.log.Warn("Retrying Kafka message",
				"key", msg.Key,
				"offset", msg.Offset,
				"attempt", retries+1,
				"max_retries", c.maxRetries,
				"error", err,
			)
			if !sleep(ctx, c.retryBackoff*time.Duration(retries+1)) {
				return err
			}
			continue
		}

		c.deadLetter(ctx, msg, err)
		return err
	}
}

func (c *Consumer) deadLetter(ctx context.Context, msg Message, cause error) {
	log := c.log.With(
		"key", msg.Key,
		"offset", msg.Offset,
		"error_type", ClassifyError(cause).String(),
		"error", cause,
	)
	if c.dlq == nil {
		log.Error("Dropping Kafka message, no DLQ configured")
		return
	}

	b := NewMessage().WithKey(msg.Key).WithRawValue(msg.Value)
	for k, v := range msg.Headers {
		b.WithHeader(k, v)
	}
	dead, err := b.
		WithEventID(msg.GetEventID()).
		WithHeader(HeaderOriginalTopic, c.topic).
		WithHeader(HeaderFailureReason, cause.Error()).
		Build()
	if err != nil {
		log.Error("Failed to build DLQ message", "build_error", err)
		return
	}

	if err := c.dlq.WriteMessages(ctx, toKafkaMessage(dead)); err != nil {
		log.Error("Failed to write Kafka message to DLQ", "dlq_error", err)
		return
	}
	log.Warn("Kafka message sent to DLQ")
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Close waits for Start to return; cancel its context first.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()

	err := c.reader.Close()
	if c.dlq != nil {
		if dlqErr := c.dlq.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}
