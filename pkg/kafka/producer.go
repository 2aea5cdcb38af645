package kafka

import (
	"context"
	"fmt"
	"sync"

	kafka_config "hotelbooking/pkg/kafka/config"
	"hotelbooking/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer     messageWriter
	topic      string
	middleware []ProducerMiddleware
	closed     bool
	mu         sync.RWMutex
}

type ProducerMiddleware func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error

func NewProducer(cfg *kafka_config.Config, topic string, log *logger.Logger) (*Producer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, ErrNoTopic
	}

	return newProducer(newWriter(cfg, topic, log), topic), nil
}

func newProducer(w messageWriter, topic string) *Producer {
	return &Producer{writer: w, topic: topic}
}

func newWriter(cfg *kafka_config.Config, topic string, log *logger.Logger) *kafka.Writer {
	var compression compress.Compression
	switch cfg.ProducerCompression {
	case "none":
		compression = 0
	case "gzip":
		compression = compress.Gzip
	case "lz4":
		compression = compress.Lz4
	case "zstd":
		compression = compress.Zstd
	default:
		compression = compress.Snappy
	}

	requiredAcks := kafka.RequireAll
	switch cfg.ProducerRequireAcks {
	case 0:
		requiredAcks = kafka.RequireNone
	case 1:
		requiredAcks = kafka.RequireOne
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: requiredAcks,
		Compression:  compression,
		MaxAttempts:  cfg.ProducerMaxAttempts,
		BatchTimeout: cfg.ProducerBatchTimeout,
		Async:        cfg.ProducerAsync,
		ErrorLogger:  errorLogger(log, "kafka writer error", "topic", topic),
	}
}

func errorLogger(log *logger.Logger, msg string, args ...any) kafka.Logger {
	return kafka.LoggerFunc(func(format string, fmtArgs ...any) {
		log.Error(msg, append(args, "error", fmt.Sprintf(format, fmtArgs...))...)
	})
}

func (p *Producer) Use(middleware ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, middleware)
}

func (p *Producer) Topic() string {
	return p.topic
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	closed := p.closed
	middleware := p.middleware
	p.mu.RUnlock()
	if closed {
		return ErrProducerClosed
	}

	if msg.Key == "" {
		return ErrEmptyKey
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}
	msg.Topic = p.topic

	handler := p.publish
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}

	return handler(ctx, msg)
}

func (p *Producer) publish(ctx context.Context, msg Message) error {
	if err := p.writer.WriteMessages(ctx, toKafkaMessage(msg)); err != nil {
		return NewTransientError("publish to "+p.topic, err)
	}
	return nil
}

func toKafkaMessage(msg Message) kafka.Message {
	km := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  msg.Timestamp,
	}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return km
}

func fromKafkaMessage(km kafka.Message) Message {
	msg := Message{
		Key:       string(km.Key),
		Value:     km.Value,
		Headers:   make(map[string]string, len(km.Headers)),
		Topic:     km.Topic,
		Partition: km.Partition,
		Offset:    km.Offset,
		Timestamp: km.Time,
	}
	for _, h := range km.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
