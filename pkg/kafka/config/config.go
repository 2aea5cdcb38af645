package kafka_config

import (
	"fmt"
	"strings"
	"time"

	"hotelbooking/pkg/logger"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the Kafka settings for domain events and asynchronous
// payment callbacks. Every field is read from KAFKA_<NAME>.
type Config struct {
	Enabled bool     `envconfig:"ENABLED" default:"false"`
	Brokers []string `envconfig:"BROKERS" default:"localhost:9092"`

	EventsTopic       string `envconfig:"EVENTS_TOPIC" default:"hotelbooking.events"`
	CallbacksTopic    string `envconfig:"CALLBACKS_TOPIC" default:"hotelbooking.payment-callbacks"`
	CallbacksDLQTopic string `envconfig:"CALLBACKS_DLQ_TOPIC" default:"hotelbooking.payment-callbacks.dlq"`
	CallbacksGroupID  string `envconfig:"CALLBACKS_GROUP_ID" default:"hotelbooking-payment-callbacks"`

	ProducerMaxAttempts  int           `envconfig:"PRODUCER_MAX_ATTEMPTS" default:"3"`
	ProducerBatchTimeout time.Duration `envconfig:"PRODUCER_BATCH_TIMEOUT" default:"10ms"`
	// -1 all replicas, 0 none, 1 leader only.
	ProducerRequireAcks int    `envconfig:"PRODUCER_REQUIRE_ACKS" default:"-1"`
	ProducerCompression string `envconfig:"PRODUCER_COMPRESSION" default:"snappy"`
	ProducerAsync       bool   `envconfig:"PRODUCER_ASYNC" default:"false"`

	// -1 newest, -2 oldest.
	ConsumerStartOffset       int64         `envconfig:"CONSUMER_START_OFFSET" default:"-1"`
	ConsumerMinBytes          int           `envconfig:"CONSUMER_MIN_BYTES" default:"1"`
	ConsumerMaxBytes          int           `envconfig:"CONSUMER_MAX_BYTES" default:"10485760"`
	ConsumerMaxWait           time.Duration `envconfig:"CONSUMER_MAX_WAIT" default:"500ms"`
	ConsumerCommitInterval    time.Duration `envconfig:"CONSUMER_COMMIT_INTERVAL" default:"1s"`
	ConsumerHeartbeatInterval time.Duration `envconfig:"CONSUMER_HEARTBEAT_INTERVAL" default:"3s"`
	ConsumerSessionTimeout    time.Duration `envconfig:"CONSUMER_SESSION_TIMEOUT" default:"10s"`
	ConsumerRebalanceTimeout  time.Duration `envconfig:"CONSUMER_REBALANCE_TIMEOUT" default:"60s"`
	ConsumerMaxRetries        int           `envconfig:"CONSUMER_MAX_RETRIES" default:"3"`
	ConsumerRetryBackoff      time.Duration `envconfig:"CONSUMER_RETRY_BACKOFF" default:"200ms"`

	EnableMiddleware bool `envconfig:"ENABLE_MIDDLEWARE" default:"true"`
}

const envPrefix = "KAFKA"

// Load reads the Kafka configuration from the environment. A disabled
// configuration is returned without validation.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read kafka configuration: %w", err)
	}
	cfg.Brokers = cleanBrokers(cfg.Brokers)

	if !cfg.Enabled {
		return &cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func cleanBrokers(raw []string) []string {
	var brokers []string
	for _, b := range raw {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (cfg *Config) Validate() error {
	var errors []string

	if len(cfg.Brokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}

	topics := []struct {
		name  string
		value string
	}{
		{"EventsTopic", cfg.EventsTopic},
		{"CallbacksTopic", cfg.CallbacksTopic},
		{"CallbacksGroupID", cfg.CallbacksGroupID},
	}
	for _, t := range topics {
		if t.value == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", t.name))
		}
	}
	if cfg.CallbacksDLQTopic != "" && cfg.CallbacksDLQTopic == cfg.CallbacksTopic {
		errors = append(errors, "CallbacksDLQTopic must differ from CallbacksTopic")
	}

	if cfg.ProducerMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts))
	}
	if cfg.ProducerBatchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout))
	}

	validCompressions := map[string]bool{
		"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true,
	}
	if !validCompressions[cfg.ProducerCompression] {
		errors = append(errors, fmt.Sprintf("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.ProducerCompression))
	}

	validAcks := map[int]bool{-1: true, 0: true, 1: true}
	if !validAcks[cfg.ProducerRequireAcks] {
		errors = append(errors, fmt.Sprintf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks))
	}

	if cfg.ConsumerStartOffset != -1 && cfg.ConsumerStartOffset != -2 {
		errors = append(errors, fmt.Sprintf("ConsumerStartOffset must be -1 (newest) or -2 (oldest), got: %d", cfg.ConsumerStartOffset))
	}
	if cfg.ConsumerMinBytes <= 0 || cfg.ConsumerMaxBytes < cfg.ConsumerMinBytes {
		errors = append(errors, fmt.Sprintf("ConsumerMinBytes/ConsumerMaxBytes invalid, got: %d/%d", cfg.ConsumerMinBytes, cfg.ConsumerMaxBytes))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"ConsumerMaxWait", cfg.ConsumerMaxWait},
		{"ConsumerCommitInterval", cfg.ConsumerCommitInterval},
		{"ConsumerHeartbeatInterval", cfg.ConsumerHeartbeatInterval},
		{"ConsumerSessionTimeout", cfg.ConsumerSessionTimeout},
		{"ConsumerRebalanceTimeout", cfg.ConsumerRebalanceTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.ConsumerMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries))
	}
	if cfg.ConsumerRetryBackoff < 0 {
		errors = append(errors, fmt.Sprintf("ConsumerRetryBackoff cannot be negative, got: %s", cfg.ConsumerRetryBackoff))
	}

	if len(errors) > 0 {
		errMsg := "Kafka configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	if !cfg.Enabled {
		log.Info("Kafka disabled, domain events are dropped and callbacks are HTTP only")
		return
	}
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"events_topic", cfg.EventsTopic,
		"callbacks_topic", cfg.CallbacksTopic,
		"callbacks_dlq_topic", cfg.CallbacksDLQTopic,
		"callbacks_group_id", cfg.CallbacksGroupID,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"producer_async", cfg.ProducerAsync,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"consumer_retry_backoff", cfg.ConsumerRetryBackoff,
		"enable_middleware", cfg.EnableMiddleware,
	)
}
