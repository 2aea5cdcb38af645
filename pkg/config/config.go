package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"hotelbooking/pkg/client"
	"hotelbooking/pkg/logger"
)

type Config struct {
	Environment string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	StorageDriver     string

	Port string

	CallbackSecret   string
	AdminJWTSecret   string
	CheckoutTokenKey string
	CheckoutBaseURL  string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustProxyHeaders lets X-Client-ID and X-Forwarded-For name the client.
	// Only enable it behind a proxy that overwrites both.
	TrustProxyHeaders bool

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	TransactionTimeout time.Duration

	PendingPaymentTTL time.Duration
	SweepInterval     time.Duration
	SweepBatchSize    int
	SweeperEnabled    bool
	BookingLockTTL    time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		Environment: getEnvStr(EnvEnvironment, DefaultEnvironment),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		StorageDriver:     getEnvStr(EnvStorageDriver, DefaultStorageDriver),

		Port: getEnvStr(EnvPort, DefaultPort),

		CallbackSecret:   getEnvStr(EnvCallbackSecret, ""),
		AdminJWTSecret:   getEnvStr(EnvAdminJWTSecret, ""),
		CheckoutTokenKey: getEnvStr(EnvCheckoutTokenKey, ""),
		CheckoutBaseURL:  getEnvStr(EnvCheckoutBaseURL, DefaultCheckoutBaseURL),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		TrustProxyHeaders: getEnvBool(EnvTrustProxyHeaders, DefaultTrustProxyHeaders),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:        getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:       getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:        getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout:    getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
		TransactionTimeout: getEnvDuration(EnvTransactionTimeout, DefaultTransactionTimeout),

		PendingPaymentTTL: getEnvDuration(EnvPendingPaymentTTL, DefaultPendingPaymentTTL),
		SweepInterval:     getEnvDuration(EnvSweepInterval, DefaultSweepInterval),
		SweepBatchSize:    getEnvNum(EnvSweepBatchSize, DefaultSweepBatchSize),
		SweeperEnabled:    getEnvBool(EnvSweeperEnabled, DefaultSweeperEnabled),
		BookingLockTTL:    getEnvDuration(EnvBookingLockTTL, DefaultBookingLockTTL),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, logger.JSON),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) IsDevelopment() bool {
	return cfg.Environment == EnvironmentDevelopment
}

func (cfg *Config) UsesMemoryStorage() bool {
	return cfg.StorageDriver == StorageDriverMemory
}

func (cfg *Config) Validate() error {
	var errors []string

	switch cfg.Environment {
	case EnvironmentProduction, EnvironmentDevelopment, EnvironmentTest:
	default:
		errors = append(errors, fmt.Sprintf("Environment must be one of production, development, test, got: %s", cfg.Environment))
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StorageDriver {
	case StorageDriverMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StorageDriverMemory:
		if cfg.Environment == EnvironmentProduction {
			errors = append(errors, "StorageDriver 'memory' is not allowed in production")
		}
	default:
		errors = append(errors, fmt.Sprintf("StorageDriver must be 'mongo' or 'memory', got: %s", cfg.StorageDriver))
	}

	if cfg.CheckoutTokenKey != "" && len(cfg.CheckoutTokenKey) < 16 {
		errors = append(errors, "CheckoutTokenKey must be at least 16 characters")
	}
	if cfg.AdminJWTSecret != "" && len(cfg.AdminJWTSecret) < 16 {
		errors = append(errors, "AdminJWTSecret must be at least 16 characters")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"TransactionTimeout", cfg.TransactionTimeout},
		{"PendingPaymentTTL", cfg.PendingPaymentTTL},
		{"SweepInterval", cfg.SweepInterval},
		{"BookingLockTTL", cfg.BookingLockTTL},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	// The advisory room lock must outlive the transaction it guards.
	if cfg.BookingLockTTL > 0 && cfg.BookingLockTTL <= cfg.TransactionTimeout {
		errors = append(errors, fmt.Sprintf("BookingLockTTL must be longer than TransactionTimeout, got: %s <= %s", cfg.BookingLockTTL, cfg.TransactionTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.SweepBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("SweepBatchSize must be positive, got: %d", cfg.SweepBatchSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"environment", cfg.Environment,
		"storage_driver", cfg.StorageDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"callback_secret_set", cfg.CallbackSecret != "",
		"admin_jwt_secret_set", cfg.AdminJWTSecret != "",
		"checkout_token_key_set", cfg.CheckoutTokenKey != "",
		"checkout_base_url", cfg.CheckoutBaseURL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"trust_proxy_headers", cfg.TrustProxyHeaders,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"transaction_timeout", cfg.TransactionTimeout,
		"pending_payment_ttl", cfg.PendingPaymentTTL,
		"sweep_interval", cfg.SweepInterval,
		"sweep_batch_size", cfg.SweepBatchSize,
		"sweeper_enabled", cfg.SweeperEnabled,
		"booking_lock_ttl", cfg.BookingLockTTL,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	cfg.Client.GracefulShutdown(ctx, cfg.Log)
}
