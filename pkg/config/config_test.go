package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Environment:        EnvironmentDevelopment,
		MongoURI:           DefaultMongoURI,
		MongoDatabaseName:  DefaultMongoDatabaseName,
		MongoConnTimeout:   DefaultMongoConnTimeout,
		StorageDriver:      StorageDriverMongo,
		Port:               DefaultPort,
		RateLimitRequests:  DefaultRateLimitRequests,
		RateLimitWindow:    DefaultRateLimitWindow,
		RequestTimeout:     DefaultRequestTimeout,
		IdempotencyTTL:     DefaultIdempotencyTTL,
		MaxRequestSize:     DefaultMaxRequestSize,
		ReadTimeout:        DefaultReadTimeout,
		WriteTimeout:       DefaultWriteTimeout,
		IdleTimeout:        DefaultIdleTimeout,
		ShutdownTimeout:    DefaultShutdownTimeout,
		TransactionTimeout: DefaultTransactionTimeout,
		PendingPaymentTTL:  DefaultPendingPaymentTTL,
		SweepInterval:      DefaultSweepInterval,
		SweepBatchSize:     DefaultSweepBatchSize,
		BookingLockTTL:     DefaultBookingLockTTL,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = "99999" },
			wantErr: "Port must be between",
		},
		{
			name:    "bad mongo uri",
			mutate:  func(c *Config) { c.MongoURI = "postgres://localhost" },
			wantErr: "MongoURI must start with",
		},
		{
			name: "memory driver skips mongo checks",
			mutate: func(c *Config) {
				c.StorageDriver = StorageDriverMemory
				c.MongoURI = ""
			},
		},
		{
			name: "memory driver rejected in production",
			mutate: func(c *Config) {
				c.StorageDriver = StorageDriverMemory
				c.Environment = EnvironmentProduction
			},
			wantErr: "not allowed in production",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.StorageDriver = "redis" },
			wantErr: "StorageDriver must be",
		},
		{
			name:    "zero pending payment ttl",
			mutate:  func(c *Config) { c.PendingPaymentTTL = 0 },
			wantErr: "PendingPaymentTTL must be positive",
		},
		{
			name:    "lock ttl not longer than transaction timeout",
			mutate:  func(c *Config) { c.BookingLockTTL = c.TransactionTimeout },
			wantErr: "BookingLockTTL must be longer than TransactionTimeout",
		},
		{
			name:    "short admin secret",
			mutate:  func(c *Config) { c.AdminJWTSecret = "short" },
			wantErr: "AdminJWTSecret must be at least",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BAD_DURATION", "soon")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_NUM", "42")

	if got := getEnvDuration("TEST_DURATION", time.Minute); got != 90*time.Second {
		t.Errorf("getEnvDuration = %s, want 90s", got)
	}
	if got := getEnvDuration("TEST_BAD_DURATION", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration fallback = %s, want 1m", got)
	}
	if got := getEnvBool("TEST_BOOL", true); got {
		t.Errorf("getEnvBool = true, want false")
	}
	if got := getEnvNum("TEST_NUM", 1); got != 42 {
		t.Errorf("getEnvNum = %d, want 42", got)
	}
	if got := getEnvStr("TEST_UNSET_VALUE", "fallback"); got != "fallback" {
		t.Errorf("getEnvStr = %q, want fallback", got)
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017/hotel")
	if strings.Contains(got, "secret") {
		t.Errorf("password leaked: %s", got)
	}
	if !strings.Contains(got, "***:***@db:27017") {
		t.Errorf("unexpected redaction: %s", got)
	}
}
