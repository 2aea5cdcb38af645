package config

import "time"

const (
	DefaultEnvironment = EnvironmentProduction

	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "hotelbooking"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultStorageDriver     = StorageDriverMongo

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultCheckoutBaseURL = "http://localhost:8080"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultTrustProxyHeaders = false

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout        = 15 * time.Second
	DefaultWriteTimeout       = 15 * time.Second
	DefaultIdleTimeout        = 60 * time.Second
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultTransactionTimeout = 10 * time.Second

	DefaultPendingPaymentTTL = 15 * time.Minute
	DefaultSweepInterval     = 1 * time.Minute
	DefaultSweepBatchSize    = 100
	DefaultSweeperEnabled    = true
	DefaultBookingLockTTL    = 30 * time.Second
)
