package config

const (
	EnvEnvironment = "APP_ENV"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvStorageDriver     = "STORAGE_DRIVER"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvCallbackSecret   = "PAYMENT_CALLBACK_SECRET"
	EnvAdminJWTSecret   = "ADMIN_JWT_SECRET"
	EnvCheckoutTokenKey = "CHECKOUT_TOKEN_KEY"
	EnvCheckoutBaseURL  = "CHECKOUT_BASE_URL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvTrustProxyHeaders = "TRUST_PROXY_HEADERS"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout        = "READ_TIMEOUT"
	EnvWriteTimeout       = "WRITE_TIMEOUT"
	EnvIdleTimeout        = "IDLE_TIMEOUT"
	EnvShutdownTimeout    = "SHUTDOWN_TIMEOUT"
	EnvTransactionTimeout = "TRANSACTION_TIMEOUT"

	EnvPendingPaymentTTL = "PENDING_PAYMENT_TTL"
	EnvSweepInterval     = "SWEEP_INTERVAL"
	EnvSweepBatchSize    = "SWEEP_BATCH_SIZE"
	EnvSweeperEnabled    = "SWEEPER_ENABLED"
	EnvBookingLockTTL    = "BOOKING_LOCK_TTL"
)

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
	EnvironmentTest        = "test"

	StorageDriverMongo  = "mongo"
	StorageDriverMemory = "memory"
)
