package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvStorageDriver = "STORAGE_DRIVER"

	EnvWebhookSecret = "WEBHOOK_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvScopeLockTimeout = "SCOPE_LOCK_TIMEOUT"
	EnvScopeLockTTL     = "SCOPE_LOCK_TTL"

	EnvFareRatePerUnit    = "FARE_RATE_PER_UNIT"
	EnvMaxSeatsPerBooking = "MAX_SEATS_PER_BOOKING"

	EnvEventsEnabled = "EVENTS_ENABLED"
)
