package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBookingLockTTL = "BOOKING_LOCK_TTL"

	EnvSlotDayStart    = "SLOT_DAY_START"
	EnvSlotDayEnd      = "SLOT_DAY_END"
	EnvSlotDurationMin = "SLOT_DURATION_MIN"

	EnvNotificationsTopic = "NOTIFICATIONS_TOPIC"
	EnvActivityTopic      = "ACTIVITY_TOPIC"
	EnvEventsDLQTopic     = "EVENTS_DLQ_TOPIC"
	EnvNotifierGroupID    = "NOTIFIER_GROUP_ID"
)
