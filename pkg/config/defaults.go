package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "nucleus"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Advisory lock lifetime: long enough to cover the conflict check and
	// insert, short enough that a crashed request frees the slot quickly.
	DefaultBookingLockTTL = 10 * time.Second

	// Calendar slot grid window and granularity for the availability UI.
	DefaultSlotDayStart    = "09:00"
	DefaultSlotDayEnd      = "18:00"
	DefaultSlotDurationMin = 60

	DefaultNotificationsTopic = "nucleus.notifications"
	DefaultActivityTopic      = "nucleus.activity"
	DefaultEventsDLQTopic     = "nucleus.events.dlq"
	DefaultNotifierGroupID    = "nucleus-notifier"

	DefaultPaginationLimit = 100
)
