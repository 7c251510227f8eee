package notify

import "time"

// Event types carried in the Kafka event-type header.
const (
	EventTypeNotification = "notification.created"
	EventTypeActivity     = "activity.recorded"
)

// Activity actions recorded in the audit feed.
const (
	ActionBookingCreated       = "BOOKING_CREATED"
	ActionBookingStatusChanged = "BOOKING_STATUS_CHANGED"
	ActionResourceCreated      = "RESOURCE_CREATED"
	ActionResourceUpdated      = "RESOURCE_UPDATED"
	ActionResourceDeleted      = "RESOURCE_DELETED"
)

// NotificationEvent is the wire payload for a user-facing notification.
type NotificationEvent struct {
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityEvent is the wire payload for an audit-trail entry.
type ActivityEvent struct {
	ActorID    string            `json:"actor_id"`
	Action     string            `json:"action"`
	TargetType string            `json:"target_type"`
	TargetID   string            `json:"target_id"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
