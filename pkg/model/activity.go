package model

import "time"

// ActivityEntry is one audit-trail record, e.g. BOOKING_CREATED on a Booking
// or RESOURCE_DELETED on a Resource.
type ActivityEntry struct {
	ID         string            `json:"id,omitempty" bson:"_id,omitempty"`
	ActorID    string            `json:"actor_id" bson:"actor_id"`
	Action     string            `json:"action" bson:"action"`
	TargetType string            `json:"target_type" bson:"target_type"`
	TargetID   string            `json:"target_id" bson:"target_id"`
	Details    map[string]string `json:"details,omitempty" bson:"details,omitempty"`
	CreatedAt  time.Time         `json:"created_at" bson:"created_at"`
}
