package model

import (
	"time"
)

// Booking is a time-ranged reservation of a resource. StartTime/EndTime form
// a half-open interval [start, end); see Overlaps for the exact semantics.
type Booking struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ResourceID  string    `json:"resource_id" bson:"resource_id" validate:"required,mongodb"`
	RequesterID string    `json:"requester_id" bson:"requester_id" validate:"required,mongodb"`
	EventID     string    `json:"event_id,omitempty" bson:"event_id,omitempty" validate:"omitempty,mongodb"`
	StartTime   time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" bson:"end_time" validate:"required"`
	Status      string    `json:"status" bson:"status" validate:"omitempty,oneof=pending approved rejected cancelled"`
	AdminNote   string    `json:"admin_note,omitempty" bson:"admin_note,omitempty" validate:"omitempty,max=500"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// BookingStatusUpdate is the admin status-transition payload. Pending is not
// a valid target: a booking never returns to pending.
type BookingStatusUpdate struct {
	Status    string `json:"status" validate:"required,oneof=approved rejected cancelled"`
	AdminNote string `json:"admin_note,omitempty" validate:"omitempty,max=500"`
}

// BookingWindow is the availability-query projection: just enough to render
// a calendar without exposing who holds the slot.
type BookingWindow struct {
	StartTime time.Time `json:"start_time" bson:"start_time"`
	EndTime   time.Time `json:"end_time" bson:"end_time"`
	Status    string    `json:"status" bson:"status"`
}
