package model

import "time"

// BookingLock is an advisory lock held while a booking for a given
// (resource, start time) slot is being created. The unique _id insert is the
// acquisition; a TTL index on expires_at reaps locks from crashed requests.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
