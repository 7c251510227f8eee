package model

import "time"

// Notification is the persisted in-app notification, written by the notifier
// worker from the notification event stream.
type Notification struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID    string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	Title     string    `json:"title" bson:"title" validate:"required,max=200"`
	Message   string    `json:"message" bson:"message" validate:"required,max=1000"`
	Type      string    `json:"type" bson:"type" validate:"required,oneof=info success warning error"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
