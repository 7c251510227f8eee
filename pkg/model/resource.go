package model

import "time"

// Resource is a bookable physical asset. IsAvailable administratively
// disables all new bookings; AutoApprove lets new bookings skip manual
// review and enter directly into the approved state.
type Resource struct {
	ID               string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name             string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Type             string    `json:"type" bson:"type" validate:"required,oneof=room hall lab equipment"`
	Capacity         int       `json:"capacity" bson:"capacity" validate:"min=0"`
	IsAvailable      bool      `json:"is_available" bson:"is_available"`
	RequiresApproval bool      `json:"requires_approval" bson:"requires_approval"`
	AutoApprove      bool      `json:"auto_approve" bson:"auto_approve"`
	Description      string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	ImageURL         string    `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// ResourceUpdate carries a partial admin edit; nil fields are left unchanged.
type ResourceUpdate struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Type             *string `json:"type,omitempty" validate:"omitempty,oneof=room hall lab equipment"`
	Capacity         *int    `json:"capacity,omitempty" validate:"omitempty,min=0"`
	IsAvailable      *bool   `json:"is_available,omitempty"`
	RequiresApproval *bool   `json:"requires_approval,omitempty"`
	AutoApprove      *bool   `json:"auto_approve,omitempty"`
	Description      *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	ImageURL         *string `json:"image_url,omitempty" validate:"omitempty,url"`
}
