package model

import "time"

// Slot is one cell of the day grid returned by the availability view. It is
// an approximation for rendering; the booking conflict check remains the
// authority on whether a given interval is actually free.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}
