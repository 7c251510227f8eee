package model

import "time"

// Overlaps reports whether the half-open intervals [start1, end1) and
// [start2, end2) intersect. Both comparisons are strict, so back-to-back
// bookings (one ending exactly when the next starts) do not conflict.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}
