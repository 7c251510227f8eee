package model

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 10, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		start1, end1 time.Time
		start2, end2 time.Time
		want         bool
	}{
		{
			name:   "identical intervals",
			start1: at(9, 0), end1: at(10, 0),
			start2: at(9, 0), end2: at(10, 0),
			want: true,
		},
		{
			name:   "partial overlap",
			start1: at(9, 0), end1: at(10, 30),
			start2: at(10, 0), end2: at(11, 0),
			want: true,
		},
		{
			name:   "containment",
			start1: at(9, 0), end1: at(12, 0),
			start2: at(10, 0), end2: at(11, 0),
			want: true,
		},
		{
			name:   "back to back is not an overlap",
			start1: at(9, 0), end1: at(10, 0),
			start2: at(10, 0), end2: at(11, 0),
			want: false,
		},
		{
			name:   "disjoint",
			start1: at(9, 0), end1: at(10, 0),
			start2: at(14, 0), end2: at(15, 0),
			want: false,
		},
		{
			name:   "one minute overlap",
			start1: at(9, 0), end1: at(10, 1),
			start2: at(10, 0), end2: at(11, 0),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.start1, tt.end1, tt.start2, tt.end2)
			if got != tt.want {
				t.Errorf("Overlaps(%v-%v, %v-%v) = %v, want %v",
					tt.start1.Format("15:04"), tt.end1.Format("15:04"),
					tt.start2.Format("15:04"), tt.end2.Format("15:04"),
					got, tt.want)
			}

			// The relation is symmetric by definition.
			reversed := Overlaps(tt.start2, tt.end2, tt.start1, tt.end1)
			if reversed != got {
				t.Errorf("Overlaps is not symmetric for %s", tt.name)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusCancelled, false},
		{StatusCancelled, StatusApproved, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, status := range []string{StatusRejected, StatusCancelled} {
		if !IsTerminalStatus(status) {
			t.Errorf("IsTerminalStatus(%q) = false, want true", status)
		}
	}
	for _, status := range []string{StatusPending, StatusApproved} {
		if IsTerminalStatus(status) {
			t.Errorf("IsTerminalStatus(%q) = true, want false", status)
		}
	}
}
