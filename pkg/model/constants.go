package model

// Booking lifecycle statuses. A booking is created as pending or approved
// (decided once, at creation, from the resource's auto-approval policy) and
// only ever moves forward; rejected and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// ActiveStatuses is the conflict universe: only bookings in these states
// block other bookings on the same resource.
var ActiveStatuses = []string{StatusPending, StatusApproved}

// Resource types.
const (
	TypeRoom      = "room"
	TypeHall      = "hall"
	TypeLab       = "lab"
	TypeEquipment = "equipment"
)

// Notification severities.
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

func IsTerminalStatus(status string) bool {
	return status == StatusRejected || status == StatusCancelled
}

// CanTransition reports whether an admin status update from one state to
// another is allowed. Pending bookings can be decided or withdrawn; approved
// bookings can only be cancelled; terminal states never change.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		return to == StatusCancelled
	default:
		return false
	}
}
