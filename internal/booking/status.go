package booking

import "strings"

// Status is a booking's lifecycle state. Bookings start as REQUESTED and
// move between GRANTED and DENIED through authorized transitions; nothing
// ever moves back to REQUESTED. Granting a denied booking (and the
// reverse) is deliberately allowed so a decision can be corrected.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusGranted   Status = "GRANTED"
	StatusDenied    Status = "DENIED"
)

// ParseStatus maps a stored tag onto the closed status set.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.TrimSpace(s)) {
	case StatusRequested:
		return StatusRequested, true
	case StatusGranted:
		return StatusGranted, true
	case StatusDenied:
		return StatusDenied, true
	}
	return "", false
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return false
	}
	switch next {
	case StatusGranted, StatusDenied:
		return true
	default:
		return false
	}
}
