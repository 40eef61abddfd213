package models

import "time"

// ScheduledDate is one weekly event with its required roles, in order.
type ScheduledDate struct {
	ID    int64
	Date  time.Time // calendar date, midnight in service timezone
	Roles []Role
}

type AvailabilityStatus string

const (
	Available   AvailabilityStatus = "available"
	Unavailable AvailabilityStatus = "unavailable"
	Uncertain   AvailabilityStatus = "uncertain"
)

// AvailabilityResponse is at most one per (student, date), upserted by the
// survey importer. No response at all is a distinct, low-priority eligible
// case, never an exclusion.
type AvailabilityResponse struct {
	StudentID int64
	DateID    int64
	Status    AvailabilityStatus
	Comment   *string
}
