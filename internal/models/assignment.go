package models

import "time"

type AssignmentStatus string

const (
	StatusAssigned  AssignmentStatus = "assigned"
	StatusConfirmed AssignmentStatus = "confirmed"
	StatusDeclined  AssignmentStatus = "declined"
	StatusSwapped   AssignmentStatus = "swapped"
	// StatusAbsent is entered only via the emergency workflow and is never
	// reverted; a confirmed substitute is a separate write.
	StatusAbsent AssignmentStatus = "absent"
)

// AssignmentRecord is one persisted slot occupant. BackupOrder is 0 for the
// primary, 1 or 2 for backups.
type AssignmentRecord struct {
	ID            int64            `db:"id"`
	DateID        int64            `db:"date_id"`
	StudentID     int64            `db:"student_id"`
	Role          Role             `db:"role"`
	IsPrimary     bool             `db:"is_primary"`
	BackupOrder   int              `db:"backup_order"`
	Status        AssignmentStatus `db:"status"`
	AbsenceReason *string          `db:"absence_reason"`
	ReportedAt    *time.Time       `db:"reported_at"`
	RunID         *string          `db:"run_id"`
}

// PriorAssignment is the flattened history row the cooldown tracker reads:
// a primary assignment joined with its calendar date.
type PriorAssignment struct {
	StudentID int64
	Date      time.Time
	Role      Role
	IsPrimary bool
}

// PlanEntry is one (date, role) slot of a proposed or repaired plan. Keys
// are identity-resolver keys, never raw names; empty string means unfilled.
type PlanEntry struct {
	DateID     int64  `json:"dateId"`
	Date       string `json:"date"` // YYYY-MM-DD
	Role       Role   `json:"role"`
	PrimaryKey string `json:"primary"`
	Backup1Key string `json:"backup1"`
	Backup2Key string `json:"backup2"`
}

// AssignmentPlan is the oracle's proposal, and after repair the persistable
// result. Warnings accumulate; they never make the plan unusable.
type AssignmentPlan struct {
	RunID    string      `json:"runId,omitempty"`
	Entries  []PlanEntry `json:"assignments"`
	Warnings []string    `json:"warnings,omitempty"`
}
