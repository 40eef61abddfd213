package models

import "time"

type AttendanceStatus string

const (
	AttendanceUnknown          AttendanceStatus = "unknown"
	AttendancePresent          AttendanceStatus = "present"
	AttendanceAbsent           AttendanceStatus = "absent"
	AttendanceAbsentWithReason AttendanceStatus = "absent_with_reason"
)

type ConfirmedBy string

const (
	ConfirmedAuto    ConfirmedBy = "auto"    // emergency self-report
	ConfirmedTeacher ConfirmedBy = "teacher" // manual toggle or reason entry
)

// AttendanceRecord is one row per (student, calendar date), created lazily
// on the first transition and upserted afterwards.
type AttendanceRecord struct {
	StudentID   int64            `db:"student_id"`
	Date        time.Time        `db:"attend_date"`
	Status      AttendanceStatus `db:"status"`
	Reason      *string          `db:"reason"`
	ConfirmedBy ConfirmedBy      `db:"confirmed_by"`
	UpdatedAt   time.Time        `db:"updated_at"`
}
