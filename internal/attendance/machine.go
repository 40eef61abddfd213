package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/metrics"
	"github.com/fishnet-edu/fishnet/internal/models"
)

// NextToggle is the teacher-driven cycle: unknown → present → absent →
// unknown. From absent_with_reason a toggle lands on present, which is an
// explicit override of the auto-absence, never a silent reset.
func NextToggle(cur models.AttendanceStatus) models.AttendanceStatus {
	switch cur {
	case models.AttendanceUnknown:
		return models.AttendancePresent
	case models.AttendancePresent:
		return models.AttendanceAbsent
	case models.AttendanceAbsent:
		return models.AttendanceUnknown
	case models.AttendanceAbsentWithReason:
		return models.AttendancePresent
	default:
		return models.AttendanceUnknown
	}
}

// Machine applies attendance transitions through idempotent upserts keyed by
// (student, date); concurrent writes converge to the last writer with
// provenance recorded.
type Machine struct {
	DB  *sql.DB
	Log *zap.Logger
}

func NewMachine(database *sql.DB, log *zap.Logger) *Machine {
	return &Machine{DB: database, Log: log}
}

// Toggle advances the cycle one step on behalf of a teacher and returns the
// resulting record.
func (m *Machine) Toggle(ctx context.Context, studentID int64, date time.Time) (*models.AttendanceRecord, error) {
	cur, err := db.GetAttendance(ctx, m.DB, studentID, date)
	if err != nil {
		return nil, fmt.Errorf("read attendance: %w", err)
	}
	next := NextToggle(cur.Status)
	if cur.Status == models.AttendanceAbsentWithReason && cur.ConfirmedBy == models.ConfirmedAuto {
		m.Log.Info("teacher override of auto-reported absence",
			zap.Int64("student_id", studentID),
			zap.String("date", date.Format("2006-01-02")))
	}
	rec := models.AttendanceRecord{
		StudentID:   studentID,
		Date:        date,
		Status:      next,
		ConfirmedBy: models.ConfirmedTeacher,
	}
	if err := db.UpsertAttendance(ctx, m.DB, rec); err != nil {
		return nil, fmt.Errorf("write attendance: %w", err)
	}
	metrics.AttendanceWrites.WithLabelValues(string(models.ConfirmedTeacher)).Inc()
	return &rec, nil
}

// SetReason enters absent_with_reason by explicit teacher entry.
func (m *Machine) SetReason(ctx context.Context, studentID int64, date time.Time, reason string) (*models.AttendanceRecord, error) {
	if reason == "" {
		return nil, fmt.Errorf("absence reason must not be empty")
	}
	rec := models.AttendanceRecord{
		StudentID:   studentID,
		Date:        date,
		Status:      models.AttendanceAbsentWithReason,
		Reason:      &reason,
		ConfirmedBy: models.ConfirmedTeacher,
	}
	if err := db.UpsertAttendance(ctx, m.DB, rec); err != nil {
		return nil, fmt.Errorf("write attendance: %w", err)
	}
	metrics.AttendanceWrites.WithLabelValues(string(models.ConfirmedTeacher)).Inc()
	return &rec, nil
}

// MarkAutoAbsent is the side channel of the emergency workflow.
func (m *Machine) MarkAutoAbsent(ctx context.Context, studentID int64, date time.Time, reason string) error {
	if reason == "" {
		return fmt.Errorf("absence reason must not be empty")
	}
	rec := models.AttendanceRecord{
		StudentID:   studentID,
		Date:        date,
		Status:      models.AttendanceAbsentWithReason,
		Reason:      &reason,
		ConfirmedBy: models.ConfirmedAuto,
	}
	if err := db.UpsertAttendance(ctx, m.DB, rec); err != nil {
		return fmt.Errorf("write attendance: %w", err)
	}
	metrics.AttendanceWrites.WithLabelValues(string(models.ConfirmedAuto)).Inc()
	return nil
}
