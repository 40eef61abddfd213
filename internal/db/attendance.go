package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fishnet-edu/fishnet/internal/models"
)

// GetAttendance returns the record for (student, date), or a synthetic
// "unknown" record: rows are created lazily on the first transition.
func GetAttendance(ctx context.Context, database *sql.DB, studentID int64, date time.Time) (*models.AttendanceRecord, error) {
	row := database.QueryRowContext(ctx, `
		SELECT student_id, attend_date, status, reason, confirmed_by, updated_at
		FROM attendance_records
		WHERE student_id = $1 AND attend_date = $2`, studentID, date)
	var r models.AttendanceRecord
	err := row.Scan(&r.StudentID, &r.Date, &r.Status, &r.Reason, &r.ConfirmedBy, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.AttendanceRecord{
			StudentID:   studentID,
			Date:        date,
			Status:      models.AttendanceUnknown,
			ConfirmedBy: models.ConfirmedTeacher,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertAttendance converges concurrent writes on the (student, date) key:
// last writer wins, with confirmed_by and updated_at kept for audit.
func UpsertAttendance(ctx context.Context, database *sql.DB, r models.AttendanceRecord) error {
	_, err := database.ExecContext(ctx, `
		INSERT INTO attendance_records (student_id, attend_date, status, reason, confirmed_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (student_id, attend_date)
		DO UPDATE SET status = EXCLUDED.status, reason = EXCLUDED.reason,
		              confirmed_by = EXCLUDED.confirmed_by, updated_at = now()`,
		r.StudentID, r.Date, r.Status, r.Reason, r.ConfirmedBy)
	return err
}

// ListAttendanceForDate powers the day-of roll call view.
func ListAttendanceForDate(ctx context.Context, database *sql.DB, date time.Time) ([]models.AttendanceRecord, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT student_id, attend_date, status, reason, confirmed_by, updated_at
		FROM attendance_records
		WHERE attend_date = $1
		ORDER BY student_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AttendanceRecord
	for rows.Next() {
		var r models.AttendanceRecord
		if err := rows.Scan(&r.StudentID, &r.Date, &r.Status, &r.Reason, &r.ConfirmedBy, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
