package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fishnet-edu/fishnet/internal/models"
)

var ErrSlotNotFound = errors.New("assignment slot not found")

// keyToID resolves plan keys to roster ids at persistence time.
type KeyResolver interface {
	StudentID(key string) (int64, bool)
}

// ReplacePlanForDates persists a repaired plan with wholesale semantics:
// all assignment rows of the affected dates are deleted and re-inserted in
// one transaction, never patched per row. Unknown keys abort the tx.
func ReplacePlanForDates(ctx context.Context, database *sql.DB, plan *models.AssignmentPlan, res KeyResolver) error {
	dateIDs := make([]int64, 0, len(plan.Entries))
	seen := make(map[int64]bool)
	for _, e := range plan.Entries {
		if !seen[e.DateID] {
			seen[e.DateID] = true
			dateIDs = append(dateIDs, e.DateID)
		}
	}
	if len(dateIDs) == 0 {
		return nil
	}

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE date_id = ANY($1)`, pq.Array(dateIDs)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assignments (date_id, student_id, role, is_primary, backup_order, status, run_id)
		VALUES ($1, $2, $3, $4, $5, 'assigned', $6)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	var runID any
	if plan.RunID != "" {
		runID = plan.RunID
	}
	for _, e := range plan.Entries {
		slots := []struct {
			key     string
			primary bool
			order   int
		}{
			{e.PrimaryKey, true, 0},
			{e.Backup1Key, false, 1},
			{e.Backup2Key, false, 2},
		}
		for _, s := range slots {
			if s.key == "" {
				continue
			}
			id, ok := res.StudentID(s.key)
			if !ok {
				return fmt.Errorf("plan key %q not in roster", s.key)
			}
			if _, err := stmt.ExecContext(ctx, e.DateID, id, e.Role, s.primary, s.order, runID); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// ListPrimaryHistoryBefore feeds the cooldown tracker: primary assignments
// joined with their calendar dates, strictly before the cutoff. Declined
// and absent primaries do not count as served.
func ListPrimaryHistoryBefore(ctx context.Context, database *sql.DB, cutoff time.Time) ([]models.PriorAssignment, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT a.student_id, d.event_date, a.role, a.is_primary
		FROM assignments a
		JOIN scheduled_dates d ON d.id = a.date_id
		WHERE a.is_primary AND d.event_date < $1
		  AND a.status NOT IN ('declined', 'absent')
		ORDER BY d.event_date, a.student_id`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PriorAssignment
	for rows.Next() {
		var h models.PriorAssignment
		if err := rows.Scan(&h.StudentID, &h.Date, &h.Role, &h.IsPrimary); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Slot is the live occupancy of one (date, role): primary plus ordered backups.
type Slot struct {
	DateID  int64
	Date    time.Time
	Role    models.Role
	Primary *models.AssignmentRecord
	Backup1 *models.AssignmentRecord
	Backup2 *models.AssignmentRecord
}

func GetSlot(ctx context.Context, database *sql.DB, dateID int64, role models.Role) (*Slot, error) {
	d, err := GetDateByID(ctx, database, dateID)
	if err != nil {
		return nil, err
	}
	rows, err := database.QueryContext(ctx, `
		SELECT id, date_id, student_id, role, is_primary, backup_order, status, absence_reason, reported_at
		FROM assignments
		WHERE date_id = $1 AND role = $2
		ORDER BY backup_order`, dateID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slot := &Slot{DateID: dateID, Date: d.Date, Role: role}
	for rows.Next() {
		var a models.AssignmentRecord
		if err := rows.Scan(&a.ID, &a.DateID, &a.StudentID, &a.Role, &a.IsPrimary, &a.BackupOrder, &a.Status, &a.AbsenceReason, &a.ReportedAt); err != nil {
			return nil, err
		}
		rec := a
		switch a.BackupOrder {
		case 0:
			slot.Primary = &rec
		case 1:
			slot.Backup1 = &rec
		case 2:
			slot.Backup2 = &rec
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if slot.Primary == nil && slot.Backup1 == nil && slot.Backup2 == nil {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

// MarkAbsent is the one-way transition of the emergency workflow. Already
// absent rows are left untouched so a racing duplicate report converges
// instead of overwriting the first reason and timestamp.
func MarkAbsent(ctx context.Context, database *sql.DB, assignmentID int64, reason string, reportedAt time.Time) error {
	resl, err := database.ExecContext(ctx, `
		UPDATE assignments
		SET status = 'absent', absence_reason = $2, reported_at = $3
		WHERE id = $1 AND status <> 'absent'`, assignmentID, reason, reportedAt)
	if err != nil {
		return err
	}
	if n, _ := resl.RowsAffected(); n == 0 {
		// missing row is an error; an already-absent row converges to nil
		var one int
		if err := database.QueryRowContext(ctx, `SELECT 1 FROM assignments WHERE id = $1`, assignmentID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSlotNotFound
			}
			return err
		}
	}
	return nil
}

// SetAssignmentStatus covers the teacher-driven lifecycle edges
// (confirmed, declined, swapped). The absent edge has its own function.
func SetAssignmentStatus(ctx context.Context, database *sql.DB, assignmentID int64, status models.AssignmentStatus) error {
	if status == models.StatusAbsent {
		return fmt.Errorf("absent is only entered via the emergency workflow")
	}
	resl, err := database.ExecContext(ctx, `
		UPDATE assignments SET status = $2
		WHERE id = $1 AND status <> 'absent'`, assignmentID, status)
	if err != nil {
		return err
	}
	if n, _ := resl.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// ListAssignmentsInRange returns persisted slots with resolved student
// names for the dashboard and the Excel export.
type AssignmentRow struct {
	Date        time.Time
	Role        models.Role
	BackupOrder int
	Status      models.AssignmentStatus
	StudentID   int64
	StudentName string
}

func ListAssignmentsInRange(ctx context.Context, database *sql.DB, from, to time.Time) ([]AssignmentRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT d.event_date, a.role, a.backup_order, a.status, s.id, s.name
		FROM assignments a
		JOIN scheduled_dates d ON d.id = a.date_id
		JOIN students s ON s.id = a.student_id
		WHERE d.event_date >= $1 AND d.event_date < $2
		ORDER BY d.event_date, a.role, a.backup_order`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignmentRow
	for rows.Next() {
		var r AssignmentRow
		if err := rows.Scan(&r.Date, &r.Role, &r.BackupOrder, &r.Status, &r.StudentID, &r.StudentName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
