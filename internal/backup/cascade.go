package backup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fishnet-edu/fishnet/internal/attendance"
	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/metrics"
	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/notify"
	"github.com/fishnet-edu/fishnet/internal/roster"
)

// Candidates returns the ordered substitute list for a slot: backup1 then
// backup2. Pure lookup: backups were filtered for eligibility at plan
// generation time, so no re-check happens here. Already-absent backups are
// skipped; they cannot substitute.
func Candidates(slot *db.Slot) []*models.AssignmentRecord {
	var out []*models.AssignmentRecord
	for _, b := range []*models.AssignmentRecord{slot.Backup1, slot.Backup2} {
		if b != nil && b.Status != models.StatusAbsent {
			out = append(out, b)
		}
	}
	return out
}

// Report is an emergency absence: the primary's self-report or a teacher
// acting on their behalf.
type Report struct {
	DateID     int64
	Role       models.Role
	Reason     string
	ReportedAt time.Time
}

// Outcome tells the caller how the empty slot gets filled: a substitution
// draft for the first available backup, or a manual-intervention flag when
// the cascade is exhausted. The engine never guesses a replacement.
type Outcome struct {
	Absent          *models.AssignmentRecord
	Substitutes     []*models.AssignmentRecord
	Draft           *notify.Draft
	NeedsManual     bool
	AttendanceNoted bool
}

// Workflow wires the one-way absent transition, the attendance side
// channel, and the cascade lookup.
type Workflow struct {
	DB         *sql.DB
	Attendance *attendance.Machine
	Sink       notify.Sink
	Log        *zap.Logger
}

// ReportAbsence runs the emergency workflow for the primary of (date, role).
func (w *Workflow) ReportAbsence(ctx context.Context, rep Report) (*Outcome, error) {
	if rep.Reason == "" {
		return nil, fmt.Errorf("absence reason must not be empty")
	}
	slot, err := db.GetSlot(ctx, w.DB, rep.DateID, rep.Role)
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if slot.Primary == nil {
		return nil, fmt.Errorf("%s %s has no primary to report absent", slot.Date.Format("2006-01-02"), rep.Role)
	}
	metrics.AbsenceReports.Inc()

	// one-way transition; a duplicate report is a no-op
	if err := db.MarkAbsent(ctx, w.DB, slot.Primary.ID, rep.Reason, rep.ReportedAt); err != nil {
		return nil, fmt.Errorf("mark absent: %w", err)
	}
	slot.Primary.Status = models.StatusAbsent

	out := &Outcome{Absent: slot.Primary}

	// attendance is tracked separately from the role record: presence
	// matters even for students with no role that day
	if err := w.Attendance.MarkAutoAbsent(ctx, slot.Primary.StudentID, slot.Date, rep.Reason); err != nil {
		// the absent transition already committed; re-submitting the
		// report is a no-op there and retries only this write
		w.Log.Error("attendance record missing after absence report",
			zap.Int64("student_id", slot.Primary.StudentID),
			zap.String("date", slot.Date.Format("2006-01-02")),
			zap.Error(err))
		return nil, fmt.Errorf("absence recorded, attendance update failed (re-submit the report to retry): %w", err)
	}
	out.AttendanceNoted = true

	out.Substitutes = Candidates(slot)
	if len(out.Substitutes) == 0 {
		out.NeedsManual = true
		w.Log.Warn("backup cascade exhausted, manual substitution needed",
			zap.String("date", slot.Date.Format("2006-01-02")),
			zap.String("role", string(rep.Role)))
		return out, nil
	}

	first := out.Substitutes[0]
	key := w.keyFor(ctx, first.StudentID)
	draft := notify.SubstitutionRequest(slot.Date.Format("2006-01-02"), rep.Role, key)
	out.Draft = &draft
	if err := w.Sink.Deliver(ctx, draft); err != nil {
		// composition succeeded; delivery failure is the sink's problem
		// to retry, not a reason to lose the absence record
		w.Log.Error("substitution draft delivery failed", zap.Error(err))
	}
	return out, nil
}

func (w *Workflow) keyFor(ctx context.Context, studentID int64) string {
	s, err := db.GetStudent(ctx, w.DB, studentID)
	if err != nil {
		return fmt.Sprintf("student-%d", studentID)
	}
	return roster.KeyFor(*s)
}
