package backup

import (
	"testing"

	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/models"
)

func rec(id, student int64, order int, status models.AssignmentStatus) *models.AssignmentRecord {
	return &models.AssignmentRecord{ID: id, StudentID: student, BackupOrder: order, Status: status}
}

func TestCandidatesOrdered(t *testing.T) {
	slot := &db.Slot{
		Role:    models.RoleReading,
		Primary: rec(1, 100, 0, models.StatusAbsent),
		Backup1: rec(2, 101, 1, models.StatusAssigned),
		Backup2: rec(3, 102, 2, models.StatusAssigned),
	}
	got := Candidates(slot)
	if len(got) != 2 {
		t.Fatalf("candidates = %d", len(got))
	}
	if got[0].StudentID != 101 || got[1].StudentID != 102 {
		t.Fatalf("cascade order wrong: %d, %d", got[0].StudentID, got[1].StudentID)
	}
}

func TestCandidatesSkipAbsentBackup(t *testing.T) {
	slot := &db.Slot{
		Primary: rec(1, 100, 0, models.StatusAbsent),
		Backup1: rec(2, 101, 1, models.StatusAbsent),
		Backup2: rec(3, 102, 2, models.StatusConfirmed),
	}
	got := Candidates(slot)
	if len(got) != 1 || got[0].StudentID != 102 {
		t.Fatalf("candidates = %+v", got)
	}
}

func TestCandidatesExhausted(t *testing.T) {
	slot := &db.Slot{Primary: rec(1, 100, 0, models.StatusAbsent)}
	if got := Candidates(slot); len(got) != 0 {
		t.Fatalf("candidates = %+v", got)
	}
}
