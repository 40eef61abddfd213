//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/roster"
	"github.com/fishnet-edu/fishnet/internal/testutil/testdb"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func seedRoster(ctx context.Context, t *testing.T, h *testdb.DBHandle) ([]models.Student, *roster.Resolver) {
	t.Helper()
	names := []struct {
		name      string
		secondary *string
		grade     *string
		instr     bool
	}{
		{"김하늘", ptr("마리아"), ptr("중2"), true},
		{"이서준", nil, ptr("중1"), false},
		{"박지민", nil, ptr("중3"), true},
	}
	for _, n := range names {
		if _, err := h.DB.ExecContext(ctx, `
			INSERT INTO students (name, secondary_name, grade, can_play_instrument)
			VALUES ($1, $2, $3, $4)`, n.name, n.secondary, n.grade, n.instr); err != nil {
			t.Fatal(err)
		}
	}
	students, err := db.ListActiveStudents(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	res, err := roster.NewResolver(students)
	if err != nil {
		t.Fatal(err)
	}
	return students, res
}

func ptr(s string) *string { return &s }

func TestReplacePlanWholesale(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	students, res := seedRoster(ctx, t, h)
	dateID, err := db.CreateScheduledDate(ctx, h.DB, day("2026-03-01"),
		[]models.Role{models.RoleReading, models.RolePrayer})
	if err != nil {
		t.Fatal(err)
	}

	k := func(i int) string { return res.Key(students[i].ID) }
	first := &models.AssignmentPlan{Entries: []models.PlanEntry{
		{DateID: dateID, Date: "2026-03-01", Role: models.RoleReading, PrimaryKey: k(0), Backup1Key: k(1)},
		{DateID: dateID, Date: "2026-03-01", Role: models.RolePrayer, PrimaryKey: k(2)},
	}}
	if err := db.ReplacePlanForDates(ctx, h.DB, first, res); err != nil {
		t.Fatal(err)
	}

	// second run replaces the date wholesale, not per-row
	second := &models.AssignmentPlan{Entries: []models.PlanEntry{
		{DateID: dateID, Date: "2026-03-01", Role: models.RoleReading, PrimaryKey: k(2)},
		{DateID: dateID, Date: "2026-03-01", Role: models.RolePrayer, PrimaryKey: k(1)},
	}}
	if err := db.ReplacePlanForDates(ctx, h.DB, second, res); err != nil {
		t.Fatal(err)
	}

	rows, err := db.ListAssignmentsInRange(ctx, h.DB, day("2026-03-01"), day("2026-03-02"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows after replace = %d, want 2", len(rows))
	}
	wantReading := students[2].Name
	for _, r := range rows {
		if r.Role == models.RoleReading && r.StudentName != wantReading {
			t.Fatalf("reading primary = %s, want %s", r.StudentName, wantReading)
		}
	}
}

func TestMarkAbsentIsOneWay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	students, res := seedRoster(ctx, t, h)
	dateID, err := db.CreateScheduledDate(ctx, h.DB, day("2026-03-01"), []models.Role{models.RoleReading})
	if err != nil {
		t.Fatal(err)
	}
	plan := &models.AssignmentPlan{Entries: []models.PlanEntry{
		{DateID: dateID, Date: "2026-03-01", Role: models.RoleReading, PrimaryKey: res.Key(students[0].ID)},
	}}
	if err := db.ReplacePlanForDates(ctx, h.DB, plan, res); err != nil {
		t.Fatal(err)
	}

	slot, err := db.GetSlot(ctx, h.DB, dateID, models.RoleReading)
	if err != nil {
		t.Fatal(err)
	}
	reported := time.Now().UTC().Truncate(time.Second)
	if err := db.MarkAbsent(ctx, h.DB, slot.Primary.ID, "독감", reported); err != nil {
		t.Fatal(err)
	}

	// duplicate report converges without clobbering the first reason
	if err := db.MarkAbsent(ctx, h.DB, slot.Primary.ID, "다른 이유", reported.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	slot, err = db.GetSlot(ctx, h.DB, dateID, models.RoleReading)
	if err != nil {
		t.Fatal(err)
	}
	if slot.Primary.Status != models.StatusAbsent {
		t.Fatalf("status = %s", slot.Primary.Status)
	}
	if slot.Primary.AbsenceReason == nil || *slot.Primary.AbsenceReason != "독감" {
		t.Fatalf("reason overwritten: %v", slot.Primary.AbsenceReason)
	}

	// confirmed/declined edges are blocked once absent
	if err := db.SetAssignmentStatus(ctx, h.DB, slot.Primary.ID, models.StatusConfirmed); err == nil {
		t.Fatal("absent record must not revert")
	}

	// a report against a row that does not exist is an error, not a no-op
	if err := db.MarkAbsent(ctx, h.DB, slot.Primary.ID+1000, "x", reported); !errors.Is(err, db.ErrSlotNotFound) {
		t.Fatalf("missing row: err = %v, want ErrSlotNotFound", err)
	}
}

func TestAttendanceUpsertLastWriteWins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	students, _ := seedRoster(ctx, t, h)
	sid := students[0].ID
	d := day("2026-03-01")

	// lazy creation: reading before any write yields unknown
	rec, err := db.GetAttendance(ctx, h.DB, sid, d)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.AttendanceUnknown {
		t.Fatalf("initial status = %s", rec.Status)
	}

	reason := "가족 행사"
	writes := []models.AttendanceRecord{
		{StudentID: sid, Date: d, Status: models.AttendanceAbsentWithReason, Reason: &reason, ConfirmedBy: models.ConfirmedAuto},
		{StudentID: sid, Date: d, Status: models.AttendancePresent, ConfirmedBy: models.ConfirmedTeacher},
	}
	for _, w := range writes {
		if err := db.UpsertAttendance(ctx, h.DB, w); err != nil {
			t.Fatal(err)
		}
	}

	rec, err = db.GetAttendance(ctx, h.DB, sid, d)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.AttendancePresent || rec.ConfirmedBy != models.ConfirmedTeacher {
		t.Fatalf("last write lost: %+v", rec)
	}

	all, err := db.ListAttendanceForDate(ctx, h.DB, d)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("duplicate rows for one (student, date): %d", len(all))
	}
}
