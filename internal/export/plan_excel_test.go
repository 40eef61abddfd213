package export

import (
	"testing"
	"time"

	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/models"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestBuildPlanWorkbook(t *testing.T) {
	rows := []db.AssignmentRow{
		{Date: day("2026-03-01"), Role: models.RoleReading, BackupOrder: 0, Status: models.StatusAssigned, StudentName: "김하늘"},
		{Date: day("2026-03-01"), Role: models.RoleReading, BackupOrder: 1, Status: models.StatusAssigned, StudentName: "이서준"},
		{Date: day("2026-03-01"), Role: models.RoleAccompaniment, BackupOrder: 0, Status: models.StatusAbsent, StudentName: "박지민"},
		{Date: day("2026-04-05"), Role: models.RolePrayer, BackupOrder: 0, Status: models.StatusConfirmed, StudentName: "최유나"},
	}
	f, err := BuildPlanWorkbook(rows)
	if err != nil {
		t.Fatal(err)
	}

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("sheets = %v", sheets)
	}

	got, err := f.GetCellValue("2026-03", "B2")
	if err != nil {
		t.Fatal(err)
	}
	if got != models.RoleReading.Label() {
		t.Fatalf("role label = %q", got)
	}
	primary, _ := f.GetCellValue("2026-03", "C2")
	if primary != "김하늘" {
		t.Fatalf("primary = %q", primary)
	}
	backup1, _ := f.GetCellValue("2026-03", "D2")
	if backup1 != "이서준" {
		t.Fatalf("backup1 = %q", backup1)
	}
	status, _ := f.GetCellValue("2026-03", "F3")
	if status != "불참" {
		t.Fatalf("status = %q", status)
	}
	april, _ := f.GetCellValue("2026-04", "C2")
	if april != "최유나" {
		t.Fatalf("april primary = %q", april)
	}
}

func TestBuildPlanFilename(t *testing.T) {
	name := BuildPlanFilename(day("2026-03-01"), day("2026-04-01"))
	if name != "역할 배정표 2026-03-01 ~ 2026-03-31.xlsx" {
		t.Fatalf("name = %q", name)
	}
}
