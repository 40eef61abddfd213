package schedule

import (
	"strings"
	"testing"

	"github.com/fishnet-edu/fishnet/internal/models"
)

func bundleForValidation(t *testing.T) *Bundle {
	t.Helper()
	students, res := roster4(t)
	in := ComputeInputs{
		Students:     students,
		Dates:        []models.ScheduledDate{{ID: 10, Date: day("2026-03-01"), Roles: allRoles()}},
		CooldownDays: 14,
		WindowStart:  day("2026-03-01"),
	}
	b, err := Compute(in, res)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRepairClearsNonInstrumentAssignee(t *testing.T) {
	b := bundleForValidation(t)
	plan := &models.AssignmentPlan{Entries: []models.PlanEntry{
		{DateID: 10, Date: "2026-03-01", Role: models.RoleAccompaniment,
			PrimaryKey: "이서준", Backup1Key: "Kim (Maria)", Backup2Key: "Kim (중2)"},
	}}

	out := ValidateAndRepair(plan, b)
	e := out.Entries[0]
	if e.PrimaryKey != "" {
		t.Fatalf("non-capable primary not cleared: %q", e.PrimaryKey)
	}
	if e.Backup1Key != "Kim (Maria)" {
		t.Fatalf("capable backup1 wrongly touched: %q", e.Backup1Key)
	}
	if e.Backup2Key != "" {
		t.Fatalf("non-capable backup2 not cleared: %q", e.Backup2Key)
	}
	// the cleared slot is never re-filled with the validator's own pick
	if !hasWarning(out.Warnings, "2026-03-01 accompaniment") || !hasWarning(out.Warnings, "이서준") {
		t.Fatalf("warnings = %v", out.Warnings)
	}
	if !hasWarning(out.Warnings, "needs manual assignment") {
		t.Fatalf("empty primary must get the manual-assignment warning: %v", out.Warnings)
	}
	// original plan untouched
	if plan.Entries[0].PrimaryKey != "이서준" {
		t.Fatal("input plan mutated")
	}
}

func TestDoublePrimaryFlaggedNotFixed(t *testing.T) {
	b := bundleForValidation(t)
	plan := &models.AssignmentPlan{Entries: []models.PlanEntry{
		{DateID: 10, Date: "2026-03-01", Role: models.RoleReading, PrimaryKey: "박지민"},
		{DateID: 10, Date: "2026-03-01", Role: models.RolePrayer, PrimaryKey: "박지민"},
	}}
	out := ValidateAndRepair(plan, b)
	if out.Entries[0].PrimaryKey != "박지민" || out.Entries[1].PrimaryKey != "박지민" {
		t.Fatal("double primary must stay in the plan")
	}
	if !hasWarning(out.Warnings, "primary for both reading and prayer") {
		t.Fatalf("warnings = %v", out.Warnings)
	}
}

func TestConformantPlanRoundTrips(t *testing.T) {
	b := bundleForValidation(t)
	plan := &models.AssignmentPlan{Entries: []models.PlanEntry{
		{DateID: 10, Date: "2026-03-01", Role: models.RoleReading, PrimaryKey: "박지민", Backup1Key: "Kim (중2)"},
		{DateID: 10, Date: "2026-03-01", Role: models.RoleAccompaniment, PrimaryKey: "Kim (Maria)", Backup1Key: "박지민"},
		{DateID: 10, Date: "2026-03-01", Role: models.RolePrayer, PrimaryKey: "이서준"},
	}}
	out := ValidateAndRepair(plan, b)
	if len(out.Warnings) != 0 {
		t.Fatalf("conformant plan produced warnings: %v", out.Warnings)
	}
	for i := range plan.Entries {
		if out.Entries[i] != plan.Entries[i] {
			t.Fatalf("entry %d changed: %+v -> %+v", i, plan.Entries[i], out.Entries[i])
		}
	}
}

func TestNewMemberOutsidePrayerIsAdvisory(t *testing.T) {
	b := bundleForValidation(t)
	plan := &models.AssignmentPlan{Entries: []models.PlanEntry{
		{DateID: 10, Date: "2026-03-01", Role: models.RoleReading, PrimaryKey: "이서준"},
	}}
	out := ValidateAndRepair(plan, b)
	if out.Entries[0].PrimaryKey != "이서준" {
		t.Fatal("advisory restriction must not strip the assignment")
	}
	if !hasWarning(out.Warnings, "new member") {
		t.Fatalf("warnings = %v", out.Warnings)
	}
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
