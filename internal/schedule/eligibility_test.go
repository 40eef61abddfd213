package schedule

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/roster"
)

func str(s string) *string { return &s }

func roster4(t *testing.T) ([]models.Student, *roster.Resolver) {
	t.Helper()
	students := []models.Student{
		{ID: 1, Name: "Kim", Grade: str("중2"), IsActive: true},
		{ID: 2, Name: "Kim", SecondaryName: str("Maria"), CanPlayInstrument: true, IsActive: true},
		{ID: 3, Name: "이서준", IsNewMember: true, IsActive: true},
		{ID: 4, Name: "박지민", CanPlayInstrument: true, IsActive: true},
	}
	res, err := roster.NewResolver(students)
	if err != nil {
		t.Fatal(err)
	}
	return students, res
}

func allRoles() []models.Role {
	return []models.Role{models.RoleReading, models.RoleAccompaniment, models.RolePrayer}
}

func TestComputeSubsets(t *testing.T) {
	students, res := roster4(t)
	target := day("2026-03-01")

	in := ComputeInputs{
		Students: students,
		Dates:    []models.ScheduledDate{{ID: 10, Date: target, Roles: allRoles()}},
		Availability: []models.AvailabilityResponse{
			{StudentID: 4, DateID: 10, Status: models.Unavailable},
			{StudentID: 2, DateID: 10, Status: models.Available, Comment: str("오전만 가능")},
			{StudentID: 3, DateID: 10, Status: models.Uncertain},
			// student 1 has no response: still eligible
		},
		History: []models.PriorAssignment{
			// 10 days before target: cooldown-blocked for primary
			{StudentID: 1, Date: day("2026-02-19"), Role: models.RoleReading, IsPrimary: true},
		},
		CooldownDays: 14,
		WindowStart:  day("2026-03-01"),
	}

	b, err := Compute(in, res)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Dates) != 1 {
		t.Fatalf("dates = %d", len(b.Dates))
	}
	dc := b.Dates[0]

	wantEligible := []string{"Kim (Maria)", "Kim (중2)", "이서준"}
	if !equalStrings(dc.Eligible, wantEligible) {
		t.Fatalf("eligible = %v", dc.Eligible)
	}
	// cooldown removes Kim (중2) from primaries only
	if !equalStrings(dc.PrimaryEligible, []string{"Kim (Maria)", "이서준"}) {
		t.Fatalf("primaryEligible = %v", dc.PrimaryEligible)
	}
	if len(dc.CooldownBlocked) != 1 || dc.CooldownBlocked[0].Key != "Kim (중2)" {
		t.Fatalf("cooldownBlocked = %v", dc.CooldownBlocked)
	}
	if dc.CooldownBlocked[0].LastPrimary != "2026-02-19" || dc.CooldownBlocked[0].LastRole != models.RoleReading {
		t.Fatalf("blocked meta = %+v", dc.CooldownBlocked[0])
	}
	// 박지민 is unavailable, so the instrument subset has one member left
	if !equalStrings(dc.InstrumentCapable, []string{"Kim (Maria)"}) {
		t.Fatalf("instrumentCapable = %v", dc.InstrumentCapable)
	}
	if !equalStrings(dc.NewMembers, []string{"이서준"}) {
		t.Fatalf("newMembers = %v", dc.NewMembers)
	}
	if !equalStrings(dc.StatedAvailable, []string{"Kim (Maria)"}) {
		t.Fatalf("statedAvailable = %v", dc.StatedAvailable)
	}
	if !equalStrings(dc.StatedUncertain, []string{"이서준"}) {
		t.Fatalf("statedUncertain = %v", dc.StatedUncertain)
	}
	if dc.Comments["Kim (Maria)"] != "오전만 가능" {
		t.Fatalf("comments = %v", dc.Comments)
	}
}

func TestPrimaryEligibleSubsetOfEligibleAndDisjointFromBlocked(t *testing.T) {
	students, res := roster4(t)
	in := ComputeInputs{
		Students: students,
		Dates: []models.ScheduledDate{
			{ID: 10, Date: day("2026-03-01"), Roles: allRoles()},
			{ID: 11, Date: day("2026-03-08"), Roles: allRoles()},
		},
		History: []models.PriorAssignment{
			{StudentID: 1, Date: day("2026-02-25"), Role: models.RolePrayer, IsPrimary: true},
			{StudentID: 2, Date: day("2026-01-01"), Role: models.RoleAccompaniment, IsPrimary: true},
		},
		CooldownDays: 14,
		WindowStart:  day("2026-03-01"),
	}
	b, err := Compute(in, res)
	if err != nil {
		t.Fatal(err)
	}
	for _, dc := range b.Dates {
		elig := make(map[string]bool)
		for _, k := range dc.Eligible {
			elig[k] = true
		}
		blocked := make(map[string]bool)
		for _, bs := range dc.CooldownBlocked {
			blocked[bs.Key] = true
			if !elig[bs.Key] {
				t.Fatalf("%s: blocked student %q not retained as backup", dc.Date, bs.Key)
			}
		}
		for _, k := range dc.PrimaryEligible {
			if !elig[k] {
				t.Fatalf("%s: primary-eligible %q outside eligible", dc.Date, k)
			}
			if blocked[k] {
				t.Fatalf("%s: %q both primary-eligible and cooldown-blocked", dc.Date, k)
			}
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	students, res := roster4(t)
	in := ComputeInputs{
		Students: students,
		Dates: []models.ScheduledDate{
			{ID: 11, Date: day("2026-03-08"), Roles: allRoles()},
			{ID: 10, Date: day("2026-03-01"), Roles: allRoles()},
		},
		Availability: []models.AvailabilityResponse{
			{StudentID: 2, DateID: 10, Status: models.Available},
		},
		History: []models.PriorAssignment{
			{StudentID: 1, Date: day("2026-02-19"), Role: models.RoleReading, IsPrimary: true},
		},
		CooldownDays: 14,
		WindowStart:  day("2026-03-01"),
	}
	first, err := Compute(in, res)
	if err != nil {
		t.Fatal(err)
	}
	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Compute(in, res)
		if err != nil {
			t.Fatal(err)
		}
		bts, err := json.Marshal(again)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, bts) {
			t.Fatalf("bundle not byte-identical on rerun:\n%s\n%s", a, bts)
		}
	}
}

func TestComputeConfigErrors(t *testing.T) {
	students, res := roster4(t)
	if _, err := Compute(ComputeInputs{Students: students}, res); err != ErrNoScheduledDates {
		t.Fatalf("err = %v", err)
	}
	in := ComputeInputs{Dates: []models.ScheduledDate{{ID: 1, Date: day("2026-03-01")}}}
	if _, err := Compute(in, res); err != ErrEmptyRoster {
		t.Fatalf("err = %v", err)
	}
}

func TestRoleRestrictedViews(t *testing.T) {
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
	dc := &b.Dates[0]
	if !equalStrings(dc.EligibleFor(models.RoleAccompaniment), []string{"Kim (Maria)", "박지민"}) {
		t.Fatalf("accompaniment eligible = %v", dc.EligibleFor(models.RoleAccompaniment))
	}
	if !equalStrings(dc.EligibleFor(models.RoleReading), dc.Eligible) {
		t.Fatal("non-instrument role must see the full eligible set")
	}
	if !dc.HasInstrument("박지민") || dc.HasInstrument("이서준") {
		t.Fatal("instrument membership wrong")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
