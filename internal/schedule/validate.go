package schedule

import (
	"fmt"

	"github.com/fishnet-edu/fishnet/internal/metrics"
	"github.com/fishnet-edu/fishnet/internal/models"
)

// ValidateAndRepair enforces the hard invariants the generator is not
// trusted to respect. It clears illegal assignees, never substitutes its own
// picks, and downgrades every violation to a warning: an imperfect plan a
// teacher can act on beats no plan.
//
// Repairs and checks, per entry:
//   - accompaniment-type roles: each of primary/backup1/backup2 must be in
//     the date's instrument-capable subset, re-derived here from the bundle;
//     offenders are cleared to empty with a warning.
//   - same-date double primary: flagged, never auto-fixed, so generator
//     errors stay visible.
//   - empty primary after repair: distinct "needs manual assignment" warning.
func ValidateAndRepair(plan *models.AssignmentPlan, b *Bundle) *models.AssignmentPlan {
	out := &models.AssignmentPlan{
		RunID:    plan.RunID,
		Entries:  make([]models.PlanEntry, len(plan.Entries)),
		Warnings: append([]string(nil), plan.Warnings...),
	}
	copy(out.Entries, plan.Entries)

	for i := range out.Entries {
		e := &out.Entries[i]
		dc, ok := b.ByDateID(e.DateID)
		if !ok {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s %s: not part of this scheduling run, entry ignored by checks", e.Date, e.Role))
			continue
		}
		if e.Role.RequiresInstrument() {
			for _, slot := range []*string{&e.PrimaryKey, &e.Backup1Key, &e.Backup2Key} {
				if *slot == "" || dc.HasInstrument(*slot) {
					continue
				}
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s %s: cleared %q (not instrument-capable)", e.Date, e.Role, *slot))
				metrics.PlanWarnings.WithLabelValues("skill").Inc()
				*slot = ""
			}
		}
		// advisory only: surfaced, never stripped
		if e.PrimaryKey != "" && dc.IsNewMember(e.PrimaryKey) && !e.Role.LowestDifficulty() {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s %s: %q is a new member outside the recommended role", e.Date, e.Role, e.PrimaryKey))
			metrics.PlanWarnings.WithLabelValues("new_member").Inc()
		}
	}

	// same-date primary exclusivity spans entries, so it runs over the
	// repaired plan as a whole
	type slot struct {
		date string
		key  string
	}
	firstRole := make(map[slot]models.Role)
	for _, e := range out.Entries {
		if e.PrimaryKey == "" {
			continue
		}
		s := slot{date: e.Date, key: e.PrimaryKey}
		if prev, dup := firstRole[s]; dup {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %q is primary for both %s and %s", e.Date, e.PrimaryKey, prev, e.Role))
			metrics.PlanWarnings.WithLabelValues("double_primary").Inc()
			continue
		}
		firstRole[s] = e.Role
	}

	for _, e := range out.Entries {
		if e.PrimaryKey == "" {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s %s: needs manual assignment", e.Date, e.Role))
			metrics.PlanWarnings.WithLabelValues("unfilled").Inc()
		}
	}
	return out
}
