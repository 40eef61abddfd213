package schedule

import (
	"time"

	"github.com/fishnet-edu/fishnet/internal/models"
)

// LastPrimary is the single record that matters for cooldown: the most
// recent primary assignment strictly before the scheduling window.
type LastPrimary struct {
	Date time.Time
	Role models.Role
}

// CooldownTracker folds primary history into per-student last-primary info
// plus a fairness tally (total primary count). Older records only feed the
// tally; they never affect cooldown.
type CooldownTracker struct {
	last  map[int64]LastPrimary
	tally map[int64]int
}

// NewCooldownTracker ingests history, ignoring non-primary records and
// records on or after windowStart.
func NewCooldownTracker(history []models.PriorAssignment, windowStart time.Time) *CooldownTracker {
	t := &CooldownTracker{
		last:  make(map[int64]LastPrimary),
		tally: make(map[int64]int),
	}
	for _, h := range history {
		if !h.IsPrimary || !h.Date.Before(windowStart) {
			continue
		}
		t.tally[h.StudentID]++
		if cur, ok := t.last[h.StudentID]; !ok || h.Date.After(cur.Date) {
			t.last[h.StudentID] = LastPrimary{Date: h.Date, Role: h.Role}
		}
	}
	return t
}

// Last returns the most recent primary assignment before the window, if any.
func (t *CooldownTracker) Last(studentID int64) (LastPrimary, bool) {
	lp, ok := t.last[studentID]
	return lp, ok
}

// PrimaryCount is the fairness tally; a plain count, not a constraint.
func (t *CooldownTracker) PrimaryCount(studentID int64) int { return t.tally[studentID] }

// Blocked reports whether the student is cooldown-blocked for date d:
// strictly fewer than cooldownDays days since the last primary. Exactly
// cooldownDays days is eligible again.
func (t *CooldownTracker) Blocked(studentID int64, d time.Time, cooldownDays int) bool {
	lp, ok := t.last[studentID]
	if !ok {
		return false
	}
	return d.Sub(lp.Date) < time.Duration(cooldownDays)*24*time.Hour
}
