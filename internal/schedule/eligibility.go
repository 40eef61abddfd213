package schedule

import (
	"errors"
	"sort"
	"time"

	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/roster"
)

// Configuration errors abort a run before any oracle call.
var (
	ErrNoScheduledDates = errors.New("no scheduled dates in range")
	ErrEmptyRoster      = errors.New("no active students in roster")
)

// BlockedStudent records why a cooldown-blocked student may only be a backup.
type BlockedStudent struct {
	Key         string      `json:"key"`
	LastPrimary string      `json:"lastPrimary"` // YYYY-MM-DD
	LastRole    models.Role `json:"lastRole"`
}

// DateCandidates holds the named candidate subsets for one scheduled date.
// All key slices are sorted; the structure is never mutated after Compute.
type DateCandidates struct {
	DateID int64         `json:"dateId"`
	Date   string        `json:"date"` // YYYY-MM-DD
	Roles  []models.Role `json:"roles"`

	Eligible          []string          `json:"eligible"`
	PrimaryEligible   []string          `json:"primaryEligible"`
	InstrumentCapable []string          `json:"instrumentCapable"`
	CooldownBlocked   []BlockedStudent  `json:"cooldownBlocked"`
	NewMembers        []string          `json:"newMembers"`
	StatedAvailable   []string          `json:"statedAvailable"`
	StatedUncertain   []string          `json:"statedUncertain"`
	Comments          map[string]string `json:"comments,omitempty"`
}

// Bundle is the candidate package handed to the plan generator. Built fresh
// per scheduling run; deterministic for identical inputs, so re-running on
// an unchanged snapshot marshals to byte-identical JSON.
type Bundle struct {
	CooldownDays int              `json:"cooldownDays"`
	Dates        []DateCandidates `json:"dates"`
	PrimaryTally map[string]int   `json:"primaryTally,omitempty"`
}

// ComputeInputs is the read-only snapshot a run works from.
type ComputeInputs struct {
	Students     []models.Student
	Dates        []models.ScheduledDate
	Availability []models.AvailabilityResponse
	History      []models.PriorAssignment // primaries before the window
	CooldownDays int
	WindowStart  time.Time
}

// Compute derives the per-date candidate subsets. Rules, in order:
// stated "unavailable" excludes (no response does not); cooldown removes a
// student from the primary set but keeps them eligible as backup; the
// instrument subset is materialized by name so the generator sees it and the
// validator can re-derive it; the new-member subset is advisory only.
func Compute(in ComputeInputs, res *roster.Resolver) (*Bundle, error) {
	if len(in.Dates) == 0 {
		return nil, ErrNoScheduledDates
	}
	if len(in.Students) == 0 {
		return nil, ErrEmptyRoster
	}

	tracker := NewCooldownTracker(in.History, in.WindowStart)

	// (studentID, dateID) -> response
	avail := make(map[int64]map[int64]models.AvailabilityResponse)
	for _, a := range in.Availability {
		m, ok := avail[a.DateID]
		if !ok {
			m = make(map[int64]models.AvailabilityResponse)
			avail[a.DateID] = m
		}
		m[a.StudentID] = a
	}

	b := &Bundle{
		CooldownDays: in.CooldownDays,
		Dates:        make([]DateCandidates, 0, len(in.Dates)),
		PrimaryTally: make(map[string]int),
	}
	for _, s := range in.Students {
		if !s.IsActive {
			continue
		}
		b.PrimaryTally[res.Key(s.ID)] = tracker.PrimaryCount(s.ID)
	}

	dates := make([]models.ScheduledDate, len(in.Dates))
	copy(dates, in.Dates)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Date.Before(dates[j].Date) })

	for _, d := range dates {
		dc := DateCandidates{
			DateID:   d.ID,
			Date:     d.Date.Format("2006-01-02"),
			Roles:    d.Roles,
			Comments: make(map[string]string),
		}
		responses := avail[d.ID]

		for _, s := range in.Students {
			if !s.IsActive {
				continue
			}
			key := res.Key(s.ID)
			resp, answered := responses[s.ID]
			if answered && resp.Status == models.Unavailable {
				continue
			}
			dc.Eligible = append(dc.Eligible, key)

			if tracker.Blocked(s.ID, d.Date, in.CooldownDays) {
				lp, _ := tracker.Last(s.ID)
				dc.CooldownBlocked = append(dc.CooldownBlocked, BlockedStudent{
					Key:         key,
					LastPrimary: lp.Date.Format("2006-01-02"),
					LastRole:    lp.Role,
				})
			} else {
				dc.PrimaryEligible = append(dc.PrimaryEligible, key)
			}
			if s.CanPlayInstrument {
				dc.InstrumentCapable = append(dc.InstrumentCapable, key)
			}
			if s.IsNewMember {
				dc.NewMembers = append(dc.NewMembers, key)
			}
			if answered {
				switch resp.Status {
				case models.Available:
					dc.StatedAvailable = append(dc.StatedAvailable, key)
				case models.Uncertain:
					dc.StatedUncertain = append(dc.StatedUncertain, key)
				}
				if resp.Comment != nil && *resp.Comment != "" {
					dc.Comments[key] = *resp.Comment
				}
			}
		}

		sort.Strings(dc.Eligible)
		sort.Strings(dc.PrimaryEligible)
		sort.Strings(dc.InstrumentCapable)
		sort.Strings(dc.NewMembers)
		sort.Strings(dc.StatedAvailable)
		sort.Strings(dc.StatedUncertain)
		sort.Slice(dc.CooldownBlocked, func(i, j int) bool { return dc.CooldownBlocked[i].Key < dc.CooldownBlocked[j].Key })
		if len(dc.Comments) == 0 {
			dc.Comments = nil
		}
		b.Dates = append(b.Dates, dc)
	}
	return b, nil
}

// EligibleFor applies the role's skill restriction to the general set.
func (dc *DateCandidates) EligibleFor(role models.Role) []string {
	if !role.RequiresInstrument() {
		return dc.Eligible
	}
	return intersect(dc.Eligible, dc.InstrumentCapable)
}

// PrimaryEligibleFor applies the role's skill restriction to the primary set.
func (dc *DateCandidates) PrimaryEligibleFor(role models.Role) []string {
	if !role.RequiresInstrument() {
		return dc.PrimaryEligible
	}
	return intersect(dc.PrimaryEligible, dc.InstrumentCapable)
}

// HasInstrument reports membership in the date's instrument-capable subset.
func (dc *DateCandidates) HasInstrument(key string) bool {
	i := sort.SearchStrings(dc.InstrumentCapable, key)
	return i < len(dc.InstrumentCapable) && dc.InstrumentCapable[i] == key
}

// IsNewMember reports membership in the date's new-member subset.
func (dc *DateCandidates) IsNewMember(key string) bool {
	i := sort.SearchStrings(dc.NewMembers, key)
	return i < len(dc.NewMembers) && dc.NewMembers[i] == key
}

// ByDateID finds a date's candidates inside the bundle.
func (b *Bundle) ByDateID(dateID int64) (*DateCandidates, bool) {
	for i := range b.Dates {
		if b.Dates[i].DateID == dateID {
			return &b.Dates[i], true
		}
	}
	return nil, false
}

// intersect assumes both inputs sorted and returns a sorted result.
func intersect(a, b []string) []string {
	out := make([]string, 0, len(a))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
