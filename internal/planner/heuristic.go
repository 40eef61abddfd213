package planner

import (
	"context"
	"sort"

	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/schedule"
)

// HeuristicGenerator is the deterministic in-process fallback used when no
// oracle is configured, and in tests. Greedy fill: lowest primary tally
// first, ties broken lexicographically; respects the instrument subset and
// never doubles a primary on one date. Not optimal, only legal.
type HeuristicGenerator struct{}

func (HeuristicGenerator) Propose(_ context.Context, b *schedule.Bundle) (*models.AssignmentPlan, error) {
	if len(b.Dates) == 0 {
		return nil, &GenerationError{Reason: "empty bundle"}
	}
	tally := make(map[string]int, len(b.PrimaryTally))
	for k, v := range b.PrimaryTally {
		tally[k] = v
	}

	plan := &models.AssignmentPlan{}
	for i := range b.Dates {
		dc := &b.Dates[i]
		usedPrimary := make(map[string]bool)
		usedAny := make(map[string]bool)

		for _, role := range dc.Roles {
			entry := models.PlanEntry{DateID: dc.DateID, Date: dc.Date, Role: role}

			primaries := rank(dc.PrimaryEligibleFor(role), tally)
			if role.LowestDifficulty() {
				// hint only, but the heuristic honors it when possible
				primaries = preferNewMembers(primaries, dc)
			}
			for _, k := range primaries {
				if usedPrimary[k] {
					continue
				}
				entry.PrimaryKey = k
				usedPrimary[k] = true
				usedAny[k] = true
				tally[k]++
				break
			}

			backups := rank(dc.EligibleFor(role), tally)
			for _, k := range backups {
				if k == entry.PrimaryKey || usedAny[k] {
					continue
				}
				if entry.Backup1Key == "" {
					entry.Backup1Key = k
					usedAny[k] = true
					continue
				}
				entry.Backup2Key = k
				usedAny[k] = true
				break
			}
			plan.Entries = append(plan.Entries, entry)
		}
	}
	return plan, nil
}

// rank orders keys by primary tally, then lexicographically. Input slices
// belong to the bundle and are not modified.
func rank(keys []string, tally map[string]int) []string {
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		if tally[out[i]] != tally[out[j]] {
			return tally[out[i]] < tally[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func preferNewMembers(ranked []string, dc *schedule.DateCandidates) []string {
	front := make([]string, 0, len(ranked))
	rest := make([]string, 0, len(ranked))
	for _, k := range ranked {
		if dc.IsNewMember(k) {
			front = append(front, k)
		} else {
			rest = append(rest, k)
		}
	}
	return append(front, rest...)
}
