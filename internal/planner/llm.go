package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/schedule"
)

// LLMGenerator calls the external Fish-Net agent endpoint. The whole call is
// bounded by the configured timeout on top of the caller's context, so the
// deterministic pre/post steps stay cancellable independently.
type LLMGenerator struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	Client  *http.Client
}

func NewLLMGenerator(url, apiKey string, timeout time.Duration) *LLMGenerator {
	return &LLMGenerator{
		URL:     url,
		APIKey:  apiKey,
		Timeout: timeout,
		Client:  &http.Client{Timeout: timeout},
	}
}

type oracleRequest struct {
	System string           `json:"system"`
	Bundle *schedule.Bundle `json:"bundle"`
}

// oracleResponse: a structured plan, or raw text we extract JSON from.
type oracleResponse struct {
	Plan *rawPlan `json:"plan"`
	Text string   `json:"text"`
}

type rawPlan struct {
	Assignments []rawAssignment `json:"assignments"`
}

type rawAssignment struct {
	Date    string `json:"date"`
	Role    string `json:"role"`
	Primary string `json:"primary"`
	Backup1 string `json:"backup1"`
	Backup2 string `json:"backup2"`
}

func (g *LLMGenerator) Propose(ctx context.Context, b *schedule.Bundle) (*models.AssignmentPlan, error) {
	if g.URL == "" {
		return nil, &GenerationError{Reason: "oracle URL not configured"}
	}
	body, err := json.Marshal(oracleRequest{System: systemPrompt, Bundle: b})
	if err != nil {
		return nil, &GenerationError{Reason: "encode request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &GenerationError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, &GenerationError{Reason: "oracle unavailable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, &GenerationError{Reason: fmt.Sprintf("oracle http %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))}
	}

	var or oracleResponse
	if err := json.Unmarshal(data, &or); err != nil {
		return nil, &GenerationError{Reason: "malformed oracle response", Err: err}
	}
	rp := or.Plan
	if rp == nil {
		rp, err = extractPlan(or.Text)
		if err != nil {
			return nil, &GenerationError{Reason: "no plan in oracle response", Err: err}
		}
	}
	return bindPlan(rp, b)
}

// extractPlan recovers a plan from free text; models sometimes wrap the
// JSON in a fence despite the contract.
func extractPlan(text string) (*rawPlan, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, fmt.Errorf("empty text")
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	} else if i := strings.Index(s, "{"); i > 0 {
		s = s[i:]
		if j := strings.LastIndex(s, "}"); j >= 0 {
			s = s[:j+1]
		}
	}
	var rp rawPlan
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

// bindPlan checks the structural contract (known dates, known roles, one
// entry per required slot, assignments present) and binds entries to bundle
// date ids. Anything missing here is a generation failure, not a repairable
// plan: a duplicated slot would not even be persistable.
func bindPlan(rp *rawPlan, b *schedule.Bundle) (*models.AssignmentPlan, error) {
	if rp == nil || len(rp.Assignments) == 0 {
		return nil, &GenerationError{Reason: "response has no assignments"}
	}
	byDate := make(map[string]*schedule.DateCandidates, len(b.Dates))
	for i := range b.Dates {
		byDate[b.Dates[i].Date] = &b.Dates[i]
	}
	type slotID struct {
		dateID int64
		role   models.Role
	}
	seen := make(map[slotID]bool, len(rp.Assignments))
	plan := &models.AssignmentPlan{Entries: make([]models.PlanEntry, 0, len(rp.Assignments))}
	for _, a := range rp.Assignments {
		if a.Date == "" || a.Role == "" {
			return nil, &GenerationError{Reason: "assignment missing date or role"}
		}
		dc, ok := byDate[a.Date]
		if !ok {
			return nil, &GenerationError{Reason: fmt.Sprintf("assignment for date %s outside the bundle", a.Date)}
		}
		role, err := models.ParseRole(a.Role)
		if err != nil {
			return nil, &GenerationError{Reason: "bad role", Err: err}
		}
		if !hasRole(dc.Roles, role) {
			return nil, &GenerationError{Reason: fmt.Sprintf("role %s is not required on %s", role, a.Date)}
		}
		s := slotID{dateID: dc.DateID, role: role}
		if seen[s] {
			return nil, &GenerationError{Reason: fmt.Sprintf("duplicate assignment for %s %s", a.Date, role)}
		}
		seen[s] = true
		plan.Entries = append(plan.Entries, models.PlanEntry{
			DateID:     dc.DateID,
			Date:       a.Date,
			Role:       role,
			PrimaryKey: a.Primary,
			Backup1Key: a.Backup1,
			Backup2Key: a.Backup2,
		})
	}
	return plan, nil
}

func hasRole(roles []models.Role, r models.Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}
