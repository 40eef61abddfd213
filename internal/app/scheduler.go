package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fishnet-edu/fishnet/internal/ctxutil"
	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/metrics"
	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/observability"
	"github.com/fishnet-edu/fishnet/internal/planner"
	"github.com/fishnet-edu/fishnet/internal/roster"
	"github.com/fishnet-edu/fishnet/internal/schedule"
)

// Scheduler runs the request-scoped pipeline: snapshot → identity →
// eligibility → oracle → repair → persist. Everything but the oracle call
// is pure and re-runnable; the oracle call alone is retried.
type Scheduler struct {
	DB            *sql.DB
	Generator     planner.Generator
	Log           *zap.Logger
	CooldownDays  int
	OracleRetries int
}

// RunResult carries the repaired plan together with the bundle it was
// validated against, for callers that render candidate context.
type RunResult struct {
	Plan   *models.AssignmentPlan
	Bundle *schedule.Bundle
}

// GeneratePlan schedules [from, to). Configuration errors abort before any
// oracle call; a GenerationError means no plan at all; constraint
// violations come back as plan warnings, never errors.
func (s *Scheduler) GeneratePlan(ctx context.Context, from, to time.Time) (*RunResult, error) {
	runID := uuid.NewString()
	ctx = ctxutil.WithRunID(ctx, runID)
	log := s.Log.With(zap.String("run_id", runID))

	snap, err := s.loadSnapshot(ctx, from, to)
	if err != nil {
		metrics.ScheduleRuns.WithLabelValues("config_error").Inc()
		return nil, err
	}

	res, err := roster.NewResolver(snap.Students)
	if err != nil {
		// collisions poison every downstream key; fatal for the run
		metrics.ScheduleRuns.WithLabelValues("identity_collision").Inc()
		return nil, err
	}

	bundle, err := schedule.Compute(schedule.ComputeInputs{
		Students:     snap.Students,
		Dates:        snap.Dates,
		Availability: snap.Availability,
		History:      snap.History,
		CooldownDays: s.CooldownDays,
		WindowStart:  from,
	}, res)
	if err != nil {
		metrics.ScheduleRuns.WithLabelValues("config_error").Inc()
		return nil, err
	}
	log.Info("candidate bundle built",
		zap.Int("dates", len(bundle.Dates)),
		zap.Int("students", res.Len()))

	plan, err := s.propose(ctx, bundle)
	if err != nil {
		metrics.ScheduleRuns.WithLabelValues("generation_error").Inc()
		observability.CaptureErr(err)
		return nil, err
	}
	plan.RunID = runID

	repaired := schedule.ValidateAndRepair(plan, bundle)
	for _, w := range repaired.Warnings {
		log.Warn("plan warning", zap.String("warning", w))
	}

	if err := db.ReplacePlanForDates(ctx, s.DB, repaired, res); err != nil {
		metrics.ScheduleRuns.WithLabelValues("persist_error").Inc()
		observability.CaptureErr(err)
		return nil, fmt.Errorf("persist plan: %w", err)
	}
	metrics.ScheduleRuns.WithLabelValues("ok").Inc()
	log.Info("plan persisted",
		zap.Int("entries", len(repaired.Entries)),
		zap.Int("warnings", len(repaired.Warnings)))
	return &RunResult{Plan: repaired, Bundle: bundle}, nil
}

type snapshot struct {
	Students     []models.Student
	Dates        []models.ScheduledDate
	Availability []models.AvailabilityResponse
	History      []models.PriorAssignment
}

func (s *Scheduler) loadSnapshot(ctx context.Context, from, to time.Time) (*snapshot, error) {
	dbctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	students, err := db.ListActiveStudents(dbctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if len(students) == 0 {
		return nil, schedule.ErrEmptyRoster
	}
	dates, err := db.ListDatesInRange(dbctx, s.DB, from, to)
	if err != nil {
		return nil, fmt.Errorf("load dates: %w", err)
	}
	if len(dates) == 0 {
		return nil, schedule.ErrNoScheduledDates
	}
	ids := make([]int64, len(dates))
	for i, d := range dates {
		ids[i] = d.ID
	}
	avail, err := db.ListAvailabilityForDates(dbctx, s.DB, ids)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	history, err := db.ListPrimaryHistoryBefore(dbctx, s.DB, from)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return &snapshot{Students: students, Dates: dates, Availability: avail, History: history}, nil
}

// propose retries only the oracle call; the surrounding steps are pure.
func (s *Scheduler) propose(ctx context.Context, b *schedule.Bundle) (*models.AssignmentPlan, error) {
	attempts := s.OracleRetries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, &planner.GenerationError{Reason: "run cancelled", Err: err}
		}
		start := time.Now()
		plan, err := s.Generator.Propose(ctx, b)
		metrics.OracleLatency.Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.OracleCalls.WithLabelValues("ok").Inc()
			return plan, nil
		}
		metrics.OracleCalls.WithLabelValues("error").Inc()
		lastErr = err
		s.Log.Warn("oracle attempt failed", zap.Int("attempt", i+1), zap.Error(err))
	}
	var genErr *planner.GenerationError
	if errors.As(lastErr, &genErr) {
		return nil, lastErr
	}
	return nil, &planner.GenerationError{Reason: "oracle failed", Err: lastErr}
}
