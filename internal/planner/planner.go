package planner

import (
	"context"
	"fmt"

	"github.com/fishnet-edu/fishnet/internal/models"
	"github.com/fishnet-edu/fishnet/internal/schedule"
)

// Generator is the external plan-generation oracle. Implementations are
// opaque and may violate hard constraints; callers must run the returned
// plan through schedule.ValidateAndRepair before trusting it.
type Generator interface {
	Propose(ctx context.Context, b *schedule.Bundle) (*models.AssignmentPlan, error)
}

// GenerationError means no plan was produced at all, as opposed to a plan
// with warnings. Any structurally malformed oracle response maps here,
// never to a partial plan.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan generation failed: %s: %v", e.Reason, e.Err)
	}
	return "plan generation failed: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }
