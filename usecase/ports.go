package usecase

import (
	"context"

	"github.com/campushub/backend/domain"
)

// EstimateRequest carries the context handed to the effort estimator for
// one deadline.
type EstimateRequest struct {
	CourseLabel string
	TaskLabel   string
	URL         string
	ContextText string
}

// EffortEstimator produces a difficulty/effort estimate for a task. It is
// an external collaborator: implementations may take seconds per call and
// may fail, and callers must substitute a default estimate on failure.
type EffortEstimator interface {
	Estimate(ctx context.Context, req EstimateRequest) (*domain.Estimate, error)
}

// SyncTrigger lets transport and scheduling layers kick off reconciliation
// passes without depending on the coordinator implementation.
type SyncTrigger interface {
	// TriggerMirror starts a mirror pass for the user in the background.
	// Returns domain.ErrSyncInProgress if a pass is already running.
	TriggerMirror(userID string) error
	// TriggerStudyPlan starts a study-plan pass for the user in the background.
	TriggerStudyPlan(userID string) error
}
