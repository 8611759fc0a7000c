package repository

import (
	"context"

	"github.com/campushub/backend/domain"
)

// EstimateCache stores effort estimates per deadline so repeated planning
// passes do not re-invoke the estimator. A cache miss returns
// (nil, nil); cache failures are advisory and never fail a pass.
type EstimateCache interface {
	Get(ctx context.Context, userID string, deadlineID int64) (*domain.Estimate, error)
	Put(ctx context.Context, userID string, deadlineID int64, estimate *domain.Estimate) error
	Invalidate(ctx context.Context, userID string, deadlineID int64) error
}
