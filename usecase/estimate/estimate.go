// Package estimate wraps the raw effort estimator with caching and the
// fixed fallback the planner relies on. Estimation is never fatal: whatever
// goes wrong, the caller gets a usable estimate back.
package estimate

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
	"github.com/campushub/backend/usecase"
)

type Service struct {
	inner  usecase.EffortEstimator
	cache  repository.EstimateCache
	logger *zap.Logger
}

func New(inner usecase.EffortEstimator, cache repository.EstimateCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// EstimateDeadline returns the effort estimate for one deadline, consulting
// the cache first and falling back to the default estimate when the
// estimator is unavailable or returns garbage.
func (s *Service) EstimateDeadline(ctx context.Context, deadline *domain.Deadline, contextText string) *domain.Estimate {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, deadline.UserID, deadline.ID)
		if err != nil {
			s.logger.Warn("estimate cache read failed", zap.Int64("deadline_id", deadline.ID), zap.Error(err))
		} else if cached != nil {
			cached.Normalize()
			return cached
		}
	}

	estimate := s.callEstimator(ctx, deadline, contextText)
	estimate.Normalize()

	if s.cache != nil {
		if err := s.cache.Put(ctx, deadline.UserID, deadline.ID, estimate); err != nil {
			s.logger.Warn("estimate cache write failed", zap.Int64("deadline_id", deadline.ID), zap.Error(err))
		}
	}
	return estimate
}

func (s *Service) callEstimator(ctx context.Context, deadline *domain.Deadline, contextText string) *domain.Estimate {
	if s.inner == nil {
		return domain.DefaultEstimate()
	}

	req := usecase.EstimateRequest{
		TaskLabel:   deadline.TimeString,
		URL:         deadline.URL,
		ContextText: contextText,
	}
	if deadline.Course != nil {
		req.CourseLabel = deadline.Course.Name
	}

	estimate, err := s.inner.Estimate(ctx, req)
	if err != nil || estimate == nil {
		s.logger.Warn("effort estimation failed, using default",
			zap.Int64("deadline_id", deadline.ID),
			zap.Error(err))
		return domain.DefaultEstimate()
	}
	return estimate
}
