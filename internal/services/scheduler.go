package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/internal/infrastructure/journal"
	"github.com/campushub/backend/repository"
)

// SchedulerConfig controls the automatic sync cadence.
type SchedulerConfig struct {
	// MirrorInterval is how often every active user's deadlines get
	// mirrored. Zero disables periodic mirroring.
	MirrorInterval time.Duration
	// StudyPlanSpec is a cron expression for study-plan regeneration
	// (default: Sunday 18:00).
	StudyPlanSpec string
	// JournalRetention prunes old run records. Zero disables cleanup.
	JournalRetention time.Duration
	PassTimeout      time.Duration
}

// SyncScheduler drives periodic reconciliation for all active users.
type SyncScheduler struct {
	coordinator *SyncCoordinator
	users       repository.UserRepository
	journal     *journal.Store
	logger      *zap.Logger
	cron        *cron.Cron
	cfg         SchedulerConfig
}

func NewSyncScheduler(
	coordinator *SyncCoordinator,
	users repository.UserRepository,
	journalStore *journal.Store,
	logger *zap.Logger,
	cfg SchedulerConfig,
) *SyncScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StudyPlanSpec == "" {
		cfg.StudyPlanSpec = "0 18 * * 0"
	}
	if cfg.PassTimeout <= 0 {
		cfg.PassTimeout = 10 * time.Minute
	}

	s := &SyncScheduler{
		coordinator: coordinator,
		users:       users,
		journal:     journalStore,
		logger:      logger,
		cron:        cron.New(),
		cfg:         cfg,
	}

	if cfg.MirrorInterval > 0 {
		spec := fmt.Sprintf("@every %ds", int(cfg.MirrorInterval.Seconds()))
		_, _ = s.cron.AddFunc(spec, s.mirrorAll)
	}
	_, _ = s.cron.AddFunc(cfg.StudyPlanSpec, s.planAll)
	if cfg.JournalRetention > 0 {
		_, _ = s.cron.AddFunc("@daily", s.cleanupJournal)
	}
	return s
}

// Start launches the cron scheduler.
func (s *SyncScheduler) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("sync scheduler started",
		zap.Duration("mirror_interval", s.cfg.MirrorInterval),
		zap.String("study_plan_spec", s.cfg.StudyPlanSpec))
}

// Stop gracefully stops the scheduler.
func (s *SyncScheduler) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("sync scheduler stopped")
}

func (s *SyncScheduler) mirrorAll() {
	s.forEachActiveUser("mirror", func(ctx context.Context, userID string) error {
		return s.coordinator.RunMirror(ctx, userID)
	})
}

func (s *SyncScheduler) planAll() {
	s.forEachActiveUser("study_plan", func(ctx context.Context, userID string) error {
		return s.coordinator.RunStudyPlan(ctx, userID)
	})
}

func (s *SyncScheduler) forEachActiveUser(kind string, run func(context.Context, string) error) {
	listCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	users, err := s.users.ListActive(listCtx)
	cancel()
	if err != nil {
		s.logger.Error("failed to list users for scheduled sync", zap.String("kind", kind), zap.Error(err))
		return
	}

	for _, user := range users {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PassTimeout)
		err := run(ctx, user.ID)
		cancel()
		if err != nil && !domain.IsDomainError(err, domain.ErrCodeConflict) {
			s.logger.Warn("scheduled sync failed",
				zap.String("kind", kind),
				zap.String("user_id", user.ID),
				zap.Error(err))
		}
	}
}

func (s *SyncScheduler) cleanupJournal() {
	if s.journal == nil {
		return
	}
	if err := s.journal.Cleanup(time.Now().Add(-s.cfg.JournalRetention)); err != nil {
		s.logger.Warn("journal cleanup failed", zap.Error(err))
	}
}
