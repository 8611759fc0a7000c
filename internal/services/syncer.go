package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/internal/infrastructure/journal"
	"github.com/campushub/backend/usecase"
	"github.com/campushub/backend/usecase/mirror"
	"github.com/campushub/backend/usecase/studyplan"
)

// SyncCoordinator serializes reconciliation passes per user: two
// overlapping triggers for the same user collapse into "second is a no-op",
// while different users run fully in parallel. Each finished pass is
// recorded in the journal.
type SyncCoordinator struct {
	mirror  *mirror.Syncer
	planner *studyplan.Planner
	journal *journal.Store
	logger  *zap.Logger
	timeout time.Duration

	// chainStudyPlan runs a study-plan pass right after each successful
	// mirror pass, matching the post-scrape flow.
	chainStudyPlan bool

	mu      sync.Mutex
	running map[string]bool
}

func NewSyncCoordinator(
	mirrorSyncer *mirror.Syncer,
	planner *studyplan.Planner,
	journalStore *journal.Store,
	logger *zap.Logger,
	timeout time.Duration,
	chainStudyPlan bool,
) *SyncCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &SyncCoordinator{
		mirror:         mirrorSyncer,
		planner:        planner,
		journal:        journalStore,
		logger:         logger,
		timeout:        timeout,
		chainStudyPlan: chainStudyPlan,
		running:        make(map[string]bool),
	}
}

var _ usecase.SyncTrigger = (*SyncCoordinator)(nil)

// TriggerMirror starts a background mirror pass (followed by a study-plan
// pass when chaining is on). Returns ErrSyncInProgress when a pass for the
// user is already running.
func (c *SyncCoordinator) TriggerMirror(userID string) error {
	if !c.acquire(userID) {
		return domain.ErrSyncInProgress
	}
	go func() {
		defer c.release(userID)
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.runMirror(ctx, userID); err != nil {
			return
		}
		if c.chainStudyPlan {
			_ = c.runStudyPlan(ctx, userID)
		}
	}()
	return nil
}

// TriggerStudyPlan starts a background study-plan pass.
func (c *SyncCoordinator) TriggerStudyPlan(userID string) error {
	if !c.acquire(userID) {
		return domain.ErrSyncInProgress
	}
	go func() {
		defer c.release(userID)
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		_ = c.runStudyPlan(ctx, userID)
	}()
	return nil
}

// RunMirror executes a mirror pass synchronously, still honoring the
// per-user exclusion. Used by the cron scheduler.
func (c *SyncCoordinator) RunMirror(ctx context.Context, userID string) error {
	if !c.acquire(userID) {
		return domain.ErrSyncInProgress
	}
	defer c.release(userID)
	return c.runMirror(ctx, userID)
}

// RunStudyPlan executes a study-plan pass synchronously.
func (c *SyncCoordinator) RunStudyPlan(ctx context.Context, userID string) error {
	if !c.acquire(userID) {
		return domain.ErrSyncInProgress
	}
	defer c.release(userID)
	return c.runStudyPlan(ctx, userID)
}

// IsRunning reports whether a pass is in flight for the user.
func (c *SyncCoordinator) IsRunning(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running[userID]
}

func (c *SyncCoordinator) acquire(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running[userID] {
		return false
	}
	c.running[userID] = true
	return true
}

func (c *SyncCoordinator) release(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.running, userID)
}

func (c *SyncCoordinator) runMirror(ctx context.Context, userID string) error {
	started := time.Now()
	result, err := c.mirror.Sync(ctx, userID)

	record := journal.Record{
		UserID:     userID,
		Kind:       journal.KindMirror,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		record.Error = err.Error()
		c.logger.Error("mirror pass failed", zap.String("user_id", userID), zap.Error(err))
	} else {
		record.Created = result.Created
		record.Updated = result.Updated
		record.Deleted = result.Deleted
		record.Failed = result.Failed
	}
	c.appendRecord(record)
	return err
}

func (c *SyncCoordinator) runStudyPlan(ctx context.Context, userID string) error {
	started := time.Now()
	result, err := c.planner.Plan(ctx, userID)

	record := journal.Record{
		UserID:     userID,
		Kind:       journal.KindStudyPlan,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		record.Error = err.Error()
		c.logger.Error("study plan pass failed", zap.String("user_id", userID), zap.Error(err))
	} else {
		record.Created = result.Created
		record.Updated = result.Updated
		record.Deleted = result.Deleted
		record.Failed = result.Failed
		record.TasksScheduled = result.TasksScheduled
		record.TasksExhausted = result.TasksExhausted
	}
	c.appendRecord(record)
	return err
}

func (c *SyncCoordinator) appendRecord(record journal.Record) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Append(record); err != nil {
		c.logger.Warn("failed to journal sync run", zap.Error(err))
	}
}
