package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/mwhitfield/gatehouse/internal/lockout"
	"github.com/mwhitfield/gatehouse/internal/repositories"
)

// CleanupManager periodically removes expired login attempt rows from
// the database and prunes expired failure records from the in-memory
// tracker. The tracker expires records lazily on access, so pruning
// only bounds memory for identifiers that never come back.
type CleanupManager struct {
	attemptRepo *repositories.LoginAttemptRepository
	tracker     *lockout.Tracker
	logger      *slog.Logger
	interval    time.Duration
	stopCh      chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	attemptRepo *repositories.LoginAttemptRepository,
	tracker *lockout.Tracker,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		attemptRepo: attemptRepo,
		tracker:     tracker,
		logger:      logger,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup removes expired attempt rows and stale tracker records
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cm.logger.Info("starting login attempt cleanup")

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.attemptRepo.DeleteExpiredAttempts(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired login attempts", slog.Any("error", err))
	} else if rowsDeleted > 0 {
		cm.logger.Info("expired login attempt cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}

	if pruned := cm.tracker.Prune(); pruned > 0 {
		cm.logger.Info("pruned expired lockout records", slog.Int("records", pruned))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
