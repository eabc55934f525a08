package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/snapshelf/snapshelf/internal/config"
	"github.com/snapshelf/snapshelf/internal/scheduler"
)

const StorageHealthTaskID = "storage-health"

// StorageChecker pings the stores and records their health.
type StorageChecker interface {
	CheckAllStorage(ctx context.Context) error
}

// StorageHealthTask handles scheduled storage health checks.
type StorageHealthTask struct {
	checker StorageChecker
	logger  zerolog.Logger
}

// NewStorageHealthTask creates a new storage health check task.
func NewStorageHealthTask(checker StorageChecker, logger zerolog.Logger) *StorageHealthTask {
	return &StorageHealthTask{
		checker: checker,
		logger:  logger.With().Str("task", StorageHealthTaskID).Logger(),
	}
}

// Run executes the storage health check.
func (t *StorageHealthTask) Run(ctx context.Context) error {
	if err := t.checker.CheckAllStorage(ctx); err != nil {
		t.logger.Error().Err(err).Msg("Storage health check failed")
		return err
	}
	t.logger.Debug().Msg("Storage health check passed")
	return nil
}

// RegisterStorageHealthTask registers the storage health check task with the scheduler.
func RegisterStorageHealthTask(
	sched *scheduler.Scheduler,
	checker StorageChecker,
	cfg config.HealthConfig,
	logger zerolog.Logger,
) error {
	task := NewStorageHealthTask(checker, logger)

	interval := cfg.StorageCheckInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          StorageHealthTaskID,
		Name:        "Storage Health Check",
		Description: "Pings the catalog and match cache database",
		Cron:        fmt.Sprintf("@every %s", interval),
		RunOnStart:  true,
		Func:        task.Run,
	})
}
