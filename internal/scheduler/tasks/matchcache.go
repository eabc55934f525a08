package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/snapshelf/snapshelf/internal/config"
	"github.com/snapshelf/snapshelf/internal/scheduler"
)

const MatchCacheSweepTaskID = "match-cache-sweep"

// CacheSweeper removes expired match cache entries.
type CacheSweeper interface {
	ClearExpiredCache(ctx context.Context) (int64, error)
}

// RegisterMatchCacheSweepTask registers the periodic expired-entry sweep.
func RegisterMatchCacheSweepTask(
	sched *scheduler.Scheduler,
	sweeper CacheSweeper,
	cfg config.MatchingConfig,
	logger zerolog.Logger,
) error {
	log := logger.With().Str("task", MatchCacheSweepTaskID).Logger()

	cron := cfg.SweepCron
	if cron == "" {
		cron = config.DefaultMatching().SweepCron
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          MatchCacheSweepTaskID,
		Name:        "Match Cache Sweep",
		Description: "Deletes match cache entries past their expiry",
		Cron:        cron,
		RunOnStart:  true,
		Func: func(ctx context.Context) error {
			removed, err := sweeper.ClearExpiredCache(ctx)
			if err != nil {
				return err
			}
			log.Debug().Int64("removed", removed).Msg("Swept match cache")
			return nil
		},
	})
}
