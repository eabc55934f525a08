package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/snapshelf/snapshelf/internal/config"
	"github.com/snapshelf/snapshelf/internal/metadata"
	"github.com/snapshelf/snapshelf/internal/scheduler"
)

const (
	GatewayCachePurgeTaskID = "gateway-cache-purge"
	ProviderHealthTaskID    = "provider-health"
)

// Gateway is the subset of the metadata gateway the maintenance tasks use.
type Gateway interface {
	PurgeExpiredCache() int
	TestProviders(ctx context.Context) error
}

// RegisterGatewayCachePurgeTask registers the purge of expired gateway cache entries.
func RegisterGatewayCachePurgeTask(
	sched *scheduler.Scheduler,
	gateway Gateway,
	cfg config.HealthConfig,
	logger zerolog.Logger,
) error {
	log := logger.With().Str("task", GatewayCachePurgeTaskID).Logger()

	interval := cfg.GatewayPurgeInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          GatewayCachePurgeTaskID,
		Name:        "Metadata Cache Purge",
		Description: "Drops expired provider search and detail responses",
		Cron:        fmt.Sprintf("@every %s", interval),
		Func: func(ctx context.Context) error {
			log.Debug().Int("removed", gateway.PurgeExpiredCache()).Msg("Purged metadata cache")
			return nil
		},
	})
}

// ProviderHealthTask probes every configured metadata provider.
type ProviderHealthTask struct {
	gateway Gateway
	logger  zerolog.Logger
}

// NewProviderHealthTask creates a new provider health check task.
func NewProviderHealthTask(gateway Gateway, logger zerolog.Logger) *ProviderHealthTask {
	return &ProviderHealthTask{
		gateway: gateway,
		logger:  logger.With().Str("task", ProviderHealthTaskID).Logger(),
	}
}

// Run tests provider connectivity. Failures are recorded in the health
// registry by the gateway, so only an unconfigured gateway is an error.
func (t *ProviderHealthTask) Run(ctx context.Context) error {
	err := t.gateway.TestProviders(ctx)
	switch {
	case err == nil:
		t.logger.Debug().Msg("Provider health check passed")
		return nil
	case errors.Is(err, metadata.ErrNoProvidersConfigured):
		return err
	default:
		t.logger.Warn().Err(err).Msg("Provider health check found failures")
		return nil
	}
}

// RegisterProviderHealthTask registers the provider connectivity check.
func RegisterProviderHealthTask(
	sched *scheduler.Scheduler,
	gateway Gateway,
	cfg config.HealthConfig,
	logger zerolog.Logger,
) error {
	task := NewProviderHealthTask(gateway, logger)

	interval := cfg.ProviderCheckInterval
	if interval <= 0 {
		interval = time.Hour
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          ProviderHealthTaskID,
		Name:        "Metadata Provider Health Check",
		Description: "Tests connectivity to the configured metadata providers",
		Cron:        fmt.Sprintf("@every %s", interval),
		Func:        task.Run,
	})
}
