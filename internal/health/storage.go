package health

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StorageChecker tracks reachability of the databases backing the catalog
// and the match cache.
type StorageChecker struct {
	healthService *Service
	targets       map[string]Pinger
	logger        zerolog.Logger
}

// NewStorageChecker registers each target under the storage category.
func NewStorageChecker(healthSvc *Service, targets map[string]Pinger, logger zerolog.Logger) *StorageChecker {
	c := &StorageChecker{
		healthService: healthSvc,
		targets:       targets,
		logger:        logger.With().Str("component", "storage-health").Logger(),
	}
	for id := range targets {
		healthSvc.RegisterItem(CategoryStorage, id, id)
	}
	return c
}

// CheckAllStorage pings every target and records the outcome. It returns the
// first failure so scheduled runs surface in the task log.
func (c *StorageChecker) CheckAllStorage(ctx context.Context) error {
	var firstErr error
	for id, target := range c.targets {
		if err := target.PingContext(ctx); err != nil {
			c.healthService.SetError(CategoryStorage, id, fmt.Sprintf("Storage unavailable: %v", err))
			c.logger.Warn().Err(err).Str("target", id).Msg("Storage ping failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("ping %s: %w", id, err)
			}
			continue
		}
		c.healthService.ClearStatus(CategoryStorage, id)
	}
	return firstErr
}
