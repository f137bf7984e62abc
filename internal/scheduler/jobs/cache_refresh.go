package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/pkg/logger"
)

// CacheInvalidator drops a cached sector payload
type CacheInvalidator interface {
	Invalidate(ctx context.Context, sectorKey string) error
}

// CacheRefreshJob drops and reloads cached sector payloads
type CacheRefreshJob struct {
	cache    CacheInvalidator
	source   contracts.DatasetSource // the caching source, so Load repopulates
	sectors  []string
	schedule string
	logger   *logger.Logger
}

// NewCacheRefreshJob creates a new cache refresh job
func NewCacheRefreshJob(cache CacheInvalidator, source contracts.DatasetSource, sectors []string, schedule string, log *logger.Logger) *CacheRefreshJob {
	return &CacheRefreshJob{
		cache:    cache,
		source:   source,
		sectors:  sectors,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *CacheRefreshJob) Name() string {
	return "cache_refresh"
}

// Schedule returns the cron schedule
func (j *CacheRefreshJob) Schedule() string {
	return j.schedule
}

// Run executes the cache refresh; a failed sector does not stop the others
func (j *CacheRefreshJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache refresh")

	refreshed := 0
	var firstErr error
	for _, key := range j.sectors {
		if err := j.cache.Invalidate(ctx, key); err != nil {
			j.logger.WithError(err).WithField("sector", key).Warn("Failed to invalidate sector cache")
		}
		if _, err := j.source.Load(ctx, key); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("reload sector %s: %w", key, err)
			}
			continue
		}
		refreshed++
	}

	j.logger.WithFields(map[string]interface{}{
		"refreshed": refreshed,
		"sectors":   len(j.sectors),
	}).Info("Cache refresh completed")

	return firstErr
}
