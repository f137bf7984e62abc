package collector

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/pkg/logger"
)

// Collector loads several sector payloads concurrently and merges them into one dataset
// ⭐ SSOT: 다중 섹터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	source contracts.DatasetSource
	logger *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
}

// FetchResult represents the result of one sector fetch
type FetchResult struct {
	SectorKey string
	Dataset   *contracts.Dataset
	Error     error
}

// NewCollector creates a new Collector instance
func NewCollector(source contracts.DatasetSource, log *logger.Logger) *Collector {
	return &Collector{
		source: source,
		logger: log.WithField("module", "collector"),
	}
}

// Collect fetches every sector key and merges the results in request order.
// A sector appearing in several payloads keeps its first occurrence.
// Failed sectors are reported in the results; the error is non-nil only when all fail.
func (c *Collector) Collect(ctx context.Context, sectorKeys []string, cfg Config) (*contracts.Dataset, []FetchResult, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"sectors": len(sectorKeys),
		"workers": workers,
	}).Info("Starting sector collection")

	results := make([]FetchResult, len(sectorKeys))
	jobs := make(chan int, len(sectorKeys))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.worker(ctx, workerID, sectorKeys, jobs, results)
		}(i)
	}

	for i := range sectorKeys {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	merged := &contracts.Dataset{}
	seen := make(map[string]bool)
	failCount := 0
	for _, r := range results {
		if r.Error != nil {
			failCount++
			continue
		}
		for _, sector := range r.Dataset.Sectors {
			if seen[sector.Key] {
				continue
			}
			seen[sector.Key] = true
			merged.Sectors = append(merged.Sectors, sector)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(results) - failCount,
		"failed":  failCount,
		"stocks":  merged.StockCount(),
	}).Info("Sector collection completed")

	if len(sectorKeys) > 0 && failCount == len(sectorKeys) {
		return nil, results, fmt.Errorf("all %d sector fetches failed: %w", failCount, results[0].Error)
	}

	return merged, results, nil
}

// worker fetches sectors by index so results keep request order
func (c *Collector) worker(ctx context.Context, workerID int, keys []string, jobs <-chan int, results []FetchResult) {
	for i := range jobs {
		key := keys[i]

		select {
		case <-ctx.Done():
			results[i] = FetchResult{SectorKey: key, Error: ctx.Err()}
			continue
		default:
		}

		ds, err := c.source.Load(ctx, key)
		if err == nil && ds == nil {
			err = fmt.Errorf("source returned no dataset")
		}
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"sector": key,
			}).Error("Failed to fetch sector")
			results[i] = FetchResult{SectorKey: key, Error: err}
			continue
		}

		results[i] = FetchResult{SectorKey: key, Dataset: ds}
	}
}
