package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/sectorscope/internal/brain"
	"github.com/wonny/sectorscope/internal/s0_data/collector"
	"github.com/wonny/sectorscope/pkg/logger"
)

// SectorAnalysisJob collects the configured sectors and analyzes each of them
// ⭐ SSOT: 섹터 분석 스케줄은 이 Job에서만
type SectorAnalysisJob struct {
	collector    *collector.Collector
	orchestrator *brain.Orchestrator
	sectors      []string
	schedule     string
	workers      int
	logger       *logger.Logger
}

// NewSectorAnalysisJob creates a new sector analysis job
func NewSectorAnalysisJob(
	col *collector.Collector,
	orch *brain.Orchestrator,
	sectors []string,
	schedule string,
	log *logger.Logger,
) *SectorAnalysisJob {
	return &SectorAnalysisJob{
		collector:    col,
		orchestrator: orch,
		sectors:      sectors,
		schedule:     schedule,
		workers:      4,
		logger:       log,
	}
}

// Name returns the job name
func (j *SectorAnalysisJob) Name() string {
	return "sector_analysis"
}

// Schedule returns the cron schedule
func (j *SectorAnalysisJob) Schedule() string {
	return j.schedule
}

// Run collects sector payloads, then runs the pipeline for every sector that loaded
func (j *SectorAnalysisJob) Run(ctx context.Context) error {
	if len(j.sectors) == 0 {
		return fmt.Errorf("no sectors configured")
	}

	j.logger.WithField("sectors", j.sectors).Info("Starting scheduled sector analysis")

	// 1. Collect
	ds, results, err := j.collector.Collect(ctx, j.sectors, collector.Config{Workers: j.workers})
	if err != nil {
		return fmt.Errorf("collect sectors: %w", err)
	}

	loaded := make([]string, 0, len(results))
	for _, r := range results {
		if r.Error == nil {
			loaded = append(loaded, r.SectorKey)
		}
	}

	// 2. Analyze (runs are persisted by the orchestrator's store when configured)
	runs, err := j.orchestrator.RunSectors(ctx, ds, loaded, brain.Request{})
	if err != nil {
		return fmt.Errorf("analyze sectors: %w", err)
	}

	for _, run := range runs {
		fields := map[string]interface{}{
			"run_id":   run.RunID,
			"sector":   run.Sector,
			"stocks":   run.SectorStocks,
			"selected": len(run.Ranking.Results),
		}
		if len(run.Ranking.Results) > 0 {
			fields["top_symbol"] = run.Ranking.Results[0].Symbol
		}
		j.logger.WithFields(fields).Info("Scheduled sector analysis completed")
	}

	if failed := len(j.sectors) - len(loaded); failed > 0 {
		return fmt.Errorf("%d of %d sectors failed to load", failed, len(j.sectors))
	}

	return nil
}
