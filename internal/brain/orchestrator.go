package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/report"
	"github.com/wonny/sectorscope/internal/s0_data"
	"github.com/wonny/sectorscope/internal/s0_data/quality"
	"github.com/wonny/sectorscope/internal/s1_stats"
	"github.com/wonny/sectorscope/internal/selection"
	"github.com/wonny/sectorscope/internal/strategyconfig"
	"github.com/wonny/sectorscope/pkg/logger"
)

// Invocation errors; data quality problems never surface as errors
var (
	ErrSectorRequired  = errors.New("sector is required")
	ErrDatasetRequired = errors.New("dataset is required")
)

// DefaultPromptLimit is how many screened sector stocks go into the analysis prompt
const DefaultPromptLimit = 25

// maxParallelSectors bounds RunSectors fan-out
const maxParallelSectors = 4

// Request describes one sector analysis
type Request struct {
	Sector         string              // sector label ("Technology") or dataset key ("technology")
	Dataset        *contracts.Dataset
	Criteria       *selection.Criteria // nil → strategy criteria
	TopN           int                 // 0 → strategy top_n
	GenerateReport bool
}

// Orchestrator coordinates the sector analysis pipeline
// S0 flatten → S1 stats → S2 screen → S3 value → S4 rank → prompt/report
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	strategy    *strategyconfig.Config
	configHash  string
	qualityGate *quality.QualityGate
	screener    *selection.Screener
	ranker      *selection.Ranker
	promptLimit int

	// Optional collaborators
	generator contracts.ReportGenerator
	store     contracts.RunStore

	logger *logger.Logger
}

// NewOrchestrator creates an orchestrator for a validated strategy
func NewOrchestrator(strategy *strategyconfig.Config, log *logger.Logger) (*Orchestrator, error) {
	if strategy == nil {
		strategy = strategyconfig.Default()
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to hash strategy: %w", err)
	}

	qcfg := quality.DefaultConfig()
	qcfg.MinQualityScore = strategy.Quality.MinScore

	promptLimit := strategy.Ranking.PromptLimit
	if promptLimit <= 0 {
		promptLimit = DefaultPromptLimit
	}

	return &Orchestrator{
		strategy:    strategy,
		configHash:  hash,
		qualityGate: quality.NewQualityGate(qcfg),
		screener:    selection.NewScreener(strategy.ScoringWeights(), strategy.ScoringBands(), log),
		ranker:      selection.NewRanker(strategy.RankerConfig(), log),
		promptLimit: promptLimit,
		logger:      log,
	}, nil
}

// WithReportGenerator sets the optional report generator
func (o *Orchestrator) WithReportGenerator(g contracts.ReportGenerator) *Orchestrator {
	o.generator = g
	return o
}

// WithRunStore sets the optional run store; completed runs are saved to it
func (o *Orchestrator) WithRunStore(s contracts.RunStore) *Orchestrator {
	o.store = s
	return o
}

// Strategy returns the active strategy
func (o *Orchestrator) Strategy() *strategyconfig.Config {
	return o.strategy
}

// Run analyzes one sector of a dataset
func (o *Orchestrator) Run(ctx context.Context, req Request) (*contracts.AnalysisRun, error) {
	if req.Sector == "" {
		return nil, ErrSectorRequired
	}
	if req.Dataset == nil {
		return nil, ErrDatasetRequired
	}

	flat := s0_data.Flatten(req.Dataset)
	return o.runSector(ctx, req, flat)
}

// RunSectors flattens the dataset once and analyzes each sector concurrently.
// Results follow the order of sectors.
func (o *Orchestrator) RunSectors(ctx context.Context, dataset *contracts.Dataset, sectors []string, base Request) ([]*contracts.AnalysisRun, error) {
	if dataset == nil {
		return nil, ErrDatasetRequired
	}
	if len(sectors) == 0 {
		sectors = dataset.Keys()
	}
	for _, s := range sectors {
		if s == "" {
			return nil, ErrSectorRequired
		}
	}

	// 전체 목록을 먼저 평탄화 (섹터 통계는 항상 전체 기준)
	flat := s0_data.Flatten(dataset)

	runs := make([]*contracts.AnalysisRun, len(sectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSectors)

	for i, sector := range sectors {
		i, sector := i, sector
		g.Go(func() error {
			req := base
			req.Sector = sector
			req.Dataset = dataset

			run, err := o.runSector(gctx, req, flat)
			if err != nil {
				return fmt.Errorf("sector %s: %w", sector, err)
			}
			runs[i] = run
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.logger.WithFields(map[string]interface{}{
		"sectors":      len(sectors),
		"total_stocks": len(flat.Stocks),
	}).Info("Sector runs completed")

	return runs, nil
}

// runSector executes the per-sector stages on an already flattened dataset
func (o *Orchestrator) runSector(ctx context.Context, req Request, flat s0_data.FlattenResult) (*contracts.AnalysisRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	label := ResolveSector(req.Dataset, req.Sector)

	run := &contracts.AnalysisRun{
		RunID:        uuid.NewString(),
		Sector:       label,
		StrategyID:   o.strategy.Meta.StrategyID,
		ConfigHash:   o.configHash,
		TotalStocks:  len(flat.Stocks),
		InvalidCount: len(flat.Issues),
		Issues:       flat.Issues,
		StartedAt:    startTime,
	}

	runLog := o.logger.WithRun(run.RunID, label)
	runLog.WithFields(map[string]interface{}{
		"total_stocks": run.TotalStocks,
		"invalid":      run.InvalidCount,
	}).Info("Starting sector analysis")

	// S0: quality snapshot of the sector slice
	sectorStocks := filterStocks(flat.Stocks, label)
	run.SectorStocks = len(sectorStocks)
	run.Quality = o.qualityGate.Check(sectorStocks)
	if !run.Quality.Passed {
		runLog.WithField("quality_score", run.Quality.QualityScore).Warn("Sector data below quality threshold")
	}

	// S2: screen everything so each stock is scored against its own sector
	criteria := o.strategy.SelectionCriteria(label)
	if req.Criteria != nil {
		criteria = *req.Criteria
		criteria.Sector = label
	}
	screened := o.screener.Screen(criteria, flat.Stocks)
	sectorScreened := filterScreened(screened, label)

	run.TopScreened = sectorScreened
	if len(run.TopScreened) > o.promptLimit {
		run.TopScreened = run.TopScreened[:o.promptLimit]
	}

	// S1/S3/S4: stats from the full materialized list
	stats := s1_stats.ComputeSectorStats(flat.Stocks, label)
	run.Ranking = o.ranker.ValueTopUndervalued(sectorScreened, label, selection.RankOptions{
		SectorStats: &stats,
		TopN:        req.TopN,
	})

	prompt, err := report.BuildAnalysisPrompt(report.AnalysisInput{
		Sector:        label,
		Stocks:        run.TopScreened,
		SectorMetrics: &stats,
	})
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}
	run.Prompt = prompt

	if req.GenerateReport {
		if o.generator == nil {
			runLog.Warn("Report requested but no generator configured")
		} else {
			text, err := o.generator.Generate(ctx, prompt)
			if err != nil {
				return nil, fmt.Errorf("generate report: %w", err)
			}
			run.Report = text
		}
	}

	run.CompletedAt = time.Now()

	fields := map[string]interface{}{
		"sector_stocks": run.SectorStocks,
		"selected":      len(run.Ranking.Results),
		"duration_ms":   run.Duration().Milliseconds(),
	}
	if len(run.Ranking.Results) > 0 {
		fields["top_symbol"] = run.Ranking.Results[0].Symbol
	}
	runLog.WithFields(fields).Info("Sector analysis completed")

	if o.store != nil {
		if err := o.store.SaveRun(ctx, run); err != nil {
			return run, fmt.Errorf("save run: %w", err)
		}
	}

	return run, nil
}

// ResolveSector maps a dataset key to its display label; labels pass through unchanged
func ResolveSector(dataset *contracts.Dataset, sector string) string {
	if dataset != nil {
		if node, ok := dataset.Sector(sector); ok {
			return s0_data.FormatSectorName(sector, node.SectorName)
		}
	}
	return sector
}

func filterStocks(stocks []contracts.CanonicalStock, label string) []contracts.CanonicalStock {
	out := make([]contracts.CanonicalStock, 0)
	for i := range stocks {
		if stocks[i].Sector == label {
			out = append(out, stocks[i])
		}
	}
	return out
}

func filterScreened(results []contracts.ScreeningResult, label string) []contracts.ScreeningResult {
	out := make([]contracts.ScreeningResult, 0)
	for i := range results {
		if results[i].Sector == label {
			out = append(out, results[i])
		}
	}
	return out
}
