package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/sectorscope/internal/brain"
	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/s0_data"
	"github.com/wonny/sectorscope/internal/s0_data/collector"
	"github.com/wonny/sectorscope/internal/s0_data/quality"
	"github.com/wonny/sectorscope/internal/selection"
	"github.com/wonny/sectorscope/internal/strategyconfig"
	"github.com/wonny/sectorscope/pkg/config"
	"github.com/wonny/sectorscope/pkg/database"
	"github.com/wonny/sectorscope/pkg/httputil"
	"github.com/wonny/sectorscope/pkg/logger"
	"github.com/wonny/sectorscope/pkg/redis"
)

// runtime bundles the wired components shared by api, analyze and scheduler
type runtime struct {
	cfg          *config.Config
	log          *logger.Logger
	source       contracts.DatasetSource
	cached       *s0_data.CachedSource // nil when Redis is disabled
	collector    *collector.Collector
	qualityGate  *quality.QualityGate
	orchestrator *brain.Orchestrator
	repo         *selection.Repository // nil when DATABASE_URL is not set

	db    *database.DB
	redis *redis.Client
}

// runtimeOptions overrides config values from command flags
type runtimeOptions struct {
	datasetPath  string
	strategyPath string
	persist      bool // connect to PostgreSQL when configured
}

// loadConfig loads env config and the logger
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// newRuntime wires sources, strategy, orchestrator and optional stores
func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if opts.datasetPath != "" {
		cfg.Dataset.Path = opts.datasetPath
	}
	if opts.strategyPath != "" {
		cfg.StrategyPath = opts.strategyPath
	}

	rt := &runtime{cfg: cfg, log: log}

	// 1. Strategy
	strategy, _, err := strategyconfig.LoadOrDefault(cfg.StrategyPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Strategy warning")
	}

	// 2. Dataset source
	var source contracts.DatasetSource
	switch {
	case cfg.Dataset.Path != "":
		source = s0_data.NewFileSource(cfg.Dataset.Path, log)
	case cfg.Dataset.URL != "":
		client := httputil.New(log).WithRateLimit(cfg.Dataset.RateLimit)
		source = s0_data.NewHTTPSource(cfg.Dataset.URL, client, log)
	default:
		return nil, errors.New("no dataset source: set DATASET_PATH or DATASET_URL (or --dataset)")
	}

	// 3. Redis cache (optional)
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, dataset cache disabled")
		rc = redis.Disabled()
	}
	rt.redis = rc
	if rc.Enabled() {
		rt.cached = s0_data.NewCachedSource(source, redis.NewCache(rc, "sectorscope"), cfg.Dataset.CacheTTL, log)
		source = rt.cached
	}
	rt.source = source
	rt.collector = collector.NewCollector(source, log)

	// 4. Orchestrator
	orch, err := brain.NewOrchestrator(strategy, log)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}
	rt.orchestrator = orch

	qcfg := quality.DefaultConfig()
	qcfg.MinQualityScore = strategy.Quality.MinScore
	rt.qualityGate = quality.NewQualityGate(qcfg)

	// 5. Run store (optional)
	if opts.persist && cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		rt.db = db

		repo := selection.NewRepository(db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		rt.repo = repo
		orch.WithRunStore(repo)
		log.Info("Analysis runs will be persisted")
	}

	log.WithFields(map[string]interface{}{
		"strategy": strategy.Meta.StrategyID,
		"cache":    rc.Enabled(),
		"persist":  rt.repo != nil,
	}).Debug("Runtime initialized")

	return rt, nil
}

// collectorConfig is the fan-out used for multi-sector loads
func collectorConfig() collector.Config {
	return collector.Config{Workers: 4}
}

// runStore returns the repository as a RunStore, or nil without a database
func (rt *runtime) runStore() contracts.RunStore {
	if rt.repo == nil {
		return nil
	}
	return rt.repo
}

// Close releases database and Redis connections
func (rt *runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
}
