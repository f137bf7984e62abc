package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorscope/internal/brain"
	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/s0_data"
	"github.com/wonny/sectorscope/internal/s0_data/collector"
	"github.com/wonny/sectorscope/internal/strategyconfig"
	"github.com/wonny/sectorscope/pkg/logger"
)

const testDataset = `{"sectors": {
  "technology": {"stocks": {"AAA": {"price": 100, "pe_ratio": 10}, "BBB": {"price": 100, "pe_ratio": 30}}},
  "energy": {"stocks": {"XOM": {"price": 80, "pe_ratio": 8}}}
}}`

// keyedSource serves one sector per key and fails for unknown keys
type keyedSource struct {
	dataset *contracts.Dataset

	mu    sync.Mutex
	loads []string
}

func (s *keyedSource) Load(ctx context.Context, sectorKey string) (*contracts.Dataset, error) {
	s.mu.Lock()
	s.loads = append(s.loads, sectorKey)
	s.mu.Unlock()

	for _, entry := range s.dataset.Sectors {
		if entry.Key == sectorKey {
			return &contracts.Dataset{Sectors: []contracts.SectorEntry{entry}}, nil
		}
	}
	return nil, errors.New("unknown sector")
}

type recordingStore struct {
	mu   sync.Mutex
	runs []*contracts.AnalysisRun
}

func (s *recordingStore) SaveRun(ctx context.Context, run *contracts.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *recordingStore) GetLatestRun(ctx context.Context, sector string) (*contracts.AnalysisRun, error) {
	return nil, errors.New("not implemented")
}

type recordingCache struct {
	keys []string
	err  error
}

func (c *recordingCache) Invalidate(ctx context.Context, sectorKey string) error {
	c.keys = append(c.keys, sectorKey)
	return c.err
}

func newSource(t *testing.T) *keyedSource {
	t.Helper()
	ds, err := s0_data.DecodePayload(testDataset)
	require.NoError(t, err)
	return &keyedSource{dataset: ds}
}

func newJob(t *testing.T, source contracts.DatasetSource, sectors []string, store *recordingStore) *SectorAnalysisJob {
	t.Helper()
	log := logger.NewNop()
	orch, err := brain.NewOrchestrator(strategyconfig.Default(), log)
	require.NoError(t, err)
	orch.WithRunStore(store)
	return NewSectorAnalysisJob(collector.NewCollector(source, log), orch, sectors, "0 0 */3 * * *", log)
}

func TestSectorAnalysisJob(t *testing.T) {
	store := &recordingStore{}
	job := newJob(t, newSource(t), []string{"technology", "energy"}, store)

	assert.Equal(t, "sector_analysis", job.Name())
	assert.Equal(t, "0 0 */3 * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, store.runs, 2)

	sectors := map[string]int{}
	for _, run := range store.runs {
		sectors[run.Sector] = run.SectorStocks
	}
	assert.Equal(t, map[string]int{"Technology": 2, "Energy": 1}, sectors)
}

func TestSectorAnalysisJob_PartialFailure(t *testing.T) {
	store := &recordingStore{}
	job := newJob(t, newSource(t), []string{"technology", "utilities"}, store)

	err := job.Run(context.Background())
	assert.ErrorContains(t, err, "1 of 2 sectors failed to load")
	require.Len(t, store.runs, 1)
	assert.Equal(t, "Technology", store.runs[0].Sector)
}

func TestSectorAnalysisJob_Errors(t *testing.T) {
	store := &recordingStore{}

	err := newJob(t, newSource(t), nil, store).Run(context.Background())
	assert.ErrorContains(t, err, "no sectors configured")

	err = newJob(t, newSource(t), []string{"utilities"}, store).Run(context.Background())
	assert.ErrorContains(t, err, "collect sectors")
	assert.Empty(t, store.runs)
}

func TestCacheRefreshJob(t *testing.T) {
	source := newSource(t)
	cache := &recordingCache{}
	job := NewCacheRefreshJob(cache, source, []string{"technology", "utilities", "energy"}, "@every 1h", logger.NewNop())

	assert.Equal(t, "cache_refresh", job.Name())

	err := job.Run(context.Background())
	assert.ErrorContains(t, err, "reload sector utilities")
	assert.Equal(t, []string{"technology", "utilities", "energy"}, cache.keys)
	assert.Equal(t, []string{"technology", "utilities", "energy"}, source.loads)
}

func TestCacheRefreshJob_InvalidateErrorIsNotFatal(t *testing.T) {
	source := newSource(t)
	cache := &recordingCache{err: errors.New("redis down")}
	job := NewCacheRefreshJob(cache, source, []string{"energy"}, "@every 1h", logger.NewNop())

	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"energy"}, source.loads)
}
