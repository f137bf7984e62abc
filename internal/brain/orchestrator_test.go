package brain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/selection"
	"github.com/wonny/sectorscope/internal/strategyconfig"
	"github.com/wonny/sectorscope/pkg/logger"
)

const testDataset = `{
  "sectors": {
    "technology": {
      "sector_name": "Technology Sector",
      "stocks": {
        "AAA": {"price": 100, "pe_ratio": 10, "roe": 20},
        "BBB": {"price": 100, "pe_ratio": 30, "roe": 5},
        "CCC": {"price": 50, "pe_ratio": 20, "pb_ratio": 5},
        "BAD": {"price": "n/a", "pe_ratio": 9999}
      }
    },
    "energy": {
      "stocks": {
        "XOM": {"price": 80, "pe_ratio": 8}
      }
    }
  }
}`

func loadDataset(t *testing.T) *contracts.Dataset {
	t.Helper()
	var ds contracts.Dataset
	require.NoError(t, json.Unmarshal([]byte(testDataset), &ds))
	return &ds
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(strategyconfig.Default(), logger.NewNop())
	require.NoError(t, err)
	return o
}

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

type memoryStore struct {
	mu   sync.Mutex
	runs []*contracts.AnalysisRun
}

func (s *memoryStore) SaveRun(ctx context.Context, run *contracts.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *memoryStore) GetLatestRun(ctx context.Context, sector string) (*contracts.AnalysisRun, error) {
	return nil, errors.New("not implemented")
}

func TestRun_RequiresSectorAndDataset(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.Run(context.Background(), Request{Dataset: loadDataset(t)})
	assert.ErrorIs(t, err, ErrSectorRequired)

	_, err = o.Run(context.Background(), Request{Sector: "Technology"})
	assert.ErrorIs(t, err, ErrDatasetRequired)
}

func TestRun_Sector(t *testing.T) {
	o := newTestOrchestrator(t)

	run, err := o.Run(context.Background(), Request{Sector: "Technology", Dataset: loadDataset(t)})
	require.NoError(t, err)

	_, err = uuid.Parse(run.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "Technology", run.Sector)
	assert.Equal(t, "undervalued_default", run.StrategyID)
	assert.Len(t, run.ConfigHash, 64)
	assert.Equal(t, 5, run.TotalStocks)
	assert.Equal(t, 4, run.SectorStocks)
	assert.Equal(t, 1, run.InvalidCount)
	assert.Contains(t, run.Issues, "BAD")
	require.NotNil(t, run.Quality)
	assert.Equal(t, 4, run.Quality.TotalStocks)

	require.Len(t, run.TopScreened, 4)
	for _, s := range run.TopScreened {
		assert.Equal(t, "Technology", s.Sector)
	}

	require.NotNil(t, run.Ranking.SectorStats)
	assert.Equal(t, 20.0, run.Ranking.SectorStats.MeanPE)
	require.Len(t, run.Ranking.Results, 2)
	assert.Equal(t, "AAA", run.Ranking.Results[0].Symbol)
	assert.Equal(t, 100.0, *run.Ranking.Results[0].Valuation.UpsidePct)
	assert.Equal(t, "CCC", run.Ranking.Results[1].Symbol)

	assert.True(t, strings.HasPrefix(run.Prompt, "You are an equity research analyst. Analyze Technology sector"))
	assert.Empty(t, run.Report)
	assert.False(t, run.CompletedAt.Before(run.StartedAt))
}

func TestRun_ResolvesSectorKey(t *testing.T) {
	o := newTestOrchestrator(t)

	run, err := o.Run(context.Background(), Request{Sector: "energy", Dataset: loadDataset(t)})
	require.NoError(t, err)
	assert.Equal(t, "Energy", run.Sector)
	assert.Equal(t, 1, run.SectorStocks)
}

func TestRun_UnknownSectorIsEmpty(t *testing.T) {
	o := newTestOrchestrator(t)

	run, err := o.Run(context.Background(), Request{Sector: "Utilities", Dataset: loadDataset(t)})
	require.NoError(t, err)
	assert.Equal(t, 0, run.SectorStocks)
	assert.Empty(t, run.TopScreened)
	assert.Nil(t, run.Ranking.SectorStats)
	assert.NotNil(t, run.Ranking.Results)
}

func TestRun_CriteriaOverride(t *testing.T) {
	o := newTestOrchestrator(t)
	minROE := 10.0

	run, err := o.Run(context.Background(), Request{
		Sector:   "Technology",
		Dataset:  loadDataset(t),
		Criteria: &selection.Criteria{MinROE: &minROE},
		TopN:     3,
	})
	require.NoError(t, err)
	require.Len(t, run.Ranking.Results, 3)

	passed := map[string]bool{}
	for _, s := range run.TopScreened {
		passed[s.Symbol] = s.Passed
	}
	assert.Equal(t, map[string]bool{"AAA": true, "BBB": false, "CCC": false, "BAD": false}, passed)
}

func TestRun_PromptLimit(t *testing.T) {
	strategy := strategyconfig.Default()
	strategy.Ranking.PromptLimit = 2

	o, err := NewOrchestrator(strategy, logger.NewNop())
	require.NoError(t, err)

	run, err := o.Run(context.Background(), Request{Sector: "Technology", Dataset: loadDataset(t)})
	require.NoError(t, err)
	assert.Len(t, run.TopScreened, 2)
	assert.Len(t, run.Ranking.Results, 2)
}

func TestRun_ReportGenerator(t *testing.T) {
	gen := &stubGenerator{text: "Executive Summary: buy AAA"}
	store := &memoryStore{}
	o := newTestOrchestrator(t).WithReportGenerator(gen).WithRunStore(store)

	run, err := o.Run(context.Background(), Request{Sector: "Technology", Dataset: loadDataset(t), GenerateReport: true})
	require.NoError(t, err)
	assert.Equal(t, "Executive Summary: buy AAA", run.Report)
	assert.Equal(t, run.Prompt, gen.prompt)
	require.Len(t, store.runs, 1)
	assert.Equal(t, run.RunID, store.runs[0].RunID)

	// not requested → not called
	gen.prompt = ""
	run, err = o.Run(context.Background(), Request{Sector: "Technology", Dataset: loadDataset(t)})
	require.NoError(t, err)
	assert.Empty(t, run.Report)
	assert.Empty(t, gen.prompt)
}

func TestRun_ReportGeneratorError(t *testing.T) {
	boom := errors.New("quota exceeded")
	o := newTestOrchestrator(t).WithReportGenerator(&stubGenerator{err: boom})

	_, err := o.Run(context.Background(), Request{Sector: "Technology", Dataset: loadDataset(t), GenerateReport: true})
	assert.ErrorIs(t, err, boom)
}

func TestRunSectors(t *testing.T) {
	o := newTestOrchestrator(t)
	ds := loadDataset(t)

	runs, err := o.RunSectors(context.Background(), ds, []string{"energy", "Technology"}, Request{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Energy", runs[0].Sector)
	assert.Equal(t, "Technology", runs[1].Sector)
	assert.NotEqual(t, runs[0].RunID, runs[1].RunID)

	// every sector in dataset order
	runs, err = o.RunSectors(context.Background(), ds, nil, Request{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Technology", runs[0].Sector)

	_, err = o.RunSectors(context.Background(), ds, []string{"energy", ""}, Request{})
	assert.ErrorIs(t, err, ErrSectorRequired)

	_, err = o.RunSectors(context.Background(), nil, nil, Request{})
	assert.ErrorIs(t, err, ErrDatasetRequired)
}

func TestRunSectors_Cancelled(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.RunSectors(ctx, loadDataset(t), []string{"energy"}, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveSector(t *testing.T) {
	ds := loadDataset(t)
	assert.Equal(t, "Technology", ResolveSector(ds, "technology"))
	assert.Equal(t, "Energy", ResolveSector(ds, "energy"))
	assert.Equal(t, "Health Care", ResolveSector(ds, "Health Care"))
	assert.Equal(t, "x", ResolveSector(nil, "x"))
}
