package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/pkg/logger"
)

func screened(symbol string, score *float64, stock contracts.CanonicalStock) contracts.ScreeningResult {
	stock.Symbol = symbol
	stock.Sector = "Technology"
	return contracts.ScreeningResult{
		CanonicalStock: stock,
		ScreeningScore: score,
		PassesCriteria: map[string]bool{},
	}
}

func newTestRanker() *Ranker {
	return NewRanker(DefaultRankerConfig(), logger.NewNop())
}

func TestValueTopUndervalued_Empty(t *testing.T) {
	outcome := newTestRanker().ValueTopUndervalued(nil, "Technology", RankOptions{})
	assert.Equal(t, "Technology", outcome.Sector)
	assert.Nil(t, outcome.SectorStats)
	require.NotNil(t, outcome.Results)
	assert.Empty(t, outcome.Results)
}

func TestValueTopUndervalued_OrdersByUpside(t *testing.T) {
	stats := contracts.SectorStatistics{Sector: "Technology", MeanPE: 20}
	stocks := []contracts.ScreeningResult{
		screened("NOPE", f(9), contracts.CanonicalStock{Price: f(100)}),
		screened("HALF", f(5), contracts.CanonicalStock{Price: f(100), PERatio: f(15)}),
		screened("DBL", f(4), contracts.CanonicalStock{Price: f(100), PERatio: f(10)}),
	}

	outcome := newTestRanker().ValueTopUndervalued(stocks, "Technology", RankOptions{SectorStats: &stats})
	require.Len(t, outcome.Results, 2)
	require.NotNil(t, outcome.SectorStats)
	assert.Equal(t, 20.0, outcome.SectorStats.MeanPE)

	top := outcome.Results[0]
	assert.Equal(t, "DBL", top.Symbol)
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, 200.0, *top.Valuation.BlendedFairPrice)
	assert.Equal(t, 100.0, *top.Valuation.UpsidePct)

	assert.Equal(t, "HALF", outcome.Results[1].Symbol)
	assert.Equal(t, 2, outcome.Results[1].Rank)
}

func TestValueTopUndervalued_NilUpsideLast(t *testing.T) {
	stats := contracts.SectorStatistics{Sector: "Technology", MeanPE: 20}
	stocks := []contracts.ScreeningResult{
		screened("NOPE", f(9), contracts.CanonicalStock{Price: f(100)}),
		screened("LOSS", f(1), contracts.CanonicalStock{Price: f(100), PERatio: f(40)}),
	}

	outcome := newTestRanker().ValueTopUndervalued(stocks, "Technology", RankOptions{SectorStats: &stats})
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, "LOSS", outcome.Results[0].Symbol)
	assert.Equal(t, -50.0, *outcome.Results[0].Valuation.UpsidePct)
	assert.Equal(t, "NOPE", outcome.Results[1].Symbol)
	assert.True(t, outcome.Results[1].ScoreComponents.FallbackUsed)
	assert.Equal(t, 9.0, outcome.Results[1].CombinedScore)
}

func TestValueTopUndervalued_TieBreakByScore(t *testing.T) {
	stats := contracts.SectorStatistics{Sector: "Technology", MeanPE: 20}
	stocks := []contracts.ScreeningResult{
		screened("LOW", f(3), contracts.CanonicalStock{Price: f(50), PERatio: f(10)}),
		screened("UNSCORED", nil, contracts.CanonicalStock{Price: f(80), PERatio: f(10)}),
		screened("HIGH", f(7), contracts.CanonicalStock{Price: f(100), PERatio: f(10)}),
	}

	outcome := newTestRanker().ValueTopUndervalued(stocks, "Technology", RankOptions{SectorStats: &stats, TopN: 3})
	require.Len(t, outcome.Results, 3)
	assert.Equal(t, "HIGH", outcome.Results[0].Symbol)
	assert.Equal(t, "LOW", outcome.Results[1].Symbol)
	assert.Equal(t, "UNSCORED", outcome.Results[2].Symbol)
}

func TestValueTopUndervalued_FullTiesKeepInputOrder(t *testing.T) {
	stats := contracts.SectorStatistics{Sector: "Technology", MeanPE: 20}
	symbols := []string{"A", "B", "C", "D", "E", "F"}

	tests := []struct {
		name  string
		score *float64
		pe    *float64
	}{
		{"equal upside and score", f(6), f(10)},
		{"equal upside, no score", nil, f(10)},
		{"no upside, equal score", f(6), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stocks := make([]contracts.ScreeningResult, 0, len(symbols))
			for _, sym := range symbols {
				stocks = append(stocks, screened(sym, tt.score, contracts.CanonicalStock{Price: f(100), PERatio: tt.pe}))
			}

			outcome := newTestRanker().ValueTopUndervalued(stocks, "Technology", RankOptions{SectorStats: &stats, TopN: len(symbols)})
			require.Len(t, outcome.Results, len(symbols))

			got := make([]string, 0, len(outcome.Results))
			for i, c := range outcome.Results {
				got = append(got, c.Symbol)
				assert.Equal(t, i+1, c.Rank)
			}
			assert.Equal(t, symbols, got)
		})
	}
}

func TestValueTopUndervalued_ComputesStatsFromInput(t *testing.T) {
	stocks := []contracts.ScreeningResult{
		screened("A", f(5), contracts.CanonicalStock{Price: f(100), PERatio: f(10)}),
		screened("B", f(5), contracts.CanonicalStock{Price: f(100), PERatio: f(30)}),
	}

	outcome := newTestRanker().ValueTopUndervalued(stocks, "Technology", RankOptions{})
	require.NotNil(t, outcome.SectorStats)
	assert.Equal(t, 20.0, outcome.SectorStats.MeanPE)
	assert.Equal(t, "A", outcome.Results[0].Symbol)
}

func TestBuildNotes(t *testing.T) {
	stock := contracts.CanonicalStock{
		PERatio: f(10), PriceToBook: f(3), PriceToSales: f(2),
		ROE: f(12.5), FreeCashFlowMargin: f(8), DebtToEquity: f(0.8),
	}
	stats := contracts.SectorStatistics{MeanPE: 20, MeanPriceToBook: 0, MeanPriceToSales: 3}

	notes := buildNotes(&stock, stats)
	assert.Equal(t, []string{
		"P/E at 50% of sector avg",
		"P/S at 66.67% of sector avg",
		"ROE 12.5%",
		"FCF margin 8%",
		"Debt/Equity 0.8",
	}, notes)

	assert.Empty(t, buildNotes(&contracts.CanonicalStock{}, stats))
}

func TestCombinedScore(t *testing.T) {
	w := DefaultCombinedWeights()

	tests := []struct {
		name           string
		score, upside  *float64
		wantCombined   float64
		wantNormalized *float64
		wantFallback   bool
	}{
		{"balanced", f(8), f(25), 6.8, f(5), false},
		{"upside above range", f(5), f(200), 7, f(10), false},
		{"upside below range", f(5), f(-80), 3, f(0), false},
		{"zero upside", f(6), f(0), 4.93, f(3.33), false},
		{"missing upside", f(7.25), nil, 7.25, nil, true},
		{"missing score", nil, f(100), 4, f(10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombinedScore(tt.score, tt.upside, w)
			assert.InDelta(t, tt.wantCombined, got.CombinedScore, 1e-9)
			assert.Equal(t, tt.wantFallback, got.Components.FallbackUsed)
			if tt.wantNormalized == nil {
				assert.Nil(t, got.Components.NormalizedUpside)
				assert.Nil(t, got.Components.UpsidePct)
			} else {
				require.NotNil(t, got.Components.NormalizedUpside)
				assert.InDelta(t, *tt.wantNormalized, *got.Components.NormalizedUpside, 1e-9)
			}
		})
	}
}

func TestInterpretScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{9.5, "Excellent"},
		{8.0, "Excellent"},
		{7.99, "Good"},
		{6.5, "Good"},
		{5.0, "Fair"},
		{3.0, "Poor"},
		{2.99, "Avoid"},
		{0, "Avoid"},
	}

	for _, tt := range tests {
		rating := InterpretScore(tt.score)
		assert.Equal(t, tt.want, rating.Label, "score %v", tt.score)
		assert.NotEmpty(t, rating.Description)
	}
}

func TestRankByCombinedScore(t *testing.T) {
	candidates := []contracts.RankedCandidate{
		{Rank: 1, CombinedScore: 5},
		{Rank: 2, CombinedScore: 7},
		{Rank: 3, CombinedScore: 5},
	}
	candidates[0].Symbol = "A"
	candidates[1].Symbol = "B"
	candidates[2].Symbol = "C"

	ranked := RankByCombinedScore(candidates)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{ranked[0].Symbol, ranked[1].Symbol, ranked[2].Symbol})
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})

	// input untouched
	assert.Equal(t, "A", candidates[0].Symbol)
	assert.Equal(t, 1, candidates[0].Rank)
}
