package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/pkg/logger"
)

func f(v float64) *float64 { return &v }

func newTestScreener() *Screener {
	return NewScreener(DefaultScoringWeights(), DefaultScoringBands(), logger.NewNop())
}

func TestScreen_Empty(t *testing.T) {
	results := newTestScreener().Screen(Criteria{}, nil)
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestScreen_RelativeToSectorMean(t *testing.T) {
	stocks := []contracts.CanonicalStock{
		{Symbol: "EXP", Sector: "Technology", Price: f(100), PERatio: f(30)},
		{Symbol: "CHP", Sector: "Technology", Price: f(100), PERatio: f(10)},
	}

	results := newTestScreener().Screen(Criteria{}, stocks)
	require.Len(t, results, 2)

	// mean P/E 20: ratio 0.5 earns full credit, ratio 1.5 earns a third
	assert.Equal(t, "CHP", results[0].Symbol)
	assert.Equal(t, 3.0, *results[0].ScreeningScore)
	assert.Equal(t, "EXP", results[1].Symbol)
	assert.Equal(t, 1.0, *results[1].ScreeningScore)

	pe := results[0].ScoringBreakdown[0]
	assert.Equal(t, contracts.FieldPERatio, pe.Criterion)
	require.NotNil(t, pe.SectorMean)
	assert.Equal(t, 20.0, *pe.SectorMean)
	assert.Equal(t, 1.0, pe.SubScore)
	assert.Equal(t, 3.0, pe.Contribution)
}

func TestScreen_AllTerms(t *testing.T) {
	stocks := []contracts.CanonicalStock{{
		Symbol: "XOM", Sector: "Energy", Price: f(110),
		PERatio: f(10), PriceToBook: f(2), PriceToSales: f(1),
		ROE: f(25), FreeCashFlowMargin: f(20), RevenueGrowth: f(20), DebtToEquity: f(0),
	}}

	results := newTestScreener().Screen(Criteria{}, stocks)
	require.Len(t, results, 1)

	// multiples at the sector mean score 2/3, absolute terms at full credit
	assert.Equal(t, 7.93, *results[0].ScreeningScore)
	assert.Len(t, results[0].ScoringBreakdown, 7)
}

func TestScreen_StatsPerOwnSector(t *testing.T) {
	stocks := []contracts.CanonicalStock{
		{Symbol: "A", Sector: "Technology", Price: f(10), PERatio: f(10)},
		{Symbol: "B", Sector: "Technology", Price: f(10), PERatio: f(30)},
		{Symbol: "C", Sector: "Utilities", Price: f(10), PERatio: f(100)},
	}

	results := newTestScreener().Screen(Criteria{}, stocks)
	bySymbol := make(map[string]contracts.ScreeningResult)
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}

	// C is alone in its sector so its ratio is 1
	assert.InDelta(t, 2.0, *bySymbol["C"].ScreeningScore, 0.001)
	assert.Equal(t, 100.0, *bySymbol["C"].ScoringBreakdown[0].SectorMean)
	assert.Equal(t, 20.0, *bySymbol["A"].ScoringBreakdown[0].SectorMean)
}

func TestScreen_MissingValuesScoreZero(t *testing.T) {
	stocks := []contracts.CanonicalStock{
		{Symbol: "NONE", Sector: "Technology"},
		{Symbol: "BAD", Sector: "Technology", Price: f(-5), PERatio: f(math.NaN())},
	}

	results := newTestScreener().Screen(Criteria{}, stocks)
	for _, r := range results {
		require.NotNil(t, r.ScreeningScore)
		assert.Equal(t, 0.0, *r.ScreeningScore)
		assert.False(t, math.IsNaN(*r.ScreeningScore))
	}
}

func TestScreen_StableForTies(t *testing.T) {
	stocks := []contracts.CanonicalStock{
		{Symbol: "FIRST", Sector: "Technology", ROE: f(10)},
		{Symbol: "SECOND", Sector: "Technology", ROE: f(10)},
		{Symbol: "THIRD", Sector: "Technology", ROE: f(10)},
	}

	results := newTestScreener().Screen(Criteria{}, stocks)
	require.Len(t, results, 3)
	assert.Equal(t, "FIRST", results[0].Symbol)
	assert.Equal(t, "SECOND", results[1].Symbol)
	assert.Equal(t, "THIRD", results[2].Symbol)
}

func TestScreen_KeepsInvalidRecords(t *testing.T) {
	stocks := []contracts.CanonicalStock{{
		Symbol: "ODD", Sector: "Technology", Price: f(50), PERatio: f(9999),
		ValidationIssues: []string{"Out of range peRatio: 9999 (expected 0.01..500)"},
	}}

	results := newTestScreener().Screen(Criteria{}, stocks)
	require.Len(t, results, 1)
	assert.Equal(t, stocks[0].ValidationIssues, results[0].ValidationIssues)
	assert.NotNil(t, results[0].ScreeningScore)
}

func TestCheckConditions(t *testing.T) {
	stock := contracts.CanonicalStock{
		Symbol: "AAPL", Sector: "Technology",
		PERatio: f(25), PriceToBook: f(40), ROE: f(150),
		DebtToEquity: f(1.5), NetIncome: f(-1),
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     map[string]bool
	}{
		{
			name:     "no rules configured",
			criteria: Criteria{Sector: "Technology"},
			want:     map[string]bool{},
		},
		{
			name:     "roe floor",
			criteria: Criteria{MinROE: f(15)},
			want:     map[string]bool{RuleMinROE: true},
		},
		{
			name:     "multiple ceilings",
			criteria: Criteria{MaxPEMultiplier: f(20), MaxPBMultiplier: f(50)},
			want:     map[string]bool{RuleMaxPEMultiplier: false, RuleMaxPBMultiplier: true},
		},
		{
			name:     "missing values fail",
			criteria: Criteria{MaxPSMultiplier: f(10), MinRevenueGrowth: f(0), MinFreeCashFlowMargin: f(0)},
			want: map[string]bool{
				RuleMaxPSMultiplier:       false,
				RuleMinRevenueGrowth:      false,
				RuleMinFreeCashFlowMargin: false,
			},
		},
		{
			name:     "leverage and profitability",
			criteria: Criteria{MaxDebtToEquity: f(2), RequirePositiveNetIncome: true},
			want:     map[string]bool{RuleMaxDebtToEquity: true, RuleRequirePositiveNetIncome: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkConditions(&stock, tt.criteria))
		})
	}
}

func TestScreen_PassedFlag(t *testing.T) {
	stocks := []contracts.CanonicalStock{
		{Symbol: "GOOD", Sector: "Technology", ROE: f(20), DebtToEquity: f(0.5)},
		{Symbol: "LEVERED", Sector: "Technology", ROE: f(20), DebtToEquity: f(4)},
	}

	results := newTestScreener().Screen(Criteria{MinROE: f(15), MaxDebtToEquity: f(2)}, stocks)
	bySymbol := make(map[string]contracts.ScreeningResult)
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}

	assert.True(t, bySymbol["GOOD"].Passed)
	assert.False(t, bySymbol["LEVERED"].Passed)
	assert.False(t, bySymbol["LEVERED"].PassesCriteria[RuleMaxDebtToEquity])
	assert.True(t, bySymbol["LEVERED"].PassesCriteria[RuleMinROE])
}

func TestLinear(t *testing.T) {
	tests := []struct {
		name          string
		v, zero, full float64
		want          float64
	}{
		{"relative full credit", 0.5, 2.0, 0.5, 1},
		{"relative zero credit", 2.5, 2.0, 0.5, 0},
		{"relative midpoint", 1.25, 2.0, 0.5, 0.5},
		{"roe half", 12.5, 0, 25, 0.5},
		{"negative roe", -10, 0, 25, 0},
		{"debt zero credit", 3, 3, 0, 0},
		{"debt none", 0, 3, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, linear(tt.v, tt.zero, tt.full), 1e-9)
		})
	}
}

func TestScoringWeights_ValidateWeights(t *testing.T) {
	w := DefaultScoringWeights()
	assert.True(t, w.ValidateWeights())
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)

	w.PE = 0.5
	assert.False(t, w.ValidateWeights())

	neg := DefaultScoringWeights()
	neg.PE = -0.1
	neg.PB = 0.58
	assert.False(t, neg.ValidateWeights())
}
