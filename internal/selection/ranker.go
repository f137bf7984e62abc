package selection

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/s1_stats"
	"github.com/wonny/sectorscope/internal/valuation"
	"github.com/wonny/sectorscope/pkg/logger"
)

// RankerConfig holds the ranking policy
type RankerConfig struct {
	TopN      int               `json:"topN"`
	Valuation valuation.Weights `json:"valuation"`
	Combined  CombinedWeights   `json:"combined"`
}

// RankOptions overrides the ranker policy for one call
type RankOptions struct {
	SectorStats *contracts.SectorStatistics // nil → computed from the input for the sector
	Weights     *valuation.Weights          // nil → RankerConfig.Valuation
	TopN        int                         // 0 → RankerConfig.TopN
}

// Ranker values screened stocks and selects the most undervalued
// ⭐ SSOT: S4 랭킹 로직은 여기서만
type Ranker struct {
	config RankerConfig
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(config RankerConfig, log *logger.Logger) *Ranker {
	return &Ranker{
		config: config,
		logger: log,
	}
}

// ValueTopUndervalued values the stocks, orders them by upside then screening score,
// and returns the top N with combined scores and notes
func (r *Ranker) ValueTopUndervalued(stocks []contracts.ScreeningResult, sector string, opts RankOptions) contracts.RankingOutcome {
	if len(stocks) == 0 {
		return contracts.RankingOutcome{
			Sector:  sector,
			Results: []contracts.RankedCandidate{},
		}
	}

	var stats contracts.SectorStatistics
	if opts.SectorStats != nil {
		stats = *opts.SectorStats
	} else {
		canonical := make([]contracts.CanonicalStock, len(stocks))
		for i := range stocks {
			canonical[i] = stocks[i].CanonicalStock
		}
		stats = s1_stats.ComputeSectorStats(canonical, sector)
	}

	weights := r.config.Valuation
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	topN := r.config.TopN
	if opts.TopN > 0 {
		topN = opts.TopN
	}
	if topN <= 0 {
		topN = 2
	}

	valued := valuation.NewValuer(weights, r.logger).ValueStocks(stocks, stats)

	sort.SliceStable(valued, func(i, j int) bool {
		if c := compareDesc(valued[i].Valuation.UpsidePct, valued[j].Valuation.UpsidePct); c != 0 {
			return c < 0
		}
		return compareDesc(valued[i].ScreeningScore, valued[j].ScreeningScore) < 0
	})

	if len(valued) > topN {
		valued = valued[:topN]
	}

	results := ScoreCandidates(valued, r.config.Combined)
	for i := range results {
		results[i].Rank = i + 1
		results[i].Notes = buildNotes(&results[i].CanonicalStock, stats)
	}

	fields := map[string]interface{}{
		"sector":      sector,
		"total_input": len(stocks),
		"selected":    len(results),
		"mean_pe":     stats.MeanPE,
	}
	if len(results) > 0 {
		fields["top_symbol"] = results[0].Symbol
		if u := results[0].Upside(); u != nil {
			fields["top_upside"] = *u
		}
	}
	r.logger.WithFields(fields).Info("Ranking completed")

	return contracts.RankingOutcome{
		Sector:      sector,
		SectorStats: &stats,
		Results:     results,
	}
}

// compareDesc orders a before b when a is larger; nil or non-finite values sort last
func compareDesc(a, b *float64) int {
	aok := a != nil && isFinite(*a)
	bok := b != nil && isFinite(*b)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	default:
		return 0
	}
}

func buildNotes(stock *contracts.CanonicalStock, stats contracts.SectorStatistics) []string {
	notes := make([]string, 0, 6)

	relative := []struct {
		label string
		value *float64
		mean  float64
	}{
		{"P/E", stock.PERatio, stats.MeanPE},
		{"P/B", stock.PriceToBook, stats.MeanPriceToBook},
		{"P/S", stock.PriceToSales, stats.MeanPriceToSales},
	}
	for _, m := range relative {
		if m.value == nil || !isFinite(*m.value) || m.mean <= 0 {
			continue
		}
		rel := valuation.Round2(*m.value / m.mean * 100)
		notes = append(notes, fmt.Sprintf("%s at %s%% of sector avg", m.label, formatNumber(rel)))
	}

	if v := stock.ROE; v != nil && isFinite(*v) {
		notes = append(notes, fmt.Sprintf("ROE %s%%", formatNumber(*v)))
	}
	if v := stock.FreeCashFlowMargin; v != nil && isFinite(*v) {
		notes = append(notes, fmt.Sprintf("FCF margin %s%%", formatNumber(*v)))
	}
	if v := stock.DebtToEquity; v != nil && isFinite(*v) {
		notes = append(notes, "Debt/Equity "+formatNumber(*v))
	}

	return notes
}

// formatNumber prints the shortest representation (12.5, 80, -3.25)
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DefaultRankerConfig returns default ranking policy
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		TopN:      2, // 섹터별 상위 2종목
		Valuation: valuation.DefaultWeights(),
		Combined:  DefaultCombinedWeights(),
	}
}
