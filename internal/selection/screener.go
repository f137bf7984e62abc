package selection

import (
	"sort"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/s1_stats"
	"github.com/wonny/sectorscope/internal/valuation"
	"github.com/wonny/sectorscope/pkg/logger"
)

// Rule names used as keys of ScreeningResult.PassesCriteria
const (
	RuleMinROE                   = "minROE"
	RuleMaxPEMultiplier          = "maxPEMultiplier"
	RuleMaxPBMultiplier          = "maxPBMultiplier"
	RuleMaxPSMultiplier          = "maxPSMultiplier"
	RuleMinRevenueGrowth         = "minRevenueGrowth"
	RuleMaxDebtToEquity          = "maxDebtToEquity"
	RuleMinFreeCashFlowMargin    = "minFreeCashFlowMargin"
	RuleRequirePositiveNetIncome = "requirePositiveNetIncome"
)

// Criteria holds the screening rules; nil fields are not configured
type Criteria struct {
	Sector                   string   `json:"sector,omitempty"` // informational, the orchestrator filters by it
	MinROE                   *float64 `json:"minROE,omitempty"`
	MaxPEMultiplier          *float64 `json:"maxPEMultiplier,omitempty"`
	MaxPBMultiplier          *float64 `json:"maxPBMultiplier,omitempty"`
	MaxPSMultiplier          *float64 `json:"maxPSMultiplier,omitempty"`
	MinRevenueGrowth         *float64 `json:"minRevenueGrowth,omitempty"`
	MaxDebtToEquity          *float64 `json:"maxDebtToEquity,omitempty"`
	MinFreeCashFlowMargin    *float64 `json:"minFreeCashFlowMargin,omitempty"`
	RequirePositiveNetIncome bool     `json:"requirePositiveNetIncome,omitempty"`
}

// ScoringWeights weights each sub-score of the 0-10 screening score
type ScoringWeights struct {
	PE            float64 `json:"pe" yaml:"pe"`
	PB            float64 `json:"pb" yaml:"pb"`
	PS            float64 `json:"ps" yaml:"ps"`
	ROE           float64 `json:"roe" yaml:"roe"`
	FCFMargin     float64 `json:"fcfMargin" yaml:"fcf_margin"`
	RevenueGrowth float64 `json:"revenueGrowth" yaml:"revenue_growth"`
	DebtToEquity  float64 `json:"debtToEquity" yaml:"debt_to_equity"`
}

// Sum returns the total weight
func (w ScoringWeights) Sum() float64 {
	return w.PE + w.PB + w.PS + w.ROE + w.FCFMargin + w.RevenueGrowth + w.DebtToEquity
}

// ValidateWeights checks if weights are non-negative and sum to 1.0
func (w *ScoringWeights) ValidateWeights() bool {
	for _, v := range []float64{w.PE, w.PB, w.PS, w.ROE, w.FCFMargin, w.RevenueGrowth, w.DebtToEquity} {
		if v < 0 {
			return false
		}
	}
	sum := w.Sum()
	// Allow small floating point error
	return sum >= 0.99 && sum <= 1.01
}

// ScoringBands maps raw metric values to [0,1] sub-scores
type ScoringBands struct {
	RelativeFullCredit float64 `json:"relativeFullCredit" yaml:"relative_full_credit"` // ratio/sector mean at or below → 1
	RelativeZeroCredit float64 `json:"relativeZeroCredit" yaml:"relative_zero_credit"` // ratio/sector mean at or above → 0
	ROEFullCredit      float64 `json:"roeFullCredit" yaml:"roe_full_credit"`
	FCFFullCredit      float64 `json:"fcfFullCredit" yaml:"fcf_full_credit"`
	GrowthFullCredit   float64 `json:"growthFullCredit" yaml:"growth_full_credit"`
	DebtZeroCredit     float64 `json:"debtZeroCredit" yaml:"debt_zero_credit"`
}

// Screener scores stocks and evaluates screening rules
// ⭐ SSOT: S2 스크리닝 점수 계산은 여기서만
type Screener struct {
	weights ScoringWeights
	bands   ScoringBands
	logger  *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(weights ScoringWeights, bands ScoringBands, log *logger.Logger) *Screener {
	return &Screener{
		weights: weights,
		bands:   bands,
		logger:  log,
	}
}

// Screen scores every stock and returns them sorted by score descending.
// Relative multiples compare against each stock's own sector, computed from the whole input.
func (s *Screener) Screen(criteria Criteria, stocks []contracts.CanonicalStock) []contracts.ScreeningResult {
	results := make([]contracts.ScreeningResult, 0, len(stocks))
	if len(stocks) == 0 {
		return results
	}

	stats := s1_stats.ComputeAll(stocks)
	failed := make(map[string]int)
	passedCount := 0

	for i := range stocks {
		stock := stocks[i]
		score, breakdown := s.score(&stock, stats[stock.Sector])
		checks := checkConditions(&stock, criteria)

		passed := true
		for rule, ok := range checks {
			if !ok {
				passed = false
				failed[rule]++
			}
		}
		if passed {
			passedCount++
		}

		results = append(results, contracts.ScreeningResult{
			CanonicalStock:   stock,
			ScreeningScore:   &score,
			ScoringBreakdown: breakdown,
			PassesCriteria:   checks,
			Passed:           passed,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})

	s.logger.WithFields(map[string]interface{}{
		"total_input": len(stocks),
		"passed":      passedCount,
		"sectors":     len(stats),
		"filters":     failed,
		"top_symbol":  results[0].Symbol,
	}).Info("Screening completed")

	return results
}

// score returns the 0-10 score and its breakdown
func (s *Screener) score(stock *contracts.CanonicalStock, stats contracts.SectorStatistics) (float64, []contracts.CriterionScore) {
	b := s.bands
	terms := []contracts.CriterionScore{
		s.relativeTerm(contracts.FieldPERatio, stock.PERatio, stats.MeanPE, s.weights.PE),
		s.relativeTerm(contracts.FieldPriceToBook, stock.PriceToBook, stats.MeanPriceToBook, s.weights.PB),
		s.relativeTerm(contracts.FieldPriceToSales, stock.PriceToSales, stats.MeanPriceToSales, s.weights.PS),
		absoluteTerm(contracts.FieldROE, stock.ROE, s.weights.ROE, func(v float64) float64 {
			return linear(v, 0, b.ROEFullCredit)
		}),
		absoluteTerm(contracts.FieldFreeCashFlowMargin, stock.FreeCashFlowMargin, s.weights.FCFMargin, func(v float64) float64 {
			return linear(v, 0, b.FCFFullCredit)
		}),
		absoluteTerm(contracts.FieldRevenueGrowth, stock.RevenueGrowth, s.weights.RevenueGrowth, func(v float64) float64 {
			return linear(v, 0, b.GrowthFullCredit)
		}),
		absoluteTerm(contracts.FieldDebtToEquity, stock.DebtToEquity, s.weights.DebtToEquity, func(v float64) float64 {
			if v < 0 {
				return 0 // negative equity
			}
			return linear(v, b.DebtZeroCredit, 0)
		}),
	}

	total := s.weights.Sum()
	if total <= 0 {
		return 0, terms
	}

	sum := 0.0
	for i := range terms {
		contribution := 10 * terms[i].Weight * terms[i].SubScore / total
		terms[i].Contribution = valuation.Round2(contribution)
		sum += contribution
	}

	return valuation.Round2(sum), terms
}

// relativeTerm scores a multiple against its sector mean; lower is better
func (s *Screener) relativeTerm(field string, value *float64, mean, weight float64) contracts.CriterionScore {
	term := contracts.CriterionScore{
		Criterion: field,
		Value:     value,
		Weight:    weight,
	}
	if mean > 0 {
		term.SectorMean = contracts.Float(mean)
	}
	if value == nil || !isFinite(*value) || *value <= 0 || mean <= 0 {
		return term
	}
	term.SubScore = linear(*value/mean, s.bands.RelativeZeroCredit, s.bands.RelativeFullCredit)
	return term
}

func absoluteTerm(field string, value *float64, weight float64, fn func(float64) float64) contracts.CriterionScore {
	term := contracts.CriterionScore{
		Criterion: field,
		Value:     value,
		Weight:    weight,
	}
	if value == nil || !isFinite(*value) {
		return term
	}
	term.SubScore = fn(*value)
	return term
}

// linear maps v from zero (→0) to full (→1), clamped to [0,1]
func linear(v, zero, full float64) float64 {
	if full == zero {
		if v >= full {
			return 1
		}
		return 0
	}
	return clamp((v-zero)/(full-zero), 0, 1)
}

// checkConditions evaluates every configured rule; a missing value fails its rule
func checkConditions(stock *contracts.CanonicalStock, c Criteria) map[string]bool {
	checks := make(map[string]bool)

	if c.MinROE != nil {
		checks[RuleMinROE] = atLeast(stock.ROE, *c.MinROE)
	}
	// 멀티플은 양수일 때만 유효 (적자 기업 PER 제외)
	if c.MaxPEMultiplier != nil {
		checks[RuleMaxPEMultiplier] = positiveAtMost(stock.PERatio, *c.MaxPEMultiplier)
	}
	if c.MaxPBMultiplier != nil {
		checks[RuleMaxPBMultiplier] = positiveAtMost(stock.PriceToBook, *c.MaxPBMultiplier)
	}
	if c.MaxPSMultiplier != nil {
		checks[RuleMaxPSMultiplier] = positiveAtMost(stock.PriceToSales, *c.MaxPSMultiplier)
	}
	if c.MinRevenueGrowth != nil {
		checks[RuleMinRevenueGrowth] = atLeast(stock.RevenueGrowth, *c.MinRevenueGrowth)
	}
	if c.MaxDebtToEquity != nil {
		checks[RuleMaxDebtToEquity] = stock.DebtToEquity != nil && isFinite(*stock.DebtToEquity) && *stock.DebtToEquity <= *c.MaxDebtToEquity
	}
	if c.MinFreeCashFlowMargin != nil {
		checks[RuleMinFreeCashFlowMargin] = atLeast(stock.FreeCashFlowMargin, *c.MinFreeCashFlowMargin)
	}
	if c.RequirePositiveNetIncome {
		checks[RuleRequirePositiveNetIncome] = stock.NetIncome != nil && isFinite(*stock.NetIncome) && *stock.NetIncome > 0
	}

	return checks
}

func atLeast(v *float64, min float64) bool {
	return v != nil && isFinite(*v) && *v >= min
}

func positiveAtMost(v *float64, max float64) bool {
	return v != nil && isFinite(*v) && *v > 0 && *v <= max
}

// DefaultScoringWeights returns default screening weights
// PER 30%, PBR 18%, PSR 14%, ROE 14%, FCF 10%, 매출성장 8%, 부채비율 6%
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		PE:            0.30,
		PB:            0.18,
		PS:            0.14,
		ROE:           0.14,
		FCFMargin:     0.10,
		RevenueGrowth: 0.08,
		DebtToEquity:  0.06,
	}
}

// DefaultScoringBands returns default scoring bands
func DefaultScoringBands() ScoringBands {
	return ScoringBands{
		RelativeFullCredit: 0.5, // 섹터 평균의 절반 이하 → 만점
		RelativeZeroCredit: 2.0, // 섹터 평균의 2배 이상 → 0점
		ROEFullCredit:      25,
		FCFFullCredit:      20,
		GrowthFullCredit:   20,
		DebtZeroCredit:     3.0,
	}
}
