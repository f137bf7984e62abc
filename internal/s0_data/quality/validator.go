package quality

import (
	"time"

	"github.com/wonny/sectorscope/internal/contracts"
)

// QualityGate measures how complete a flattened stock list is
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds and coverage weights
type Config struct {
	MinQualityScore float64            `yaml:"min_quality_score"` // 0.6
	Weights         map[string]float64 `yaml:"weights"`           // canonical field → weight
}

// DefaultConfig returns the default coverage weights (sum = 1.0)
func DefaultConfig() Config {
	return Config{
		MinQualityScore: 0.6,
		Weights: map[string]float64{
			contracts.FieldPrice:              0.30, // 가격은 밸류에이션 필수
			contracts.FieldPERatio:            0.20,
			contracts.FieldPriceToBook:        0.15,
			contracts.FieldPriceToSales:       0.10,
			contracts.FieldROE:                0.10,
			contracts.FieldFreeCashFlowMargin: 0.05,
			contracts.FieldRevenueGrowth:      0.05,
			contracts.FieldDebtToEquity:       0.05,
		},
	}
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// Check computes coverage per weighted field over stocks.
// ⭐ SSOT: S0 → S1 품질 검증 (정보 제공용, 종목을 제외하지 않음)
func (g *QualityGate) Check(stocks []contracts.CanonicalStock) *contracts.DataQualitySnapshot {
	snapshot := &contracts.DataQualitySnapshot{
		CheckedAt:   time.Now(),
		TotalStocks: len(stocks),
		Coverage:    make(map[string]float64, len(g.config.Weights)),
	}

	// 1. 이슈 없는 종목 수
	for i := range stocks {
		if len(stocks[i].ValidationIssues) == 0 {
			snapshot.ValidStocks++
		}
	}

	// 2. 커버리지 체크
	for field := range g.config.Weights {
		snapshot.Coverage[field] = coverage(stocks, field)
	}

	// 3. 품질 점수 계산
	snapshot.QualityScore = g.calculateScore(snapshot.Coverage)
	snapshot.Passed = len(stocks) > 0 && snapshot.QualityScore >= g.config.MinQualityScore

	return snapshot
}

// coverage is the share of stocks with a usable value for field
func coverage(stocks []contracts.CanonicalStock, field string) float64 {
	if len(stocks) == 0 {
		return 0
	}

	present := 0
	for i := range stocks {
		if stocks[i].Metric(field) != nil {
			present++
		}
	}
	return float64(present) / float64(len(stocks))
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64) float64 {
	score := 0.0
	total := 0.0
	for key, weight := range g.config.Weights {
		total += weight
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}

	if total <= 0 {
		return 0
	}
	return score / total
}
