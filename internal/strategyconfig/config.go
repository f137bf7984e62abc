package strategyconfig

import (
	"time"

	"github.com/wonny/sectorscope/internal/selection"
	"github.com/wonny/sectorscope/internal/valuation"
)

// Config는 섹터 스크리닝/밸류에이션 전략의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Screening Screening `yaml:"screening" json:"screening"`
	Valuation Valuation `yaml:"valuation" json:"valuation"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
	Quality   Quality   `yaml:"quality" json:"quality"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id" validate:"required"`
	Version     string `yaml:"version" json:"version" validate:"required"`
	Description string `yaml:"description" json:"description"`
}

// Screening S2: 스크리닝 규칙과 점수 가중치
type Screening struct {
	Criteria Criteria       `yaml:"criteria" json:"criteria"`
	Weights  ScoringWeights `yaml:"weights" json:"weights"`
	Bands    ScoringBands   `yaml:"bands" json:"bands"`
}

// Criteria 스크리닝 규칙 (미설정 = 적용 안 함)
type Criteria struct {
	MinROE                   *float64 `yaml:"min_roe" json:"min_roe,omitempty" validate:"omitempty,gte=-200,lte=500"`
	MaxPE                    *float64 `yaml:"max_pe" json:"max_pe,omitempty" validate:"omitempty,gt=0"`
	MaxPB                    *float64 `yaml:"max_pb" json:"max_pb,omitempty" validate:"omitempty,gt=0"`
	MaxPS                    *float64 `yaml:"max_ps" json:"max_ps,omitempty" validate:"omitempty,gt=0"`
	MinRevenueGrowth         *float64 `yaml:"min_revenue_growth" json:"min_revenue_growth,omitempty" validate:"omitempty,gte=-100"`
	MaxDebtToEquity          *float64 `yaml:"max_debt_to_equity" json:"max_debt_to_equity,omitempty" validate:"omitempty,gte=0"`
	MinFreeCashFlowMargin    *float64 `yaml:"min_fcf_margin" json:"min_fcf_margin,omitempty" validate:"omitempty,gte=-100,lte=100"`
	RequirePositiveNetIncome bool     `yaml:"require_positive_net_income" json:"require_positive_net_income"`
}

// Configured returns the number of rules set
func (c Criteria) Configured() int {
	n := 0
	for _, v := range []*float64{c.MinROE, c.MaxPE, c.MaxPB, c.MaxPS, c.MinRevenueGrowth, c.MaxDebtToEquity, c.MinFreeCashFlowMargin} {
		if v != nil {
			n++
		}
	}
	if c.RequirePositiveNetIncome {
		n++
	}
	return n
}

type ScoringWeights struct {
	PE            float64 `yaml:"pe" json:"pe" validate:"gte=0,lte=1"`
	PB            float64 `yaml:"pb" json:"pb" validate:"gte=0,lte=1"`
	PS            float64 `yaml:"ps" json:"ps" validate:"gte=0,lte=1"`
	ROE           float64 `yaml:"roe" json:"roe" validate:"gte=0,lte=1"`
	FCFMargin     float64 `yaml:"fcf_margin" json:"fcf_margin" validate:"gte=0,lte=1"`
	RevenueGrowth float64 `yaml:"revenue_growth" json:"revenue_growth" validate:"gte=0,lte=1"`
	DebtToEquity  float64 `yaml:"debt_to_equity" json:"debt_to_equity" validate:"gte=0,lte=1"`
}

// Sum returns the sum of all weights
func (w ScoringWeights) Sum() float64 {
	return w.PE + w.PB + w.PS + w.ROE + w.FCFMargin + w.RevenueGrowth + w.DebtToEquity
}

type ScoringBands struct {
	RelativeFullCredit float64 `yaml:"relative_full_credit" json:"relative_full_credit" validate:"gt=0"`
	RelativeZeroCredit float64 `yaml:"relative_zero_credit" json:"relative_zero_credit" validate:"gt=0"`
	ROEFullCredit      float64 `yaml:"roe_full_credit" json:"roe_full_credit" validate:"gt=0"`
	FCFFullCredit      float64 `yaml:"fcf_full_credit" json:"fcf_full_credit" validate:"gt=0"`
	GrowthFullCredit   float64 `yaml:"growth_full_credit" json:"growth_full_credit" validate:"gt=0"`
	DebtZeroCredit     float64 `yaml:"debt_zero_credit" json:"debt_zero_credit" validate:"gt=0"`
}

// Valuation S3: 멀티플 블렌딩 가중치
type Valuation struct {
	Weights ValuationWeights `yaml:"weights" json:"weights"`
}

type ValuationWeights struct {
	PE float64 `yaml:"pe" json:"pe" validate:"gte=0"`
	PB float64 `yaml:"pb" json:"pb" validate:"gte=0"`
	PS float64 `yaml:"ps" json:"ps" validate:"gte=0"`
}

// Ranking S4: 선정 정책
type Ranking struct {
	TopN        int             `yaml:"top_n" json:"top_n" validate:"min=1,max=50"`
	PromptLimit int             `yaml:"prompt_limit" json:"prompt_limit" validate:"min=1,max=200"`
	Combined    CombinedWeights `yaml:"combined" json:"combined"`
}

type CombinedWeights struct {
	Screening     float64 `yaml:"screening" json:"screening" validate:"gte=0,lte=1"`
	Upside        float64 `yaml:"upside" json:"upside" validate:"gte=0,lte=1"`
	UpsideFloor   float64 `yaml:"upside_floor" json:"upside_floor"`
	UpsideCeiling float64 `yaml:"upside_ceiling" json:"upside_ceiling"`
}

// Quality S0: 데이터 품질 게이트
type Quality struct {
	MinScore float64 `yaml:"min_score" json:"min_score" validate:"gte=0,lte=1"`
}

// DecisionSnapshot 의사결정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash     string    `json:"config_hash"`
	ConfigYAML     string    `json:"config_yaml"`
	StrategyID     string    `json:"strategy_id"`
	GitCommit      string    `json:"git_commit"`
	DataSnapshotID string    `json:"data_snapshot_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Default returns the built-in strategy used when no file is configured
func Default() *Config {
	sw := selection.DefaultScoringWeights()
	sb := selection.DefaultScoringBands()
	vw := valuation.DefaultWeights()
	cw := selection.DefaultCombinedWeights()

	return &Config{
		Meta: Meta{
			StrategyID:  "undervalued_default",
			Version:     "1.0.0",
			Description: "built-in sector undervaluation strategy",
		},
		Screening: Screening{
			Weights: ScoringWeights{
				PE: sw.PE, PB: sw.PB, PS: sw.PS, ROE: sw.ROE,
				FCFMargin: sw.FCFMargin, RevenueGrowth: sw.RevenueGrowth, DebtToEquity: sw.DebtToEquity,
			},
			Bands: ScoringBands{
				RelativeFullCredit: sb.RelativeFullCredit,
				RelativeZeroCredit: sb.RelativeZeroCredit,
				ROEFullCredit:      sb.ROEFullCredit,
				FCFFullCredit:      sb.FCFFullCredit,
				GrowthFullCredit:   sb.GrowthFullCredit,
				DebtZeroCredit:     sb.DebtZeroCredit,
			},
		},
		Valuation: Valuation{
			Weights: ValuationWeights{PE: vw.PE, PB: vw.PB, PS: vw.PS},
		},
		Ranking: Ranking{
			TopN:        2,
			PromptLimit: 25,
			Combined: CombinedWeights{
				Screening:     cw.Screening,
				Upside:        cw.Upside,
				UpsideFloor:   cw.UpsideFloor,
				UpsideCeiling: cw.UpsideCeil,
			},
		},
		Quality: Quality{MinScore: 0.6},
	}
}

// SelectionCriteria converts the rules into screener criteria for a sector
func (c *Config) SelectionCriteria(sector string) selection.Criteria {
	cr := c.Screening.Criteria
	return selection.Criteria{
		Sector:                   sector,
		MinROE:                   cr.MinROE,
		MaxPEMultiplier:          cr.MaxPE,
		MaxPBMultiplier:          cr.MaxPB,
		MaxPSMultiplier:          cr.MaxPS,
		MinRevenueGrowth:         cr.MinRevenueGrowth,
		MaxDebtToEquity:          cr.MaxDebtToEquity,
		MinFreeCashFlowMargin:    cr.MinFreeCashFlowMargin,
		RequirePositiveNetIncome: cr.RequirePositiveNetIncome,
	}
}

// ScoringWeights converts to screener weights
func (c *Config) ScoringWeights() selection.ScoringWeights {
	w := c.Screening.Weights
	return selection.ScoringWeights{
		PE: w.PE, PB: w.PB, PS: w.PS, ROE: w.ROE,
		FCFMargin: w.FCFMargin, RevenueGrowth: w.RevenueGrowth, DebtToEquity: w.DebtToEquity,
	}
}

// ScoringBands converts to screener bands
func (c *Config) ScoringBands() selection.ScoringBands {
	b := c.Screening.Bands
	return selection.ScoringBands{
		RelativeFullCredit: b.RelativeFullCredit,
		RelativeZeroCredit: b.RelativeZeroCredit,
		ROEFullCredit:      b.ROEFullCredit,
		FCFFullCredit:      b.FCFFullCredit,
		GrowthFullCredit:   b.GrowthFullCredit,
		DebtZeroCredit:     b.DebtZeroCredit,
	}
}

// ValuationWeights converts to estimator weights
func (c *Config) ValuationWeights() valuation.Weights {
	w := c.Valuation.Weights
	return valuation.Weights{PE: w.PE, PB: w.PB, PS: w.PS}
}

// RankerConfig converts the ranking policy
func (c *Config) RankerConfig() selection.RankerConfig {
	cw := c.Ranking.Combined
	return selection.RankerConfig{
		TopN:      c.Ranking.TopN,
		Valuation: c.ValuationWeights(),
		Combined: selection.CombinedWeights{
			Screening:   cw.Screening,
			Upside:      cw.Upside,
			UpsideFloor: cw.UpsideFloor,
			UpsideCeil:  cw.UpsideCeiling,
		},
	}
}
