// Package valuation estimates fair prices from sector mean multiples (S3).
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/pkg/logger"
)

// Weights are the blend weights of the three valuation methods
type Weights struct {
	PE float64 `json:"pe" yaml:"pe"`
	PB float64 `json:"pb" yaml:"pb"`
	PS float64 `json:"ps" yaml:"ps"`
}

// WeightOverrides replaces only the weights that are set
type WeightOverrides struct {
	PE *float64 `json:"pe,omitempty" yaml:"pe"`
	PB *float64 `json:"pb,omitempty" yaml:"pb"`
	PS *float64 `json:"ps,omitempty" yaml:"ps"`
}

// DefaultWeights returns {pe: 0.5, pb: 0.3, ps: 0.2}
func DefaultWeights() Weights {
	return Weights{PE: 0.5, PB: 0.3, PS: 0.2}
}

// Merge applies overrides on top of w
func (w Weights) Merge(o WeightOverrides) Weights {
	if o.PE != nil {
		w.PE = *o.PE
	}
	if o.PB != nil {
		w.PB = *o.PB
	}
	if o.PS != nil {
		w.PS = *o.PS
	}
	return w
}

// EstimateFairPrice blends per-method fair prices derived from sector means.
// Methods without a positive ratio or sector mean are left out and the remaining weights renormalized.
// ⭐ SSOT: 적정가 추정은 여기서만
func EstimateFairPrice(stock *contracts.CanonicalStock, stats contracts.SectorStatistics, w Weights) contracts.Valuation {
	v := contracts.Valuation{
		Inputs: contracts.ValuationInputs{
			Price:   stock.Price,
			PE:      stock.PERatio,
			PB:      stock.PriceToBook,
			PS:      stock.PriceToSales,
			MeanPE:  stats.MeanPE,
			MeanPB:  stats.MeanPriceToBook,
			MeanPS:  stats.MeanPriceToSales,
			Weights: contracts.ValuationWeights{PE: w.PE, PB: w.PB, PS: w.PS},
		},
	}

	price := 0.0
	if stock.Price != nil && isFinite(*stock.Price) {
		price = *stock.Price
	}

	eps := perShare(price, stock.PERatio)
	bps := perShare(price, stock.PriceToBook)
	sps := perShare(price, stock.PriceToSales)

	fairPE := fairBy(eps, stats.MeanPE)
	fairPB := fairBy(bps, stats.MeanPriceToBook)
	fairPS := fairBy(sps, stats.MeanPriceToSales)

	v.Components = contracts.ValuationComponents{
		EarningsPerShare: roundPtr(eps),
		BookPerShare:     roundPtr(bps),
		SalesPerShare:    roundPtr(sps),
		FairByPE:         roundPtr(fairPE),
		FairByPB:         roundPtr(fairPB),
		FairByPS:         roundPtr(fairPS),
	}

	blended := blend([]method{{fairPE, w.PE}, {fairPB, w.PB}, {fairPS, w.PS}})
	if blended == nil {
		return v
	}
	v.BlendedFairPrice = roundPtr(blended)

	if price > 0 && *blended != 0 {
		upside := (*blended - price) / price * 100
		margin := (*blended - price) / *blended * 100
		v.UpsidePct = roundPtr(&upside)
		v.MarginOfSafety = roundPtr(&margin)
	}

	return v
}

type method struct {
	fair   *float64
	weight float64
}

// blend is the weighted mean over methods with a fair price
func blend(methods []method) *float64 {
	sum, weights := 0.0, 0.0
	for _, m := range methods {
		if m.fair == nil || !isFinite(*m.fair) {
			continue
		}
		sum += *m.fair * m.weight
		weights += m.weight
	}
	if weights <= 0 {
		return nil
	}
	out := sum / weights
	if !isFinite(out) {
		return nil
	}
	return &out
}

func perShare(price float64, ratio *float64) *float64 {
	if ratio == nil || !isFinite(*ratio) || *ratio <= 0 {
		return nil
	}
	v := price / *ratio
	if !isFinite(v) {
		return nil
	}
	return &v
}

func fairBy(perShare *float64, mean float64) *float64 {
	// a zero per-share value carries no signal
	if perShare == nil || *perShare == 0 || mean <= 0 {
		return nil
	}
	v := *perShare * mean
	if !isFinite(v) {
		return nil
	}
	return &v
}

// Valuer values lists of screening results
type Valuer struct {
	weights Weights
	logger  *logger.Logger
}

// NewValuer creates a Valuer with the given weights
func NewValuer(weights Weights, log *logger.Logger) *Valuer {
	return &Valuer{weights: weights, logger: log}
}

// ValueStocks attaches a valuation to every result, preserving order
func (v *Valuer) ValueStocks(results []contracts.ScreeningResult, stats contracts.SectorStatistics) []contracts.ValuedCandidate {
	out := make([]contracts.ValuedCandidate, 0, len(results))
	withFair := 0
	for i := range results {
		val := EstimateFairPrice(&results[i].CanonicalStock, stats, v.weights)
		if val.BlendedFairPrice != nil {
			withFair++
		}
		out = append(out, contracts.ValuedCandidate{
			ScreeningResult: results[i],
			Valuation:       val,
		})
	}

	v.logger.WithFields(map[string]interface{}{
		"sector":    stats.Sector,
		"stocks":    len(results),
		"with_fair": withFair,
	}).Debug("Valued stocks")

	return out
}

// Round2 rounds half away from zero to 2 decimal places; non-finite input is returned unchanged
func Round2(x float64) float64 {
	if !isFinite(x) {
		return x
	}
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}

func roundPtr(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}
	r := Round2(*v)
	return &r
}
