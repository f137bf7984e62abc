// Package s1_stats computes sector mean multiples (S1).
// Statistics are always computed from a fully materialized stock list.
package s1_stats

import (
	"math"

	"github.com/wonny/sectorscope/internal/contracts"
)

// ComputeSectorStats averages P/E, P/B and P/S over stocks of sectorLabel with a positive price.
// Only finite, strictly positive multiples count; a mean with no qualifying value is 0 (no signal).
// ⭐ SSOT: 섹터 평균 배수 계산은 여기서만
func ComputeSectorStats(stocks []contracts.CanonicalStock, sectorLabel string) contracts.SectorStatistics {
	var pe, pb, ps accumulator
	for i := range stocks {
		s := &stocks[i]
		if s.Sector != sectorLabel || !hasUsablePrice(s) {
			continue
		}
		pe.add(s.PERatio)
		pb.add(s.PriceToBook)
		ps.add(s.PriceToSales)
	}

	return contracts.SectorStatistics{
		Sector:           sectorLabel,
		MeanPE:           pe.mean(),
		MeanPriceToBook:  pb.mean(),
		MeanPriceToSales: ps.mean(),
	}
}

// ComputeAll computes statistics for every sector label in one pass
func ComputeAll(stocks []contracts.CanonicalStock) map[string]contracts.SectorStatistics {
	type sums struct{ pe, pb, ps accumulator }
	bySector := make(map[string]*sums)

	for i := range stocks {
		s := &stocks[i]
		acc, ok := bySector[s.Sector]
		if !ok {
			acc = &sums{}
			bySector[s.Sector] = acc
		}
		if !hasUsablePrice(s) {
			continue
		}
		acc.pe.add(s.PERatio)
		acc.pb.add(s.PriceToBook)
		acc.ps.add(s.PriceToSales)
	}

	out := make(map[string]contracts.SectorStatistics, len(bySector))
	for sector, acc := range bySector {
		out[sector] = contracts.SectorStatistics{
			Sector:           sector,
			MeanPE:           acc.pe.mean(),
			MeanPriceToBook:  acc.pb.mean(),
			MeanPriceToSales: acc.ps.mean(),
		}
	}
	return out
}

func hasUsablePrice(s *contracts.CanonicalStock) bool {
	return s.Price != nil && isFinite(*s.Price) && *s.Price > 0
}

type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v *float64) {
	if v == nil || !isFinite(*v) || *v <= 0 {
		return
	}
	a.sum += *v
	a.count++
}

func (a *accumulator) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
