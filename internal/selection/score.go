package selection

import (
	"sort"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/valuation"
)

// CombinedWeights blends screening quality with valuation upside
type CombinedWeights struct {
	Screening   float64 `json:"screening" yaml:"screening"`
	Upside      float64 `json:"upside" yaml:"upside"`
	UpsideFloor float64 `json:"upsideFloor" yaml:"upside_floor"`     // upside % mapped to 0
	UpsideCeil  float64 `json:"upsideCeiling" yaml:"upside_ceiling"` // upside % mapped to 10
}

// DefaultCombinedWeights returns the default blend
// 스크리닝 60%, 업사이드 40% (-50% → 0, +100% → 10)
func DefaultCombinedWeights() CombinedWeights {
	return CombinedWeights{
		Screening:   0.6,
		Upside:      0.4,
		UpsideFloor: -50,
		UpsideCeil:  100,
	}
}

// CombinedScore blends a 0-10 screening score with upside.
// Without upside the screening score is used as-is and FallbackUsed is set.
func CombinedScore(screeningScore, upsidePct *float64, w CombinedWeights) contracts.InvestmentScore {
	score := 0.0
	if screeningScore != nil && isFinite(*screeningScore) {
		score = *screeningScore
	}

	if upsidePct == nil || !isFinite(*upsidePct) {
		return contracts.InvestmentScore{
			CombinedScore: score,
			Components: contracts.ScoreComponents{
				ScreeningScore: score,
				FallbackUsed:   true,
			},
		}
	}

	normalized := 0.0
	if span := w.UpsideCeil - w.UpsideFloor; span > 0 {
		normalized = clamp((*upsidePct-w.UpsideFloor)/span*10, 0, 10)
	}
	combined := score*w.Screening + normalized*w.Upside

	upside := *upsidePct
	return contracts.InvestmentScore{
		CombinedScore: valuation.Round2(combined),
		Components: contracts.ScoreComponents{
			ScreeningScore:   score,
			UpsidePct:        &upside,
			NormalizedUpside: contracts.Float(valuation.Round2(normalized)),
		},
	}
}

// InterpretScore labels a combined score for display
func InterpretScore(combined float64) contracts.ScoreRating {
	switch {
	case combined >= 8.0:
		return contracts.ScoreRating{Label: "Excellent", Description: "Outstanding opportunity with strong fundamentals and attractive valuation"}
	case combined >= 6.5:
		return contracts.ScoreRating{Label: "Good", Description: "Solid investment candidate with good balance of quality and value"}
	case combined >= 5.0:
		return contracts.ScoreRating{Label: "Fair", Description: "Moderate opportunity, may have some concerns or limited upside"}
	case combined >= 3.0:
		return contracts.ScoreRating{Label: "Poor", Description: "Below-average opportunity with significant concerns"}
	default:
		return contracts.ScoreRating{Label: "Avoid", Description: "High-risk investment with poor fundamentals and/or valuation"}
	}
}

// ScoreCandidates attaches combined scores and ratings to valued candidates, keeping order and leaving Rank unset
func ScoreCandidates(valued []contracts.ValuedCandidate, w CombinedWeights) []contracts.RankedCandidate {
	out := make([]contracts.RankedCandidate, 0, len(valued))
	for _, v := range valued {
		inv := CombinedScore(v.ScreeningScore, v.Valuation.UpsidePct, w)
		out = append(out, contracts.RankedCandidate{
			ValuedCandidate: v,
			CombinedScore:   inv.CombinedScore,
			ScoreComponents: inv.Components,
			Rating:          InterpretScore(inv.CombinedScore),
			Notes:           []string{},
		})
	}
	return out
}

// RankByCombinedScore returns a copy ordered by combined score descending (stable) with ranks reassigned
func RankByCombinedScore(candidates []contracts.RankedCandidate) []contracts.RankedCandidate {
	out := make([]contracts.RankedCandidate, len(candidates))
	copy(out, candidates)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
