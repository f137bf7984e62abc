package contracts

// ScreeningResult is a canonical stock with its S2 screening score
// ⭐ SSOT: S2 스크리닝 결과
type ScreeningResult struct {
	CanonicalStock

	ScreeningScore   *float64         `json:"screeningScore"` // 0-10, nil when not screened
	ScoringBreakdown []CriterionScore `json:"scoringBreakdown"`
	PassesCriteria   map[string]bool  `json:"passesCriteria"`
	Passed           bool             `json:"passed"`
}

// CriterionScore explains one term of the screening score
type CriterionScore struct {
	Criterion    string   `json:"criterion"`
	Value        *float64 `json:"value"`
	SectorMean   *float64 `json:"sectorMean,omitempty"` // relative multiples only
	SubScore     float64  `json:"subScore"`             // 0-1
	Weight       float64  `json:"weight"`
	Contribution float64  `json:"contribution"` // points on the 0-10 scale
}

// Score returns the screening score or 0 when absent
func (r *ScreeningResult) Score() float64 {
	if r.ScreeningScore == nil {
		return 0
	}
	return *r.ScreeningScore
}
