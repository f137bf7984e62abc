package contracts

// RankedCandidate is the terminal pipeline output
// ⭐ SSOT: S4 랭킹 결과 전달
type RankedCandidate struct {
	ValuedCandidate

	Rank            int             `json:"rank"` // 1-based
	CombinedScore   float64         `json:"combinedScore"`
	ScoreComponents ScoreComponents `json:"scoreComponents"`
	Rating          ScoreRating     `json:"rating"`
	Notes           []string        `json:"notes"`
}

// ScoreComponents explains how the combined score was reached
type ScoreComponents struct {
	ScreeningScore   float64  `json:"screeningScore"`
	UpsidePct        *float64 `json:"upsidePct"`
	NormalizedUpside *float64 `json:"normalizedUpside"`
	FallbackUsed     bool     `json:"fallbackUsed"`
}

// InvestmentScore is the result of combining screening and upside
type InvestmentScore struct {
	CombinedScore float64         `json:"combinedScore"`
	Components    ScoreComponents `json:"components"`
}

// ScoreRating interprets a combined score for display
type ScoreRating struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// IsTopRanked checks if the candidate is in top N ranks
func (r *RankedCandidate) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}

// RankingOutcome is the ranker's result for one sector; SectorStats is nil for empty input
type RankingOutcome struct {
	Sector      string            `json:"sector"`
	SectorStats *SectorStatistics `json:"sectorStats"`
	Results     []RankedCandidate `json:"results"`
}
