package contracts

import "time"

// AnalysisRun is the envelope of one orchestrated sector analysis
// ⭐ SSOT: 분석 실행 결과 (API 응답 / DB 저장 단위)
type AnalysisRun struct {
	RunID        string               `json:"runId"`
	Sector       string               `json:"sector"`
	StrategyID   string               `json:"strategyId,omitempty"`
	ConfigHash   string               `json:"configHash,omitempty"`
	TotalStocks  int                  `json:"totalStocks"`
	SectorStocks int                  `json:"sectorStocks"`
	InvalidCount int                  `json:"invalidCount"`
	Issues       map[string][]string  `json:"issues"`
	Quality      *DataQualitySnapshot `json:"quality,omitempty"`
	TopScreened  []ScreeningResult    `json:"topScreened"`
	Ranking      RankingOutcome       `json:"ranking"`
	Prompt       string               `json:"prompt,omitempty"`
	Report       string               `json:"report,omitempty"`
	StartedAt    time.Time            `json:"startedAt"`
	CompletedAt  time.Time            `json:"completedAt"`
}

// Duration returns how long the run took
func (r *AnalysisRun) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
