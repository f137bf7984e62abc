package contracts

import "time"

// DataQualitySnapshot summarizes metric coverage of a flattened dataset
// ⭐ SSOT: S0 → S1 데이터 품질 정보 전달
type DataQualitySnapshot struct {
	CheckedAt    time.Time          `json:"checkedAt"`
	TotalStocks  int                `json:"totalStocks"`
	ValidStocks  int                `json:"validStocks"` // no validation issues
	Coverage     map[string]float64 `json:"coverage"`     // 필드별 커버리지 (0.0 ~ 1.0)
	QualityScore float64            `json:"qualityScore"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`
}

// CoverageRate returns the average coverage rate across all fields
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}
