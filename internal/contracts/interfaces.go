package contracts

import "context"

// DatasetSource loads a sector dataset (S0 입력)
// ⭐ SSOT: 외부 데이터 수집/캐시 협력자 인터페이스
type DatasetSource interface {
	Load(ctx context.Context, sectorKey string) (*Dataset, error)
}

// ReportGenerator turns an analysis prompt into a narrative report
// ⭐ SSOT: 외부 리포트 생성 협력자 인터페이스
type ReportGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RunStore persists analysis runs
type RunStore interface {
	SaveRun(ctx context.Context, run *AnalysisRun) error
	GetLatestRun(ctx context.Context, sector string) (*AnalysisRun, error)
}
