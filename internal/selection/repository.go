package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/sectorscope/internal/contracts"
)

// ErrRunNotFound is returned when no run exists for a sector
var ErrRunNotFound = errors.New("analysis run not found")

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS selection;
	CREATE TABLE IF NOT EXISTS selection.analysis_runs (
		run_id        TEXT PRIMARY KEY,
		sector        TEXT NOT NULL,
		strategy_id   TEXT NOT NULL DEFAULT '',
		config_hash   TEXT NOT NULL DEFAULT '',
		total_stocks  INTEGER NOT NULL,
		sector_stocks INTEGER NOT NULL,
		selected      INTEGER NOT NULL,
		payload       JSONB NOT NULL,
		started_at    TIMESTAMPTZ NOT NULL,
		completed_at  TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS analysis_runs_sector_completed_idx
		ON selection.analysis_runs (sector, completed_at DESC);
`

// Repository handles analysis run persistence
// ⭐ SSOT: 분석 실행 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the selection schema and table when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveRun saves an analysis run; re-saving the same run ID replaces it
func (r *Repository) SaveRun(ctx context.Context, run *contracts.AnalysisRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	query := `
		INSERT INTO selection.analysis_runs (
			run_id, sector, strategy_id, config_hash,
			total_stocks, sector_stocks, selected, payload,
			started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			selected = EXCLUDED.selected,
			completed_at = EXCLUDED.completed_at,
			created_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		run.RunID, run.Sector, run.StrategyID, run.ConfigHash,
		run.TotalStocks, run.SectorStocks, len(run.Ranking.Results), payload,
		run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis run: %w", err)
	}

	return nil
}

// GetLatestRun retrieves the most recent run for a sector
func (r *Repository) GetLatestRun(ctx context.Context, sector string) (*contracts.AnalysisRun, error) {
	query := `
		SELECT payload
		FROM selection.analysis_runs
		WHERE sector = $1
		ORDER BY completed_at DESC
		LIMIT 1
	`

	var payload []byte
	err := r.pool.QueryRow(ctx, query, sector).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: sector %s", ErrRunNotFound, sector)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var run contracts.AnalysisRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return &run, nil
}

// RunSummary is a lightweight listing row
type RunSummary struct {
	RunID        string `json:"runId"`
	Sector       string `json:"sector"`
	StrategyID   string `json:"strategyId"`
	SectorStocks int    `json:"sectorStocks"`
	Selected     int    `json:"selected"`
	CompletedAt  string `json:"completedAt"`
}

// ListRuns retrieves recent run summaries, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT run_id, sector, strategy_id, sector_stocks, selected,
		       to_char(completed_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM selection.analysis_runs
		ORDER BY completed_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunSummary, 0)

	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.Sector, &s.StrategyID, &s.SectorStocks, &s.Selected, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}
