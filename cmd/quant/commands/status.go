package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorscope/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "의존성 상태 확인",
	Long: `설정과 외부 의존성 상태를 확인합니다.

표시 정보:
- 데이터셋 소스 (파일 / URL)
- 활성 전략
- Redis 캐시 연결
- PostgreSQL 연결 (DATABASE_URL 설정 시)
- 최근 분석 실행

Example:
  go run ./cmd/quant status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	rt, err := newRuntime(ctx, runtimeOptions{persist: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintln(w, "  sectorscope status")
	fmt.Fprintln(w, singleLine)

	source := rt.cfg.Dataset.Path
	if source == "" {
		source = rt.cfg.Dataset.URL
	}
	PrintKeyValue(w, "Dataset", source, 10)
	PrintKeyValue(w, "Strategy", rt.orchestrator.Strategy().Meta.StrategyID, 10)
	PrintKeyValue(w, "Redis", enabledLabel(rt.redis.Enabled()), 10)
	PrintKeyValue(w, "Database", enabledLabel(rt.db != nil), 10)
	fmt.Fprintln(w, singleLine)

	if rt.db != nil {
		printDatabaseHealth(w, rt.db.HealthCheck(ctx))
	}

	if rt.repo != nil {
		runs, err := rt.repo.ListRuns(ctx, 5)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		fmt.Fprintln(w)
		PrintTableHeader(w, []string{"Run", "Sector", "Selected", "Completed"}, []int{36, 20, 8, 20})
		for _, r := range runs {
			PrintTableRow(w, []string{r.RunID, r.Sector, fmt.Sprint(r.Selected), r.CompletedAt}, []int{36, 20, 8, 20})
		}
	}

	return nil
}

func printDatabaseHealth(w io.Writer, health database.HealthStatus) {
	if !health.Healthy {
		PrintError(w, "Database unhealthy: "+health.Error)
		return
	}
	PrintSuccess(w, fmt.Sprintf("Database healthy (%s, %d/%d idle conns)",
		health.ResponseTime.Round(time.Millisecond), health.IdleConns, health.TotalConns))
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
