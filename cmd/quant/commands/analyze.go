package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorscope/internal/brain"
	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/selection"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [sector...]",
	Short: "섹터 분석 실행",
	Long: `데이터셋을 읽어 섹터별 파이프라인을 실행합니다.

S0 정규화 → S1 섹터 통계 → S2 스크리닝 → S3 적정가 → S4 랭킹

섹터는 데이터셋 키(technology) 또는 표시 이름(Technology)으로 지정합니다.
섹터를 생략하면 데이터셋의 모든 섹터를 분석합니다.

Example:
  go run ./cmd/quant analyze technology --dataset data/sectors.json
  go run ./cmd/quant analyze technology energy --top 3 --format csv
  go run ./cmd/quant analyze technology --min-roe 15 --prompt`,
	RunE: runAnalyze,
}

var (
	analyzeDataset  string
	analyzeStrategy string
	analyzeTopN     int
	analyzeFormat   string
	analyzePrompt   bool
	analyzeScreened bool
	analyzePersist  bool
	analyzeMinROE   float64
	analyzeMaxDE    float64
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeDataset, "dataset", "", "데이터셋 파일 (기본: DATASET_PATH)")
	analyzeCmd.Flags().StringVar(&analyzeStrategy, "strategy", "", "전략 YAML (기본: STRATEGY_PATH 또는 내장 기본값)")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top", 0, "선정 종목 수 (기본: 전략 top_n)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "출력 형식 (table|json|csv)")
	analyzeCmd.Flags().BoolVar(&analyzePrompt, "prompt", false, "분석 프롬프트 출력")
	analyzeCmd.Flags().BoolVar(&analyzeScreened, "screened", false, "스크리닝 결과 표 출력")
	analyzeCmd.Flags().BoolVar(&analyzePersist, "persist", false, "DATABASE_URL 설정 시 실행 결과 저장")
	analyzeCmd.Flags().Float64Var(&analyzeMinROE, "min-roe", 0, "최소 ROE(%) 조건 (전략 조건 대체)")
	analyzeCmd.Flags().Float64Var(&analyzeMaxDE, "max-debt-to-equity", 0, "최대 부채비율 조건 (전략 조건 대체)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	switch analyzeFormat {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("invalid format %q (valid: table, json, csv)", analyzeFormat)
	}
	if analyzeTopN < 0 {
		return fmt.Errorf("--top must not be negative")
	}

	ctx := cmd.Context()
	rt, err := newRuntime(ctx, runtimeOptions{
		datasetPath:  analyzeDataset,
		strategyPath: analyzeStrategy,
		persist:      analyzePersist,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	// FileSource returns the whole file; HTTP sources need one fetch per sector
	var ds *contracts.Dataset
	switch {
	case rt.cfg.Dataset.Path != "":
		ds, err = rt.source.Load(ctx, "")
	case len(args) == 0:
		return fmt.Errorf("sector is required when loading from DATASET_URL")
	default:
		ds, _, err = rt.collector.Collect(ctx, args, collectorConfig())
	}
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	base := brain.Request{TopN: analyzeTopN}
	if criteria := criteriaOverride(cmd, rt.orchestrator); criteria != nil {
		base.Criteria = criteria
	}

	runs, err := rt.orchestrator.RunSectors(ctx, ds, args, base)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	return renderRuns(cmd.OutOrStdout(), runs)
}

// criteriaOverride applies flag criteria on top of the strategy criteria
func criteriaOverride(cmd *cobra.Command, orch *brain.Orchestrator) *selection.Criteria {
	roeSet := cmd.Flags().Changed("min-roe")
	deSet := cmd.Flags().Changed("max-debt-to-equity")
	if !roeSet && !deSet {
		return nil
	}

	criteria := orch.Strategy().SelectionCriteria("")
	if roeSet {
		v := analyzeMinROE
		criteria.MinROE = &v
	}
	if deSet {
		v := analyzeMaxDE
		criteria.MaxDebtToEquity = &v
	}
	return &criteria
}

func renderRuns(w io.Writer, runs []*contracts.AnalysisRun) error {
	switch analyzeFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if !analyzePrompt {
			for _, run := range runs {
				run.Prompt = ""
			}
		}
		return enc.Encode(runs)

	case "csv":
		all := contracts.RankingOutcome{}
		for _, run := range runs {
			all.Results = append(all.Results, run.Ranking.Results...)
		}
		return WriteRankingCSV(w, all)
	}

	for _, run := range runs {
		PrintRunHeader(w, run)
		if analyzeScreened {
			PrintScreenedTable(w, run.TopScreened)
			PrintSeparator(w)
		}
		PrintRankingTable(w, run.Ranking)
		if analyzePrompt {
			PrintSeparator(w)
			fmt.Fprintln(w, run.Prompt)
		}
	}
	fmt.Fprintln(w)
	PrintSuccess(w, fmt.Sprintf("%d sector(s) analyzed", len(runs)))
	return nil
}
