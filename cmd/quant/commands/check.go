package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/s0_data"
	"github.com/wonny/sectorscope/internal/s0_data/quality"
	"github.com/wonny/sectorscope/internal/strategyconfig"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "전략 / 데이터셋 검증",
	Long: `전략 YAML 또는 데이터셋 파일을 검증합니다.

Subcommands:
  strategy  - 전략 파일 검증 (필수 규칙 + 권장 경고 + 해시)
  data      - 데이터셋 정규화/검증 결과와 품질 점수

Example:
  go run ./cmd/quant check strategy config/strategy/undervalued_v1.yaml
  go run ./cmd/quant check data data/sectors.json`,
}

var (
	checkStrategyCmd = &cobra.Command{
		Use:   "strategy [path]",
		Short: "전략 파일 검증",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheckStrategy,
	}

	checkDataCmd = &cobra.Command{
		Use:   "data [path]",
		Short: "데이터셋 검증",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheckData,
	}
)

var checkMinQuality float64

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkStrategyCmd)
	checkCmd.AddCommand(checkDataCmd)

	checkDataCmd.Flags().Float64Var(&checkMinQuality, "min-quality", quality.DefaultConfig().MinQualityScore, "최소 품질 점수 (0-1)")
}

func runCheckStrategy(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	cfg, raw, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		PrintError(cmd.OutOrStdout(), err.Error())
		return fmt.Errorf("strategy invalid")
	}

	snapshot, err := strategyconfig.NewDecisionSnapshot(cfg, raw, "", "")
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	printStrategyReport(cmd.OutOrStdout(), cfg, snapshot, strategyconfig.Warn(cfg))
	return nil
}

func printStrategyReport(w io.Writer, cfg *strategyconfig.Config, snapshot *strategyconfig.DecisionSnapshot, warnings []strategyconfig.Warning) {
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  Strategy %s\n", cfg.Meta.StrategyID)
	fmt.Fprintln(w, singleLine)
	PrintKeyValue(w, "Hash", snapshot.ConfigHash, 10)
	PrintKeyValue(w, "Criteria", strconv.Itoa(cfg.Screening.Criteria.Configured())+" rule(s)", 10)
	PrintKeyValue(w, "Top N", strconv.Itoa(cfg.Ranking.TopN), 10)
	PrintKeyValue(w, "Prompt", strconv.Itoa(cfg.Ranking.PromptLimit)+" stocks", 10)
	fmt.Fprintln(w, singleLine)

	for _, warn := range warnings {
		PrintWarning(w, fmt.Sprintf("[%s] %s", warn.Code, warn.Message))
	}
	PrintSuccess(w, "Strategy valid")
}

func runCheckData(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	ds, err := s0_data.DecodePayload(string(data))
	if err != nil {
		return fmt.Errorf("decode dataset: %w", err)
	}

	qcfg := quality.DefaultConfig()
	qcfg.MinQualityScore = checkMinQuality
	gate := quality.NewQualityGate(qcfg)

	flat := s0_data.Flatten(ds)
	snapshot := gate.Check(flat.Stocks)
	printDataReport(cmd.OutOrStdout(), ds, flat, snapshot)

	if !snapshot.Passed {
		return fmt.Errorf("quality score %.2f below %.2f", snapshot.QualityScore, checkMinQuality)
	}
	return nil
}

func printDataReport(w io.Writer, ds *contracts.Dataset, flat s0_data.FlattenResult, snapshot *contracts.DataQualitySnapshot) {
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintln(w, "  Dataset Check")
	fmt.Fprintln(w, singleLine)
	PrintKeyValue(w, "Sectors", humanize.Comma(int64(len(ds.Sectors))), 10)
	PrintKeyValue(w, "Stocks", humanize.Comma(int64(snapshot.TotalStocks)), 10)
	PrintKeyValue(w, "Valid", humanize.Comma(int64(snapshot.ValidStocks)), 10)
	PrintKeyValue(w, "Quality", fmt.Sprintf("%.2f", snapshot.QualityScore), 10)
	fmt.Fprintln(w, singleLine)

	fields := make([]string, 0, len(snapshot.Coverage))
	for field := range snapshot.Coverage {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	PrintTableHeader(w, []string{"Field", "Coverage"}, []int{20, 8})
	for _, field := range fields {
		PrintTableRow(w, []string{field, fmt.Sprintf("%.0f%%", snapshot.Coverage[field]*100)}, []int{20, 8})
	}

	if len(flat.Issues) > 0 {
		fmt.Fprintln(w)
		symbols := make([]string, 0, len(flat.Issues))
		for symbol := range flat.Issues {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)

		for _, symbol := range symbols {
			fmt.Fprintf(w, "%s\n", symbol)
			PrintList(w, flat.Issues[symbol])
		}
	}

	fmt.Fprintln(w)
	if snapshot.Passed {
		PrintSuccess(w, "Dataset quality passed")
	} else {
		PrintWarning(w, "Dataset quality below threshold")
	}
}
