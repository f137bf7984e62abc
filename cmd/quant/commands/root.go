package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "sectorscope - 섹터 스크리닝 / 밸류에이션 파이프라인",
	Long: `sectorscope Unified CLI

섹터 데이터셋을 정규화하고, 스크리닝하고, 적정가를 추정해
섹터별 저평가 후보를 선정합니다.
S0 정규화 → S1 섹터 통계 → S2 스크리닝 → S3 밸류에이션 → S4 랭킹

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant analyze technology --dataset data/sectors.json
  go run ./cmd/quant check strategy config/strategy/undervalued_v1.yaml
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
