package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorscope/internal/api"
	"github.com/wonny/sectorscope/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 섹터 데이터 / 품질 조회 엔드포인트 제공
- 섹터 분석 실행 및 결과 조회 제공

Endpoints:
  GET    /health                       - Health check
  GET    /api/data/quality?sector=     - 품질 스냅샷 조회
  POST   /api/data/collect             - 섹터 데이터 수집 (캐시 워밍)
  GET    /api/sectors/{key}/stocks     - 정규화된 섹터 종목
  DELETE /api/sectors/{key}/cache      - 섹터 캐시 삭제
  POST   /api/analysis                 - 분석 실행 (데이터셋 직접 전달 가능)
  GET    /api/sectors/{key}/analysis   - 섹터 분석 실행
  GET    /api/sectors/{key}/latest     - 최근 저장된 분석 결과
  GET    /api/runs                     - 분석 실행 목록
  GET    /api/strategy                 - 활성 전략

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort     string
	apiStrategy string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().StringVar(&apiStrategy, "strategy", "", "전략 YAML (기본: STRATEGY_PATH)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== sectorscope API Server ===")
	ctx := cmd.Context()

	// 1. Wire runtime (config, logger, source, orchestrator, optional DB/Redis)
	rt, err := newRuntime(ctx, runtimeOptions{strategyPath: apiStrategy, persist: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, log := rt.cfg, rt.log
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 2. Create handlers
	dataHandler := handlers.NewDataHandler(rt.source, rt.collector, rt.qualityGate, log)
	if rt.cached != nil {
		dataHandler.WithCache(rt.cached)
	}
	analysisHandler := handlers.NewAnalysisHandler(rt.orchestrator, rt.source, rt.runStore(), log)

	// 3. Create router and server
	router := api.NewRouter(dataHandler, analysisHandler, log)
	server := api.New(cfg, log, router)

	// 4. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
