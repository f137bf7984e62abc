package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorscope/internal/scheduler"
	"github.com/wonny/sectorscope/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run sector_analysis`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- sector_analysis: SCHEDULE_SPEC (기본 3시간마다) SCHEDULE_SECTORS 수집 + 분석
- cache_refresh: DATASET_CACHE_TTL마다 섹터 캐시 갱신 (Redis 사용 시)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler registers the jobs for the current config
func initScheduler(rt *runtime) (*scheduler.Scheduler, error) {
	sectors := rt.cfg.Schedule.Sectors
	if len(sectors) == 0 {
		return nil, fmt.Errorf("SCHEDULE_SECTORS is empty")
	}

	sched := scheduler.New(rt.log)

	analysis := jobs.NewSectorAnalysisJob(rt.collector, rt.orchestrator, sectors, rt.cfg.Schedule.Spec, rt.log)
	if err := sched.AddJob(analysis); err != nil {
		return nil, err
	}

	if rt.cached != nil {
		spec := fmt.Sprintf("@every %s", rt.cfg.Dataset.CacheTTL)
		refresh := jobs.NewCacheRefreshJob(rt.cached, rt.cached, sectors, spec, rt.log)
		if err := sched.AddJob(refresh); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== sectorscope Scheduler ===")

	rt, err := newRuntime(cmd.Context(), runtimeOptions{persist: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := initScheduler(rt)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context(), runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := initScheduler(rt)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	w := cmd.OutOrStdout()
	stats := sched.GetJobStats()
	PrintTableHeader(w, []string{"Job", "Schedule"}, []int{18, 24})
	for _, jobName := range sched.GetAllJobs() {
		PrintTableRow(w, []string{jobName, stats[jobName].Schedule}, []int{18, 24})
	}
	fmt.Fprintf(w, "\nSectors: %s\n", strings.Join(rt.cfg.Schedule.Sectors, ", "))

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	rt, err := newRuntime(cmd.Context(), runtimeOptions{persist: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := initScheduler(rt)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunNow(cmd.Context(), jobName)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !result.Success {
		PrintError(w, fmt.Sprintf("Job %s failed after %d attempt(s): %s", jobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(w, fmt.Sprintf("Job %s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}
