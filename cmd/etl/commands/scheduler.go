package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/epl-etl/internal/publish"
	"github.com/wonny/epl-etl/internal/runconfig"
	"github.com/wonny/epl-etl/internal/scheduler"
	"github.com/wonny/epl-etl/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 전체 재계산 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/etl scheduler start --input_path ./data --output_path ./out
  go run ./cmd/etl scheduler start --run-file ./run.yaml --schedule "0 */30 * * * *"
  go run ./cmd/etl scheduler run etl_full_recompute --input_path ./data --output_path ./out`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- etl_full_recompute: 매일 오전 3시 (--schedule로 변경)
- staging_cleanup: 매시 30분 (중단된 publish 잔여물 정리)

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

var (
	schedulerSchedule string
	schedulerRetries  int
	schedulerDelay    time.Duration
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	// Flags (run definition shared with `etl run`)
	for _, c := range []*cobra.Command{schedulerStartCmd, schedulerListCmd, schedulerRunCmd} {
		c.Flags().StringVar(&runInputPath, "input_path", "", "입력 디렉터리 또는 파일")
		c.Flags().StringVar(&runOutputPath, "output_path", "", "출력 디렉터리")
		c.Flags().IntVar(&runWorkers, "workers", 0, "병렬 워커 수 (0 = ETL_WORKERS)")
		c.Flags().StringVar(&runOnTagError, "on-tag-error", "", "시즌 태깅 실패 시 동작 (abort|skip)")
		c.Flags().StringVar(&runFilePath, "run-file", "", "YAML 실행 정의 파일")
		c.Flags().BoolVar(&runPostgres, "postgres", false, "PostgreSQL 싱크 사용 (DATABASE_URL)")
		c.Flags().BoolVar(&runRedis, "redis", false, "Redis 캐시 싱크 사용")
		c.Flags().StringVar(&schedulerSchedule, "schedule", "", `cron 표현식 (초 포함, 예: "0 0 3 * * *")`)
	}
	schedulerStartCmd.Flags().IntVar(&schedulerRetries, "retries", 3, "실패 시 재시도 횟수")
	schedulerStartCmd.Flags().DurationVar(&schedulerDelay, "retry-delay", 30*time.Second, "재시도 간격")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== EPL ETL Scheduler ===")
	fmt.Println()

	sched, a, err := initScheduler(cmd, scheduler.WithRetry(schedulerRetries, schedulerDelay))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	// Start scheduler
	sched.Start()

	fmt.Println("✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	stats := sched.GetJobStats()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-20s %s\n", jobName, stats[jobName].Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, a, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	result, err := sched.RunJobSync(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s): %s", jobName, result.Attempts, result.Error))
		return reportedError{fmt.Errorf("job %s failed", jobName)}
	}

	PrintSuccess(fmt.Sprintf("%s completed in %.2fs", jobName, result.Duration.Seconds()))
	return nil
}

func initScheduler(cmd *cobra.Command, opts ...scheduler.Option) (*scheduler.Scheduler, *app, error) {
	// 1. Load config
	a, err := newApp()
	if err != nil {
		return nil, nil, err
	}

	// 2. Resolve run definition
	ro, err := resolveRunOptions(cmd, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	schedule := ro.Schedule
	if schedulerSchedule != "" {
		schedule = schedulerSchedule
	}
	if _, err := runconfig.ScheduleParser.Parse(schedule); err != nil {
		return nil, nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	// 3. Connect optional sinks
	ctx := context.Background()
	if err := a.connect(ctx, ro.Postgres, ro.Redis); err != nil {
		return nil, nil, err
	}

	// 4. Build publisher + orchestrator
	pub, err := a.publisher(ctx, ro.Config.OutputPath)
	if err != nil {
		a.close()
		return nil, nil, err
	}
	orch := a.orchestrator(pub)

	// 5. Create scheduler and register jobs
	sched := scheduler.New(a.log, opts...)
	if err := sched.AddJob(jobs.NewETLJob(orch, ro.Config, schedule, a.log)); err != nil {
		a.close()
		return nil, nil, err
	}
	store := publish.NewFileStore(ro.Config.OutputPath, a.log)
	if err := sched.AddJob(jobs.NewStagingCleanupJob(store, time.Hour, a.log)); err != nil {
		a.close()
		return nil, nil, err
	}

	return sched, a, nil
}
