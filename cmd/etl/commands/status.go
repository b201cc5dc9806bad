package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/epl-etl/internal/publish"
	"github.com/wonny/epl-etl/pkg/database"
	"github.com/wonny/epl-etl/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "설정 및 연결 상태 점검",
	Long: `현재 설정과 외부 연결 상태를 점검합니다.

점검 항목:
- 환경 설정 (ENV, 로그, 워커 수, 기본 경로)
- PostgreSQL 연결 (DATABASE_URL 설정 시)
- Redis 연결 (REDIS_ENABLED=true 시)
- 게시된 출력 (시즌 목록, 마지막 실행)

Example:
  go run ./cmd/etl status
  go run ./cmd/etl status --output_path ./out`,
	RunE: runStatus,
}

var statusOutputPath string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusOutputPath, "output_path", "", "점검할 출력 디렉터리 (default: ETL_OUTPUT_PATH)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	cfg := a.cfg

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	failed := 0

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  EPL ETL Status")
	PrintDoubleSeparator()

	// 1. Configuration
	fmt.Println("\n⚙️  Configuration")
	PrintSeparator()
	PrintKeyValue("Env", cfg.Env, 12)
	PrintKeyValue("Log", cfg.LogLevel+"/"+cfg.LogFormat, 12)
	PrintKeyValue("Workers", strconv.Itoa(cfg.ETL.Workers), 12)
	PrintKeyValue("On tag err", cfg.ETL.OnTagError, 12)
	PrintKeyValue("Schedule", cfg.ETL.Schedule, 12)
	PrintKeyValue("API port", cfg.Port, 12)
	PrintKeyValue("Metrics", strconv.FormatBool(cfg.MetricsEnabled), 12)

	// 2. Database
	fmt.Println("\n🐘 PostgreSQL")
	PrintSeparator()
	if !cfg.Database.Enabled() {
		PrintInfo("DATABASE_URL not set (postgres sink disabled)")
	} else if db, err := database.New(ctx, cfg); err != nil {
		PrintError(err.Error())
		failed++
	} else {
		health, err := db.HealthCheck(ctx)
		if err != nil {
			PrintError(fmt.Sprintf("health check: %v", err))
			failed++
		} else {
			PrintSuccess(fmt.Sprintf("connected (%s)", health.ResponseTime))
			PrintKeyValue("Conns", fmt.Sprintf("%d total / %d idle / %d max", health.Stats.TotalConns, health.Stats.IdleConns, health.Stats.MaxConns), 12)
		}
		db.Close()
	}

	// 3. Redis
	fmt.Println("\n🧰 Redis")
	PrintSeparator()
	if !cfg.Redis.Enabled {
		PrintInfo("REDIS_ENABLED=false (redis sink disabled)")
	} else if rc, err := redis.New(ctx, cfg); err != nil {
		PrintError(err.Error())
		failed++
	} else {
		if err := rc.Ping(ctx); err != nil {
			PrintError(fmt.Sprintf("ping: %v", err))
			failed++
		} else {
			PrintSuccess(fmt.Sprintf("connected (%s:%s db=%d prefix=%s)", cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.DB, cfg.Redis.Prefix))
		}
		_ = rc.Close()
	}

	// 4. Published output
	outputPath := cfg.ETL.OutputPath
	if statusOutputPath != "" {
		outputPath = statusOutputPath
	}
	fmt.Println("\n📂 Output")
	PrintSeparator()
	if outputPath == "" {
		PrintInfo("no output path (set ETL_OUTPUT_PATH or --output_path)")
	} else {
		store := publish.NewFileStore(outputPath, a.log)
		PrintKeyValue("Path", outputPath, 12)

		seasons, err := store.Seasons(ctx)
		if err != nil {
			PrintError(err.Error())
			failed++
		} else {
			PrintKeyValue("Seasons", orDash(seasons), 12)
		}

		m, err := store.ReadManifest(ctx)
		switch {
		case errors.Is(err, publish.ErrNotFound):
			PrintInfo("no run published yet")
		case err != nil:
			PrintError(err.Error())
			failed++
		default:
			PrintKeyValue("Last run", m.RunID, 12)
			PrintKeyValue("Finished", m.FinishedAt.Format("2006-01-02 15:04:05"), 12)
			if len(m.Skipped) > 0 {
				PrintKeyValue("Skipped", strings.Join(m.Skipped, ", "), 12)
			}
		}
	}

	fmt.Println()
	if failed > 0 {
		PrintError(fmt.Sprintf("%d check(s) failed", failed))
		return reportedError{fmt.Errorf("%d status check(s) failed", failed)}
	}
	PrintSuccess("All checks passed")
	return nil
}
