package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/epl-etl/internal/api"
	"github.com/wonny/epl-etl/internal/api/handlers"
	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/publish"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "조회 API 서버 시작",
	Long: `게시된 결과를 조회하는 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                              - Health check
  GET  /api/seasons                         - 게시된 시즌 목록
  GET  /api/seasons/{season}/positions      - 시즌 순위표 (?limit=N)
  GET  /api/seasons/{season}/best-scoring   - 시즌 최다 득점 팀
  GET  /api/manifest                        - 마지막 실행 manifest
  GET  /metrics                             - Prometheus metrics

Example:
  go run ./cmd/etl api --output_path ./out
  go run ./cmd/etl api --output_path ./out --port 8080 --redis`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	apiOutputPath string
	apiPostgres   bool
	apiRedis      bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().StringVar(&apiOutputPath, "output_path", "", "게시된 출력 디렉터리 (default: ETL_OUTPUT_PATH)")
	apiCmd.Flags().BoolVar(&apiPostgres, "postgres", false, "PostgreSQL에서 조회")
	apiCmd.Flags().BoolVar(&apiRedis, "redis", false, "Redis read-through 캐시 사용")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== EPL ETL API Server ===")

	// 1. Load config
	a, err := newApp()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	outputPath := a.cfg.ETL.OutputPath
	if apiOutputPath != "" {
		outputPath = apiOutputPath
	}
	if outputPath == "" && !apiPostgres {
		return fmt.Errorf("required flag(s) \"output_path\" not set")
	}

	a.log.WithFields(map[string]interface{}{
		"port":        a.cfg.Port,
		"env":         a.cfg.Env,
		"output_path": outputPath,
	}).Info("Initializing API server")

	// 2. Connect optional backends
	if err := a.connect(context.Background(), apiPostgres, apiRedis); err != nil {
		return err
	}
	defer a.close()

	// 3. Build reader
	files := publish.NewFileStore(outputPath, a.log)
	var reader contracts.ResultReader = files
	if a.db != nil {
		reader = publish.NewPostgresStore(a.db.Pool, a.log)
	}
	if cs := a.cacheStore(); cs != nil {
		reader = publish.NewReadThrough(reader, cs, a.log)
	}

	// 4. Create handler + router + server
	resultsHandler := handlers.NewResultsHandler(reader, files, a.log)
	router := api.NewRouter(resultsHandler, a.metrics, a.log)
	server := api.New(a.cfg, a.log, router)

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log := a.log
	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/seasons")
	fmt.Println("  GET  /api/seasons/{season}/positions")
	fmt.Println("  GET  /api/seasons/{season}/best-scoring")
	fmt.Println("  GET  /api/manifest")
	if a.metrics != nil {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
