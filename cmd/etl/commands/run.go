package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/pipeline"
	"github.com/wonny/epl-etl/internal/runconfig"
	"github.com/wonny/epl-etl/internal/s0_ingest"
	"github.com/wonny/epl-etl/pkg/config"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "ETL 1회 실행 (전체 재계산)",
	Long: `입력 경로의 season-*.json 파일을 읽어 두 테이블을 다시 계산하고
시즌 파티션 단위로 교체합니다.

Output tables:
  positions          - 시즌별 순위표 (Points, Goals_Scored, Goals_Conceded, Goal_Difference, Rank)
  best_scoring_team  - 시즌별 최다 득점 팀 (동률이면 모두)

실패 시 어떤 출력도 변경되지 않으며 실패한 단계를 출력하고 non-zero로 종료합니다.

Example:
  go run ./cmd/etl run --input_path ./data --output_path ./out
  go run ./cmd/etl run --input_path ./data --output_path ./out --preview 10
  go run ./cmd/etl run --run-file ./run.yaml --postgres --redis`,
	RunE: runETL,
}

var (
	runInputPath  string
	runOutputPath string
	runWorkers    int
	runOnTagError string
	runPreview    int
	runFilePath   string
	runPostgres   bool
	runRedis      bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().StringVar(&runInputPath, "input_path", "", "입력 디렉터리 또는 파일 (required)")
	runCmd.Flags().StringVar(&runOutputPath, "output_path", "", "출력 디렉터리 (required)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "병렬 워커 수 (0 = ETL_WORKERS)")
	runCmd.Flags().StringVar(&runOnTagError, "on-tag-error", "", "시즌 태깅 실패 시 동작 (abort|skip)")
	runCmd.Flags().IntVar(&runPreview, "preview", 0, "태깅된 경기 N건과 시즌별 요약 출력")
	runCmd.Flags().StringVar(&runFilePath, "run-file", "", "YAML 실행 정의 파일")
	runCmd.Flags().BoolVar(&runPostgres, "postgres", false, "PostgreSQL 싱크 사용 (DATABASE_URL)")
	runCmd.Flags().BoolVar(&runRedis, "redis", false, "Redis 캐시 싱크 사용")
}

// runOptions is the resolved run definition: flags > run file > environment
type runOptions struct {
	Config   pipeline.RunConfig
	Preview  int
	Postgres bool
	Redis    bool
	Schedule string
	RunFile  string
	Warnings []runconfig.Warning
}

// resolveRunOptions merges environment defaults, the run file and explicit flags
func resolveRunOptions(cmd *cobra.Command, cfg *config.Config) (*runOptions, error) {
	opts := &runOptions{
		Config: pipeline.RunConfig{
			InputPath:  cfg.ETL.InputPath,
			OutputPath: cfg.ETL.OutputPath,
			Workers:    cfg.ETL.Workers,
		},
		Schedule: cfg.ETL.Schedule,
		RunFile:  runFilePath,
	}
	onTagError := cfg.ETL.OnTagError

	if runFilePath != "" {
		rf, _, err := runconfig.Load(runFilePath)
		if err != nil {
			return nil, err
		}
		hash, err := runconfig.Hash(rf)
		if err != nil {
			return nil, fmt.Errorf("hash run file: %w", err)
		}
		opts.Config.RunFileHash = hash
		opts.Warnings = runconfig.Warnings(rf)

		if rf.InputPath != "" {
			opts.Config.InputPath = rf.InputPath
		}
		if rf.OutputPath != "" {
			opts.Config.OutputPath = rf.OutputPath
		}
		if rf.Workers > 0 {
			opts.Config.Workers = rf.Workers
		}
		if rf.Schedule != "" {
			opts.Schedule = rf.Schedule
		}
		onTagError = rf.OnTagError
		opts.Preview = rf.PreviewRows
		opts.Postgres = rf.HasSink(runconfig.SinkPostgres)
		opts.Redis = rf.HasSink(runconfig.SinkRedis)
	}

	flags := cmd.Flags()
	if flags.Changed("input_path") {
		opts.Config.InputPath = runInputPath
	}
	if flags.Changed("output_path") {
		opts.Config.OutputPath = runOutputPath
	}
	if flags.Changed("workers") && runWorkers > 0 {
		opts.Config.Workers = runWorkers
	}
	if flags.Changed("on-tag-error") {
		onTagError = runOnTagError
	}
	if flags.Changed("preview") {
		opts.Preview = runPreview
	}
	if flags.Changed("postgres") {
		opts.Postgres = runPostgres
	}
	if flags.Changed("redis") {
		opts.Redis = runRedis
	}

	var missing []string
	if opts.Config.InputPath == "" {
		missing = append(missing, `"input_path"`)
	}
	if opts.Config.OutputPath == "" {
		missing = append(missing, `"output_path"`)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required flag(s) %s not set", strings.Join(missing, ", "))
	}
	if opts.Preview < 0 {
		return nil, fmt.Errorf("preview must be >= 0")
	}

	policy, err := pipeline.ParseTagPolicy(onTagError)
	if err != nil {
		return nil, err
	}
	opts.Config.OnTagError = policy

	return opts, nil
}

func runETL(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	opts, err := resolveRunOptions(cmd, a.cfg)
	if err != nil {
		return err
	}
	for _, w := range opts.Warnings {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.connect(ctx, opts.Postgres, opts.Redis); err != nil {
		return err
	}
	defer a.close()

	pub, err := a.publisher(ctx, opts.Config.OutputPath)
	if err != nil {
		return err
	}

	PrintRunHeader(RunMetadata{
		InputPath:  opts.Config.InputPath,
		OutputPath: opts.Config.OutputPath,
		Workers:    opts.Config.Workers,
		Sinks:      sinkNames(opts.Postgres, opts.Redis),
		RunFile:    opts.RunFile,
	})

	result, runErr := a.orchestrator(pub).Run(ctx, opts.Config)
	if result != nil {
		printStages(result)
		if opts.Preview > 0 {
			printPreview(result, opts.Preview)
		}
	}

	if runErr != nil {
		fmt.Println()
		PrintError(runErr.Error())
		return reportedError{runErr}
	}

	if opts.Preview > 0 {
		printSeasonSummary(result)
	}
	printRowCounts(result)
	PrintRunCompletion(result.RunID, result.Duration.Seconds())
	return nil
}

func printStages(result *pipeline.RunResult) {
	total := len(contracts.AllStages())
	for i, stage := range result.CompletedStages {
		PrintStage(stage.ShortName(), fmt.Sprintf("%s done in %s", stage, result.StageDurations[stage]), i+1, total)
	}
	if len(result.Skipped) > 0 {
		PrintWarning(fmt.Sprintf("skipped %d source(s) without a season token: %s", len(result.Skipped), strings.Join(result.Skipped, ", ")))
	}
}

// printPreview prints the decoded column set and the first n tagged matches
func printPreview(result *pipeline.RunResult, n int) {
	if len(result.Matches) == 0 {
		return
	}

	fmt.Println()
	PrintInfo(fmt.Sprintf("Columns: %s (+ season)", strings.Join(s0_ingest.Columns, ", ")))
	fmt.Println()

	widths := []int{8, 24, 24, 5, 5}
	PrintTableHeader([]string{"season", s0_ingest.FieldHomeTeam, s0_ingest.FieldAwayTeam, s0_ingest.FieldHomeGoals, s0_ingest.FieldAwayGoals}, widths)
	for i, m := range result.Matches {
		if i >= n {
			break
		}
		PrintTableRow([]string{m.Season, m.HomeTeam, m.AwayTeam, strconv.Itoa(m.HomeGoals), strconv.Itoa(m.AwayGoals)}, widths)
	}
	if len(result.Matches) > n {
		fmt.Printf("only showing top %d rows of %d\n", n, len(result.Matches))
	}
}

// printSeasonSummary prints each season's leader(s) and top scorer(s)
func printSeasonSummary(result *pipeline.RunResult) {
	rs := &contracts.ResultSet{
		Seasons:     resultSeasons(result),
		Positions:   result.Positions,
		BestScoring: result.BestScoring,
	}
	positions := rs.PositionsBySeason()
	best := rs.BestScoringBySeason()

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  Season summary")
	PrintSeparator()
	for _, season := range rs.Seasons {
		var leaders []string
		for _, row := range positions[season] {
			if row.Rank == 1 {
				leaders = append(leaders, fmt.Sprintf("%s (%d pts, GD %+d)", row.Team, row.Points, row.GoalDifference))
			}
		}
		var scorers []string
		for _, row := range best[season] {
			scorers = append(scorers, fmt.Sprintf("%s (%d goals)", row.Team, row.TotalGoals))
		}

		fmt.Printf("  %s\n", season)
		PrintKeyValue("Leader", orDash(leaders), 10)
		PrintKeyValue("Top scorer", orDash(scorers), 10)
	}
	PrintDoubleSeparator()
}

func printRowCounts(result *pipeline.RunResult) {
	fmt.Println()
	PrintKeyValue("Sources", strconv.Itoa(len(result.Sources)), 12)
	PrintKeyValue("Matches", strconv.Itoa(len(result.Matches)), 12)
	PrintKeyValue(contracts.TablePositions, strconv.Itoa(len(result.Positions)), 12)
	PrintKeyValue(contracts.TableBestScoring, strconv.Itoa(len(result.BestScoring)), 12)
}

func resultSeasons(result *pipeline.RunResult) []string {
	seen := make(map[string]bool)
	if result.Manifest != nil {
		for s := range result.Manifest.Seasons {
			seen[s] = true
		}
	}
	for _, p := range result.Positions {
		seen[p.Season] = true
	}
	seasons := make([]string, 0, len(seen))
	for s := range seen {
		seasons = append(seasons, s)
	}
	sort.Strings(seasons)
	return seasons
}

func orDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
