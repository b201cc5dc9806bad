package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "etl",
	Short: "Premier League season ETL",
	Long: `EPL season ETL CLI

경기 결과(season-XXYY.json)를 읽어 시즌별 순위표와 최다 득점 팀을 계산합니다.
INGESTING → TAGGING → AGGREGATING → RANKING → PUBLISHING

Usage:
  go run ./cmd/etl [command]

Examples:
  go run ./cmd/etl run --input_path ./data --output_path ./out
  go run ./cmd/etl scheduler start --schedule "0 0 3 * * *"
  go run ./cmd/etl api --output_path ./out
  go run ./cmd/etl status`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// reportedError marks an error that was already printed to the user
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.Execute()
	var reported reportedError
	if err != nil && !errors.As(err, &reported) {
		PrintError(err.Error())
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
