package main

import (
	"os"

	"github.com/wonny/epl-etl/cmd/etl/commands"
)

// main is the entry point for the ETL CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/etl [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
