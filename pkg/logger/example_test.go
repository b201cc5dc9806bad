package logger_test

import (
	"errors"

	"github.com/wonny/epl-etl/pkg/config"
	"github.com/wonny/epl-etl/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("ETL started")
	log.Infof("Found %d season files", 26)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{Env: "production", LogLevel: "info", LogFormat: "json"})

	log.WithRun("0b6f1c2e").
		WithFields(map[string]interface{}{
			"season": "9394",
			"teams":  22,
		}).
		Info("Standings ranked")

	log.WithError(errors.New("no season token in \"season-abc.json\"")).
		WithField("stage", "TAGGING").
		Error("Pipeline run failed")
}
