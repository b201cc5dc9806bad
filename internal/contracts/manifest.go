package contracts

import "time"

// RunManifest describes one published run
type RunManifest struct {
	RunID       string               `json:"run_id"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	RunFileHash string               `json:"run_file_hash,omitempty"`
	InputPath   string               `json:"input_path"`
	OutputPath  string               `json:"output_path"`
	Sources     []string             `json:"sources"`
	Skipped     []string             `json:"skipped,omitempty"`
	Seasons     map[string]RowCounts `json:"seasons"`
}

// RowCounts holds per-season row counts for both tables
type RowCounts struct {
	Matches     int `json:"matches"`
	Positions   int `json:"positions"`
	BestScoring int `json:"best_scoring_team"`
}
