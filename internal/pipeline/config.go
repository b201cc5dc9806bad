package pipeline

import (
	"fmt"
	"strings"
)

// TagPolicy decides what happens when a source has no season token
type TagPolicy string

const (
	// TagAbort fails the whole run (default)
	TagAbort TagPolicy = "abort"
	// TagSkip drops the offending source and keeps going
	TagSkip TagPolicy = "skip"
)

// ParseTagPolicy accepts "abort" or "skip" (case-insensitive, empty = abort)
func ParseTagPolicy(s string) (TagPolicy, error) {
	switch TagPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TagAbort:
		return TagAbort, nil
	case TagSkip:
		return TagSkip, nil
	default:
		return "", fmt.Errorf("invalid tag policy %q (expected abort or skip)", s)
	}
}

// RunConfig holds configuration for a pipeline run.
// It is built by the caller; the pipeline reads no ambient state.
type RunConfig struct {
	RunID       string // generated when empty
	InputPath   string
	OutputPath  string
	Workers     int
	OnTagError  TagPolicy
	RunFileHash string // recorded in the manifest
}

// Validate checks the run configuration
func (c RunConfig) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("input path is required")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("output path is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0, got %d", c.Workers)
	}
	if c.OnTagError != TagAbort && c.OnTagError != TagSkip {
		return fmt.Errorf("invalid tag policy %q", c.OnTagError)
	}
	return nil
}
