package contracts

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching
var (
	ErrIngest      = errors.New("ingest error")
	ErrSchema      = errors.New("schema error")
	ErrSeasonParse = errors.New("season parse error")
)

// IngestError means the input could not be located or read
type IngestError struct {
	InputPath string
	Err       error
}

func (e *IngestError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ingest %s: no season sources found", e.InputPath)
	}
	return fmt.Sprintf("ingest %s: %v", e.InputPath, e.Err)
}

// Unwrap exposes both the sentinel and the cause
func (e *IngestError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrIngest}
	}
	return []error{ErrIngest, e.Err}
}

// SchemaError means a record lacks a required field or has a bad value
type SchemaError struct {
	Source string
	Record int // 1-based, 0 when the whole source is unreadable
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Record == 0:
		return fmt.Sprintf("schema %s: %s", e.Source, e.Reason)
	case e.Field == "":
		return fmt.Sprintf("schema %s record %d: %s", e.Source, e.Record, e.Reason)
	default:
		return fmt.Sprintf("schema %s record %d field %s: %s", e.Source, e.Record, e.Field, e.Reason)
	}
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// SeasonParseError means no season token could be found in a source identifier
type SeasonParseError struct {
	Identifier string
}

func (e *SeasonParseError) Error() string {
	return fmt.Sprintf("no season token in %q (expected season-YYYY)", e.Identifier)
}

func (e *SeasonParseError) Unwrap() error { return ErrSeasonParse }

// StageError wraps a failure with the stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage recorded in err, or "" if none
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
