package runconfig

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// ScheduleParser parses 6-field cron expressions (with seconds)
var ScheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks all required constraints
// 실패 시 error 반환 (실행 중단)
func Validate(rf *RunFile) error {
	if rf.Workers < 0 {
		return ValidationError{"workers", "must be >= 0 (0 = default)"}
	}

	switch rf.OnTagError {
	case "abort", "skip":
	default:
		return ValidationError{"on_tag_error", fmt.Sprintf("must be abort or skip, got %q", rf.OnTagError)}
	}

	seen := make(map[string]bool, len(rf.Sinks))
	for _, s := range rf.Sinks {
		switch s {
		case SinkFile, SinkPostgres, SinkRedis:
		default:
			return ValidationError{"sinks", fmt.Sprintf("unknown sink %q", s)}
		}
		if seen[s] {
			return ValidationError{"sinks", fmt.Sprintf("duplicate sink %q", s)}
		}
		seen[s] = true
	}

	if rf.PreviewRows < 0 {
		return ValidationError{"preview_rows", "must be >= 0"}
	}

	if rf.Schedule != "" {
		if _, err := ScheduleParser.Parse(rf.Schedule); err != nil {
			return ValidationError{"schedule", err.Error()}
		}
	}

	return nil
}

// Warnings returns non-fatal issues
func Warnings(rf *RunFile) []Warning {
	var ws []Warning
	if !rf.HasSink(SinkFile) {
		ws = append(ws, Warning{"SINK_FILE_IMPLICIT", "file sink is always enabled; add it to sinks to be explicit"})
	}
	if rf.PreviewRows > 100 {
		ws = append(ws, Warning{"PREVIEW_LARGE", fmt.Sprintf("preview_rows=%d prints a large table", rf.PreviewRows)})
	}
	if rf.InputPath == "" || rf.OutputPath == "" {
		ws = append(ws, Warning{"PATHS_FROM_FLAGS", "input_path/output_path must then be given on the command line"})
	}
	return ws
}
