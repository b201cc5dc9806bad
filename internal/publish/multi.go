package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/pkg/logger"
)

// Multi publishes to several sinks in order; the first error stops the fan-out
type Multi struct {
	sinks  []contracts.Publisher
	logger *logger.Logger
}

// NewMulti creates a fan-out publisher
func NewMulti(log *logger.Logger, sinks ...contracts.Publisher) *Multi {
	return &Multi{
		sinks:  sinks,
		logger: log.WithField("module", "publish"),
	}
}

// Name lists the sink names, e.g. "file+postgres"
func (m *Multi) Name() string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

// Publish implements contracts.Publisher
func (m *Multi) Publish(ctx context.Context, rs *contracts.ResultSet) error {
	if len(m.sinks) == 0 {
		return errors.New("no sinks configured")
	}
	for _, sink := range m.sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.Publish(ctx, rs); err != nil {
			return fmt.Errorf("sink %s: %w", sink.Name(), err)
		}
		m.logger.WithFields(map[string]interface{}{
			"sink":   sink.Name(),
			"run_id": rs.RunID,
		}).Debug("Sink published")
	}
	return nil
}
