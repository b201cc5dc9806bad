package s0_ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/pkg/logger"
)

// Batch holds the decoded records of one source
type Batch struct {
	Source  contracts.Source
	Matches []contracts.RawMatch
}

// Collector discovers and decodes every source under an input path
// ⭐ SSOT: S0 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	finder contracts.SourceFinder
	reader contracts.MatchReader
	logger *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent readers
}

// NewCollector creates a new Collector instance
func NewCollector(finder contracts.SourceFinder, reader contracts.MatchReader, log *logger.Logger) *Collector {
	return &Collector{
		finder: finder,
		reader: reader,
		logger: log.WithField("module", "s0_ingest"),
	}
}

// NewFileCollector wires the filesystem finder and JSON reader
func NewFileCollector(log *logger.Logger) *Collector {
	return NewCollector(NewFileFinder(), NewJSONReader(), log)
}

type readResult struct {
	index int
	batch Batch
	err   error
}

// Collect returns one batch per source in source-name order.
// The first failing source (in that order) is reported.
func (c *Collector) Collect(parent context.Context, inputPath string, cfg Config) ([]Batch, error) {
	sources, err := c.finder.Find(parent, inputPath)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(sources) {
		workers = len(sources)
	}

	c.logger.WithFields(map[string]interface{}{
		"input_path":   inputPath,
		"source_count": len(sources),
		"workers":      workers,
	}).Info("Starting source collection")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	jobCh := make(chan int, len(sources))
	resultCh := make(chan readResult, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.readWorker(ctx, workerID, sources, jobCh, resultCh)
		}(i)
	}

	for i := range sources {
		jobCh <- i
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	batches := make([]Batch, len(sources))
	errs := make([]error, len(sources))
	for res := range resultCh {
		if res.err != nil {
			errs[res.index] = res.err
			cancel()
			continue
		}
		batches[res.index] = res.batch
	}

	if err := parent.Err(); err != nil {
		return nil, err
	}
	if err := firstError(errs); err != nil {
		return nil, err
	}

	total := 0
	for _, b := range batches {
		total += len(b.Matches)
	}
	c.logger.WithFields(map[string]interface{}{
		"sources": len(batches),
		"records": total,
	}).Info("Source collection completed")

	return batches, nil
}

func (c *Collector) readWorker(ctx context.Context, workerID int, sources []contracts.Source, jobCh <-chan int, resultCh chan<- readResult) {
	for idx := range jobCh {
		src := sources[idx]

		select {
		case <-ctx.Done():
			resultCh <- readResult{index: idx, err: ctx.Err()}
			continue
		default:
		}

		matches, err := c.reader.Read(ctx, src)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"source": src.ID,
			}).Error("Failed to read source")
			resultCh <- readResult{index: idx, err: fmt.Errorf("read %s: %w", src.ID, err)}
			continue
		}

		c.logger.WithFields(map[string]interface{}{
			"worker":  workerID,
			"source":  src.ID,
			"records": len(matches),
		}).Debug("Source decoded")

		resultCh <- readResult{index: idx, batch: Batch{Source: src, Matches: matches}}
	}
}

// firstError prefers a real failure over the cancellations it caused
func firstError(errs []error) error {
	var canceled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if canceled == nil {
				canceled = err
			}
			continue
		}
		return err
	}
	return canceled
}
