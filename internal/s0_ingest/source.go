package s0_ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/wonny/epl-etl/internal/contracts"
)

// SourcePattern is the glob used to discover season files in a directory
const SourcePattern = "season-*.json"

// FileFinder discovers season files on the local filesystem
type FileFinder struct {
	pattern string
}

// NewFileFinder creates a finder using SourcePattern
func NewFileFinder() *FileFinder {
	return &FileFinder{pattern: SourcePattern}
}

// Find returns the sources under inputPath, sorted by file name.
// A file path is its own single source; a directory is globbed.
func (f *FileFinder) Find(ctx context.Context, inputPath string) ([]contracts.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, &contracts.IngestError{InputPath: inputPath, Err: err}
	}

	if !info.IsDir() {
		return []contracts.Source{newSource(inputPath)}, nil
	}

	paths, err := filepath.Glob(filepath.Join(inputPath, f.pattern))
	if err != nil {
		return nil, &contracts.IngestError{InputPath: inputPath, Err: fmt.Errorf("glob %s: %w", f.pattern, err)}
	}

	sources := make([]contracts.Source, 0, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil || fi.IsDir() {
			continue
		}
		sources = append(sources, newSource(p))
	}

	if len(sources) == 0 {
		return nil, &contracts.IngestError{InputPath: inputPath}
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].ID < sources[j].ID
	})

	return sources, nil
}

func newSource(path string) contracts.Source {
	return contracts.Source{
		ID:   filepath.Base(path),
		Path: path,
	}
}
