package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/pkg/logger"
)

const (
	partFile     = "part-00000.jsonl"
	manifestFile = "_manifest.json"
	stagingDir   = ".staging-"
	retiredDir   = ".old-"
	seasonPrefix = "season="
)

// ErrNotFound is returned when a season has not been published
var ErrNotFound = errors.New("season not found")

var seasonToken = regexp.MustCompile(`^\d{4}$`)

// ValidSeason reports whether s is a 4-digit season token
func ValidSeason(s string) bool {
	return seasonToken.MatchString(s)
}

// FileStore publishes result tables as season-partitioned JSON Lines
//
//	<root>/positions/season=9394/part-00000.jsonl
//	<root>/best_scoring_team/season=9394/part-00000.jsonl
//	<root>/_manifest.json
//
// ⭐ SSOT: 파일 출력 레이아웃은 여기서만
type FileStore struct {
	root   string
	logger *logger.Logger
}

// NewFileStore creates a file store rooted at root
func NewFileStore(root string, log *logger.Logger) *FileStore {
	return &FileStore{
		root:   root,
		logger: log.WithField("module", "publish.file"),
	}
}

// Name implements contracts.Publisher
func (s *FileStore) Name() string { return "file" }

// Root returns the output directory
func (s *FileStore) Root() string { return s.root }

// Publish stages every table under <root>/.staging-<run>/ and then swaps the
// affected season partitions in with renames. Seasons outside the run are
// left untouched. Nothing under <root> changes if staging fails.
func (s *FileStore) Publish(ctx context.Context, rs *contracts.ResultSet) error {
	for _, season := range rs.Seasons {
		if !ValidSeason(season) {
			return fmt.Errorf("invalid season %q", season)
		}
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	staging := filepath.Join(s.root, stagingDir+rs.RunID)
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := s.stage(ctx, staging, rs); err != nil {
		return fmt.Errorf("stage run %s: %w", rs.RunID, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.swap(staging, rs); err != nil {
		return fmt.Errorf("swap run %s: %w", rs.RunID, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":       rs.RunID,
		"seasons":      len(rs.Seasons),
		"positions":    len(rs.Positions),
		"best_scoring": len(rs.BestScoring),
		"root":         s.root,
	}).Info("File output published")

	return nil
}

func (s *FileStore) stage(ctx context.Context, staging string, rs *contracts.ResultSet) error {
	positions := rs.PositionsBySeason()
	best := rs.BestScoringBySeason()

	for _, season := range rs.Seasons {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeJSONL(partitionFile(staging, contracts.TablePositions, season), positions[season]); err != nil {
			return err
		}
		if err := writeJSONL(partitionFile(staging, contracts.TableBestScoring, season), best[season]); err != nil {
			return err
		}
	}

	if rs.Manifest != nil {
		if err := writeJSON(filepath.Join(staging, manifestFile), rs.Manifest); err != nil {
			return err
		}
	}
	return nil
}

type swapped struct {
	final   string
	retired string // empty when there was no previous partition
}

// swap moves staged partitions into place. On error every partition already
// swapped is rolled back to its previous content.
func (s *FileStore) swap(staging string, rs *contracts.ResultSet) (err error) {
	var done []swapped
	defer func() {
		if err != nil {
			s.rollback(done)
			return
		}
		for _, d := range done {
			if d.retired != "" {
				_ = os.RemoveAll(d.retired)
			}
		}
	}()

	for _, table := range []string{contracts.TablePositions, contracts.TableBestScoring} {
		if err = os.MkdirAll(filepath.Join(s.root, table), 0o755); err != nil {
			return err
		}

		for _, season := range rs.Seasons {
			staged := partitionDir(staging, table, season)
			final := partitionDir(s.root, table, season)
			sw := swapped{final: final}

			if _, statErr := os.Stat(final); statErr == nil {
				sw.retired = filepath.Join(s.root, table, retiredDir+rs.RunID+"-"+seasonPrefix+season)
				if err = os.Rename(final, sw.retired); err != nil {
					return err
				}
			}

			if err = os.Rename(staged, final); err != nil {
				if sw.retired != "" {
					_ = os.Rename(sw.retired, final)
				}
				return err
			}
			done = append(done, sw)
		}
	}

	if rs.Manifest != nil {
		if err = os.Rename(filepath.Join(staging, manifestFile), filepath.Join(s.root, manifestFile)); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) rollback(done []swapped) {
	for i := len(done) - 1; i >= 0; i-- {
		d := done[i]
		if err := os.RemoveAll(d.final); err != nil {
			s.logger.WithError(err).WithField("path", d.final).Error("Rollback failed")
			continue
		}
		if d.retired != "" {
			if err := os.Rename(d.retired, d.final); err != nil {
				s.logger.WithError(err).WithField("path", d.final).Error("Rollback failed")
			}
		}
	}
}

// Seasons lists the published seasons in ascending order
func (s *FileStore) Seasons(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, contracts.TablePositions))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	seasons := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), seasonPrefix) {
			continue
		}
		season := strings.TrimPrefix(e.Name(), seasonPrefix)
		if ValidSeason(season) {
			seasons = append(seasons, season)
		}
	}
	sort.Strings(seasons)
	return seasons, nil
}

// ReadPositions returns one season's positions rows
func (s *FileStore) ReadPositions(ctx context.Context, season string) ([]contracts.TeamSeasonStanding, error) {
	return readPartition[contracts.TeamSeasonStanding](s.root, contracts.TablePositions, season)
}

// ReadBestScoring returns one season's best_scoring_team rows
func (s *FileStore) ReadBestScoring(ctx context.Context, season string) ([]contracts.TopScorerRecord, error) {
	return readPartition[contracts.TopScorerRecord](s.root, contracts.TableBestScoring, season)
}

// ReadManifest returns the manifest of the last published run
func (s *FileStore) ReadManifest(ctx context.Context) (*contracts.RunManifest, error) {
	data, err := os.ReadFile(filepath.Join(s.root, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m contracts.RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

func partitionDir(root, table, season string) string {
	return filepath.Join(root, table, seasonPrefix+season)
}

func partitionFile(root, table, season string) string {
	return filepath.Join(partitionDir(root, table, season), partFile)
}

// CleanStale removes staging and retired directories older than olderThan.
// They only survive when a process died mid-publish.
func (s *FileStore) CleanStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	dirs := []string{
		s.root,
		filepath.Join(s.root, contracts.TablePositions),
		filepath.Join(s.root, contracts.TableBestScoring),
	}

	removed := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("list %s: %w", dir, err)
		}

		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return removed, err
			}
			name := e.Name()
			if !strings.HasPrefix(name, stagingDir) && !strings.HasPrefix(name, retiredDir) {
				continue
			}
			info, err := e.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
				return removed, fmt.Errorf("remove %s: %w", name, err)
			}
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Stale publish directories removed")
	}
	return removed, nil
}
