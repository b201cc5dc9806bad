package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/pkg/logger"
)

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS epl;

	CREATE TABLE IF NOT EXISTS epl.positions (
		season          TEXT    NOT NULL,
		team            TEXT    NOT NULL,
		points          INTEGER NOT NULL,
		goals_scored    INTEGER NOT NULL,
		goals_conceded  INTEGER NOT NULL,
		goal_difference INTEGER NOT NULL,
		rank            INTEGER NOT NULL,
		run_id          TEXT    NOT NULL,
		PRIMARY KEY (season, team)
	);

	CREATE TABLE IF NOT EXISTS epl.best_scoring_team (
		season      TEXT    NOT NULL,
		team        TEXT    NOT NULL,
		total_goals INTEGER NOT NULL,
		run_id      TEXT    NOT NULL,
		PRIMARY KEY (season, team)
	);

	CREATE TABLE IF NOT EXISTS epl.runs (
		run_id      TEXT PRIMARY KEY,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		manifest    JSONB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS epl.seasons (
		season       TEXT PRIMARY KEY,
		run_id       TEXT NOT NULL,
		published_at TIMESTAMPTZ NOT NULL
	);

	INSERT INTO epl.seasons (season, run_id, published_at)
	SELECT DISTINCT ON (season) season, run_id, now() FROM epl.positions
	ON CONFLICT (season) DO NOTHING;
`

// PostgresStore publishes result tables to PostgreSQL
// ⭐ SSOT: DB 출력은 여기서만 (season 단위 교체, 단일 트랜잭션)
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgresStore creates a new PostgreSQL sink
func NewPostgresStore(pool *pgxpool.Pool, log *logger.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: log.WithField("module", "publish.postgres"),
	}
}

// Name implements contracts.Publisher
func (s *PostgresStore) Name() string { return "postgres" }

// EnsureSchema creates the output tables when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Publish replaces the run's seasons in both tables inside one transaction
func (s *PostgresStore) Publish(ctx context.Context, rs *contracts.ResultSet) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	// Begin transaction
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Delete existing rows for the run's seasons
	if _, err := tx.Exec(ctx, "DELETE FROM epl.positions WHERE season = ANY($1)", rs.Seasons); err != nil {
		return fmt.Errorf("failed to delete old positions: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM epl.best_scoring_team WHERE season = ANY($1)", rs.Seasons); err != nil {
		return fmt.Errorf("failed to delete old best scoring rows: %w", err)
	}

	// Bulk insert new rows
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"epl", "positions"},
		[]string{"season", "team", "points", "goals_scored", "goals_conceded", "goal_difference", "rank", "run_id"},
		pgx.CopyFromSlice(len(rs.Positions), func(i int) ([]any, error) {
			r := rs.Positions[i]
			return []any{r.Season, r.Team, r.Points, r.GoalsScored, r.GoalsConceded, r.GoalDifference, r.Rank, rs.RunID}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy positions: %w", err)
	}

	m, err := tx.CopyFrom(ctx,
		pgx.Identifier{"epl", "best_scoring_team"},
		[]string{"season", "team", "total_goals", "run_id"},
		pgx.CopyFromSlice(len(rs.BestScoring), func(i int) ([]any, error) {
			r := rs.BestScoring[i]
			return []any{r.Season, r.Team, r.TotalGoals, rs.RunID}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy best scoring rows: %w", err)
	}

	// Register published seasons (빈 시즌 포함)
	_, err = tx.Exec(ctx, `
		INSERT INTO epl.seasons (season, run_id, published_at)
		SELECT unnest($1::text[]), $2, now()
		ON CONFLICT (season) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			published_at = EXCLUDED.published_at
	`, rs.Seasons, rs.RunID)
	if err != nil {
		return fmt.Errorf("failed to register seasons: %w", err)
	}

	// Record run manifest
	if rs.Manifest != nil {
		manifest, err := json.Marshal(rs.Manifest)
		if err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO epl.runs (run_id, started_at, finished_at, manifest)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (run_id) DO UPDATE SET
				finished_at = EXCLUDED.finished_at,
				manifest = EXCLUDED.manifest
		`, rs.RunID, rs.Manifest.StartedAt, rs.Manifest.FinishedAt, manifest)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":       rs.RunID,
		"seasons":      len(rs.Seasons),
		"positions":    n,
		"best_scoring": m,
	}).Info("PostgreSQL output published")

	return nil
}

// Seasons lists the published seasons in ascending order
func (s *PostgresStore) Seasons(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT season FROM epl.seasons ORDER BY season")
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	seasons, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan seasons: %w", err)
	}
	return seasons, nil
}

// ReadPositions returns one season's positions rows
func (s *PostgresStore) ReadPositions(ctx context.Context, season string) ([]contracts.TeamSeasonStanding, error) {
	query := `
		SELECT season, team, points, goals_scored, goals_conceded, goal_difference, rank
		FROM epl.positions
		WHERE season = $1
		ORDER BY rank, team
	`
	rows, err := s.pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.TeamSeasonStanding, error) {
		var r contracts.TeamSeasonStanding
		err := row.Scan(&r.Season, &r.Team, &r.Points, &r.GoalsScored, &r.GoalsConceded, &r.GoalDifference, &r.Rank)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan positions: %w", err)
	}
	if len(out) == 0 {
		return emptySeason(ctx, s, season, out)
	}
	return out, nil
}

// ReadBestScoring returns one season's best_scoring_team rows
func (s *PostgresStore) ReadBestScoring(ctx context.Context, season string) ([]contracts.TopScorerRecord, error) {
	query := `
		SELECT season, team, total_goals
		FROM epl.best_scoring_team
		WHERE season = $1
		ORDER BY team
	`
	rows, err := s.pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query best scoring rows: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.TopScorerRecord, error) {
		var r contracts.TopScorerRecord
		err := row.Scan(&r.Season, &r.Team, &r.TotalGoals)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan best scoring rows: %w", err)
	}
	if len(out) == 0 {
		return emptySeason(ctx, s, season, out)
	}
	return out, nil
}

// emptySeason separates a published season without rows from an unknown one
func emptySeason[T any](ctx context.Context, s *PostgresStore, season string, empty []T) ([]T, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM epl.seasons WHERE season = $1)", season).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query season %s: %w", season, err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	if empty == nil {
		empty = []T{}
	}
	return empty, nil
}
