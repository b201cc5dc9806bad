package contracts

import "context"

// Tagger extracts a season from a source identifier (S1)
// ⭐ SSOT: 시즌 태깅 인터페이스
type Tagger interface {
	Tag(identifier string) (string, error)
}

// SourceFinder discovers input sources (S0)
// ⭐ SSOT: 소스 탐색 인터페이스
type SourceFinder interface {
	Find(ctx context.Context, inputPath string) ([]Source, error)
}

// MatchReader decodes the records of one source (S0)
// ⭐ SSOT: 레코드 디코딩 인터페이스
type MatchReader interface {
	Read(ctx context.Context, src Source) ([]RawMatch, error)
}

// StandingsBuilder produces the ranked positions table (S2/S3)
type StandingsBuilder interface {
	Build(ctx context.Context, matches []MatchRecord) ([]TeamSeasonStanding, error)
}

// TopScorerBuilder produces the best_scoring_team table (S2/S3)
type TopScorerBuilder interface {
	Build(ctx context.Context, matches []MatchRecord) ([]TopScorerRecord, error)
}

// Publisher writes a result set to one sink (S4)
// ⭐ SSOT: 결과 저장 인터페이스 (run 단위 원자적 교체)
type Publisher interface {
	Name() string
	Publish(ctx context.Context, rs *ResultSet) error
}

// ResultReader serves published results back (read API)
type ResultReader interface {
	Seasons(ctx context.Context) ([]string, error)
	ReadPositions(ctx context.Context, season string) ([]TeamSeasonStanding, error)
	ReadBestScoring(ctx context.Context, season string) ([]TopScorerRecord, error)
}
