package contracts

// Table names (output partitions)
const (
	TablePositions   = "positions"
	TableBestScoring = "best_scoring_team"
)

// TeamSeasonStanding is one row of the positions table
// ⭐ SSOT: S1 출력 (컬럼명 고정)
type TeamSeasonStanding struct {
	Season         string `json:"season"`
	Team           string `json:"Team"`
	Points         int    `json:"Points"`
	GoalsScored    int    `json:"Goals_Scored"`
	GoalsConceded  int    `json:"Goals_Conceded"`
	GoalDifference int    `json:"Goal_Difference"`
	Rank           int    `json:"Rank"`
}

// SameRecord reports whether two rows tie on every ranking key
func (s TeamSeasonStanding) SameRecord(o TeamSeasonStanding) bool {
	return s.Points == o.Points &&
		s.GoalDifference == o.GoalDifference &&
		s.GoalsScored == o.GoalsScored
}

// RanksAbove reports whether s sorts strictly before o
// (points desc, goal difference desc, goals scored desc)
func (s TeamSeasonStanding) RanksAbove(o TeamSeasonStanding) bool {
	if s.Points != o.Points {
		return s.Points > o.Points
	}
	if s.GoalDifference != o.GoalDifference {
		return s.GoalDifference > o.GoalDifference
	}
	return s.GoalsScored > o.GoalsScored
}

// TopScorerRecord is one row of the best_scoring_team table
// ⭐ SSOT: S2 출력 (컬럼명 고정)
type TopScorerRecord struct {
	Season     string `json:"season"`
	Team       string `json:"Team"`
	TotalGoals int    `json:"Total_Goals"`
}

// ResultSet is everything a run hands to the sinks
type ResultSet struct {
	RunID       string               `json:"run_id"`
	Seasons     []string             `json:"seasons"` // partitions being replaced
	Positions   []TeamSeasonStanding `json:"positions"`
	BestScoring []TopScorerRecord    `json:"best_scoring_team"`
	Manifest    *RunManifest         `json:"manifest,omitempty"`
}

// PositionsBySeason groups the positions rows by season, order preserved
func (r *ResultSet) PositionsBySeason() map[string][]TeamSeasonStanding {
	out := make(map[string][]TeamSeasonStanding, len(r.Seasons))
	for _, s := range r.Seasons {
		out[s] = []TeamSeasonStanding{}
	}
	for _, row := range r.Positions {
		out[row.Season] = append(out[row.Season], row)
	}
	return out
}

// BestScoringBySeason groups the best_scoring_team rows by season, order preserved
func (r *ResultSet) BestScoringBySeason() map[string][]TopScorerRecord {
	out := make(map[string][]TopScorerRecord, len(r.Seasons))
	for _, s := range r.Seasons {
		out[s] = []TopScorerRecord{}
	}
	for _, row := range r.BestScoring {
		out[row.Season] = append(out[row.Season], row)
	}
	return out
}
