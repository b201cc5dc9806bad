package contracts

import "fmt"

// Source is one input file discovered under the input path
// ⭐ SSOT: S0 수집 단위
type Source struct {
	ID     string `json:"id"`     // file name, used for season tagging
	Path   string `json:"path"`   // full path on disk
	Season string `json:"season"` // set by the tagger
}

// RawMatch is one decoded record before season tagging
type RawMatch struct {
	SourceID  string `json:"source_id"`
	Record    int    `json:"record"` // 1-based index inside the source
	HomeTeam  string `json:"HomeTeam"`
	AwayTeam  string `json:"AwayTeam"`
	HomeGoals int    `json:"FTHG"`
	AwayGoals int    `json:"FTAG"`
}

// MatchRecord is a tagged match result
// ⭐ SSOT: S0 → S1/S2 입력 레코드 (수집 후 불변)
type MatchRecord struct {
	Season    string `json:"season"`
	HomeTeam  string `json:"HomeTeam"`
	AwayTeam  string `json:"AwayTeam"`
	HomeGoals int    `json:"FTHG"`
	AwayGoals int    `json:"FTAG"`
}

// Tag attaches a season to a raw record
func (r RawMatch) Tag(season string) MatchRecord {
	return MatchRecord{
		Season:    season,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		HomeGoals: r.HomeGoals,
		AwayGoals: r.AwayGoals,
	}
}

// Validate checks the record invariants
func (m MatchRecord) Validate() error {
	switch {
	case m.Season == "":
		return fmt.Errorf("season is empty")
	case m.HomeTeam == "" || m.AwayTeam == "":
		return fmt.Errorf("team name is empty")
	case m.HomeTeam == m.AwayTeam:
		return fmt.Errorf("home and away team are both %q", m.HomeTeam)
	case m.HomeGoals < 0 || m.AwayGoals < 0:
		return fmt.Errorf("negative goals %d-%d", m.HomeGoals, m.AwayGoals)
	}
	return nil
}

// IsDraw reports whether the match ended level
func (m MatchRecord) IsDraw() bool {
	return m.HomeGoals == m.AwayGoals
}

// SeasonKey identifies one team inside one season partition
type SeasonKey struct {
	Season string
	Team   string
}
