package s0_ingest

import (
	"path/filepath"
	"regexp"

	"github.com/wonny/epl-etl/internal/contracts"
)

// seasonPattern matches the season token in a source identifier,
// e.g. "season-9394.json" → "9394"
var seasonPattern = regexp.MustCompile(`season-(\d{2}\d{2})`)

// SeasonTagger extracts the season from a source identifier
// ⭐ SSOT: 시즌 추출 규칙은 여기서만
type SeasonTagger struct{}

// NewSeasonTagger creates a new SeasonTagger
func NewSeasonTagger() *SeasonTagger {
	return &SeasonTagger{}
}

// Tag returns the first 4-digit token following "season-".
// Only the base name is inspected so a directory called season-XXXX
// never tags the files inside it.
func (t *SeasonTagger) Tag(identifier string) (string, error) {
	m := seasonPattern.FindStringSubmatch(filepath.Base(identifier))
	if m == nil {
		return "", &contracts.SeasonParseError{Identifier: identifier}
	}
	return m[1], nil
}
