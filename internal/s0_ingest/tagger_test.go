package s0_ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/epl-etl/internal/contracts"
)

func TestSeasonTagger_Tag(t *testing.T) {
	tagger := NewSeasonTagger()

	tests := []struct {
		name       string
		identifier string
		want       string
		wantErr    bool
	}{
		{"plain file", "season-9394.json", "9394", false},
		{"full path", "/data/raw/season-1819.json", "1819", false},
		{"first match wins", "season-0001-season-0102.json", "0001", false},
		{"longer digits keep first four", "season-199394.json", "1993", false},
		{"misspelled marker", "sesaon-9394.json", "", true},
		{"too few digits", "season-939.json", "", true},
		{"no marker", "9394.json", "", true},
		{"directory name ignored", "/data/season-9394/matches.json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tagger.Tag(tt.identifier)
			if tt.wantErr {
				require.Error(t, err)
				var spe *contracts.SeasonParseError
				require.True(t, errors.As(err, &spe))
				assert.Equal(t, tt.identifier, spe.Identifier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
