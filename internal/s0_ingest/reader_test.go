package s0_ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/epl-etl/internal/contracts"
)

func TestJSONReader_Formats(t *testing.T) {
	want := []contracts.RawMatch{
		{SourceID: "season-9394.json", Record: 1, HomeTeam: "Arsenal", AwayTeam: "Coventry", HomeGoals: 0, AwayGoals: 3},
		{SourceID: "season-9394.json", Record: 2, HomeTeam: "Aston Villa", AwayTeam: "QPR", HomeGoals: 4, AwayGoals: 1},
	}

	tests := []struct {
		name  string
		input string
	}{
		{
			name: "json array",
			input: `[
				{"Date":"14/08/93","HomeTeam":"Arsenal","AwayTeam":"Coventry","FTHG":0,"FTAG":3,"FTR":"A"},
				{"HomeTeam":"Aston Villa","AwayTeam":"QPR","FTHG":4,"FTAG":1}
			]`,
		},
		{
			name: "json lines",
			input: "{\"HomeTeam\":\"Arsenal\",\"AwayTeam\":\"Coventry\",\"FTHG\":0,\"FTAG\":3}\n\n" +
				"{\"HomeTeam\":\"Aston Villa\",\"AwayTeam\":\"QPR\",\"FTHG\":\"4\",\"FTAG\":1.0}\n",
		},
		{
			name:  "padded names",
			input: `[{"HomeTeam":" Arsenal ","AwayTeam":"Coventry","FTHG":"0","FTAG":"3"},{"HomeTeam":"Aston Villa","AwayTeam":"QPR","FTHG":4,"FTAG":1}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewJSONReader().Decode(context.Background(), "season-9394.json", strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestJSONReader_Empty(t *testing.T) {
	for _, input := range []string{"", "  \n", "[]", "[ ]"} {
		got, err := NewJSONReader().Decode(context.Background(), "season-9394.json", strings.NewReader(input))
		require.NoError(t, err, "input %q", input)
		assert.Empty(t, got)
	}
}

func TestJSONReader_SchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		record int
		field  string
	}{
		{"missing FTHG", `[{"HomeTeam":"A","AwayTeam":"B","FTAG":1}]`, 1, "FTHG"},
		{"null FTAG", `[{"HomeTeam":"A","AwayTeam":"B","FTHG":1,"FTAG":null}]`, 1, "FTAG"},
		{"missing HomeTeam", `[{"AwayTeam":"B","FTHG":1,"FTAG":1}]`, 1, "HomeTeam"},
		{"empty AwayTeam", `[{"HomeTeam":"A","AwayTeam":"  ","FTHG":1,"FTAG":1}]`, 1, "AwayTeam"},
		{"numeric team", `[{"HomeTeam":7,"AwayTeam":"B","FTHG":1,"FTAG":1}]`, 1, "HomeTeam"},
		{"negative goals", `[{"HomeTeam":"A","AwayTeam":"B","FTHG":-1,"FTAG":1}]`, 1, "FTHG"},
		{"fractional goals", `[{"HomeTeam":"A","AwayTeam":"B","FTHG":1,"FTAG":1.5}]`, 1, "FTAG"},
		{"text goals", `[{"HomeTeam":"A","AwayTeam":"B","FTHG":"two","FTAG":1}]`, 1, "FTHG"},
		{"same team", `[{"HomeTeam":"A","AwayTeam":"B","FTHG":1,"FTAG":1},{"HomeTeam":"A","AwayTeam":"A","FTHG":1,"FTAG":1}]`, 2, ""},
		{"bad line", "{\"HomeTeam\":\"A\",\"AwayTeam\":\"B\",\"FTHG\":1,\"FTAG\":1}\n{oops\n", 2, ""},
		{"array of numbers", `[1,2]`, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONReader().Decode(context.Background(), "season-9394.json", strings.NewReader(tt.input))
			require.Error(t, err)

			var se *contracts.SchemaError
			require.True(t, errors.As(err, &se), "got %T: %v", err, err)
			assert.Equal(t, "season-9394.json", se.Source)
			assert.Equal(t, tt.record, se.Record)
			assert.Equal(t, tt.field, se.Field)
			assert.ErrorIs(t, err, contracts.ErrSchema)
		})
	}
}

func TestJSONReader_UnterminatedArray(t *testing.T) {
	_, err := NewJSONReader().Decode(context.Background(), "season-9394.json",
		strings.NewReader(`[{"HomeTeam":"A","AwayTeam":"B","FTHG":1,"FTAG":1}`))
	assert.ErrorIs(t, err, contracts.ErrSchema)
}

func TestJSONReader_ReadFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "season-9394.json", `[{"HomeTeam":"A","AwayTeam":"B","FTHG":2,"FTAG":1}]`)

	got, err := NewJSONReader().Read(context.Background(), contracts.Source{ID: "season-9394.json", Path: p})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].HomeGoals)

	_, err = NewJSONReader().Read(context.Background(), contracts.Source{ID: "gone.json", Path: p + ".gone"})
	assert.ErrorIs(t, err, contracts.ErrIngest)
}

func TestJSONReader_ByteOrderMark(t *testing.T) {
	bom := "\xEF\xBB\xBF"
	for _, input := range []string{
		bom + `[{"HomeTeam":"A","AwayTeam":"B","FTHG":2,"FTAG":1}]`,
		bom + "\n{\"HomeTeam\":\"A\",\"AwayTeam\":\"B\",\"FTHG\":2,\"FTAG\":1}\n",
	} {
		got, err := NewJSONReader().Decode(context.Background(), "season-9394.json", strings.NewReader(input))
		require.NoError(t, err, "input %q", input)
		require.Len(t, got, 1)
		assert.Equal(t, "A", got[0].HomeTeam)
	}

	// BOM 바이트는 파일 맨 앞의 3바이트 순서일 때만 무시
	for _, input := range []string{
		"\xBB" + `[{"HomeTeam":"A","AwayTeam":"B","FTHG":2,"FTAG":1}]`,
		" " + bom + `[{"HomeTeam":"A","AwayTeam":"B","FTHG":2,"FTAG":1}]`,
		"{\"HomeTeam\":\"A\",\"AwayTeam\":\"B\",\"FTHG\":2,\"FTAG\":1}\n\xEF\n",
	} {
		_, err := NewJSONReader().Decode(context.Background(), "season-9394.json", strings.NewReader(input))
		assert.ErrorIs(t, err, contracts.ErrSchema, "input %q", input)
	}
}

func TestJSONReader_GoalsRange(t *testing.T) {
	for _, input := range []string{
		`[{"HomeTeam":"A","AwayTeam":"B","FTHG":3000000000,"FTAG":1}]`,
		`[{"HomeTeam":"A","AwayTeam":"B","FTHG":"3000000000","FTAG":1}]`,
		`[{"HomeTeam":"A","AwayTeam":"B","FTHG":3000000000.0,"FTAG":1}]`,
	} {
		_, err := NewJSONReader().Decode(context.Background(), "season-9394.json", strings.NewReader(input))
		require.Error(t, err, "input %q", input)

		var se *contracts.SchemaError
		require.True(t, errors.As(err, &se), "got %T: %v", err, err)
		assert.Equal(t, FieldHomeGoals, se.Field)
	}

	got, err := NewJSONReader().Decode(context.Background(), "season-9394.json",
		strings.NewReader(`[{"HomeTeam":"A","AwayTeam":"B","FTHG":2147483647,"FTAG":"2147483647"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2147483647, got[0].HomeGoals)
	assert.Equal(t, 2147483647, got[0].AwayGoals)
}
