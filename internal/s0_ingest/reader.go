package s0_ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/wonny/epl-etl/internal/contracts"
)

// Required columns of an input record
const (
	FieldHomeTeam  = "HomeTeam"
	FieldAwayTeam  = "AwayTeam"
	FieldHomeGoals = "FTHG"
	FieldAwayGoals = "FTAG"
)

// Columns lists the columns every record must carry, in display order
var Columns = []string{FieldHomeTeam, FieldAwayTeam, FieldHomeGoals, FieldAwayGoals}

// maxLineSize bounds a single JSON Lines record
const maxLineSize = 1 << 20

// JSONReader decodes season files.
// A file is either a JSON array of objects or JSON Lines (one object per line).
type JSONReader struct{}

// NewJSONReader creates a new JSONReader
func NewJSONReader() *JSONReader {
	return &JSONReader{}
}

// Read decodes and validates every record of src
func (r *JSONReader) Read(ctx context.Context, src contracts.Source) ([]contracts.RawMatch, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, &contracts.IngestError{InputPath: src.Path, Err: err}
	}
	defer f.Close()

	return r.Decode(ctx, src.ID, f)
}

// Decode reads records from rd; sourceID is only used in errors
func (r *JSONReader) Decode(ctx context.Context, sourceID string, rd io.Reader) ([]contracts.RawMatch, error) {
	br := bufio.NewReader(rd)

	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []contracts.RawMatch{}, nil
	}
	if err != nil {
		return nil, &contracts.SchemaError{Source: sourceID, Reason: err.Error()}
	}

	if first == '[' {
		return decodeArray(ctx, sourceID, br)
	}
	return decodeLines(ctx, sourceID, br)
}

// utf8BOM is stripped only when it opens the stream
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return 0, err
		}
	}

	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

func decodeArray(ctx context.Context, sourceID string, rd io.Reader) ([]contracts.RawMatch, error) {
	dec := json.NewDecoder(rd)
	if _, err := dec.Token(); err != nil {
		return nil, &contracts.SchemaError{Source: sourceID, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	var matches []contracts.RawMatch
	for idx := 1; dec.More(); idx++ {
		if idx%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var obj map[string]json.RawMessage
		if err := dec.Decode(&obj); err != nil {
			return nil, &contracts.SchemaError{Source: sourceID, Record: idx, Reason: fmt.Sprintf("invalid JSON object: %v", err)}
		}

		m, err := decodeRecord(sourceID, idx, obj)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	if _, err := dec.Token(); err != nil {
		return nil, &contracts.SchemaError{Source: sourceID, Reason: fmt.Sprintf("unterminated JSON array: %v", err)}
	}

	if matches == nil {
		matches = []contracts.RawMatch{}
	}
	return matches, nil
}

func decodeLines(ctx context.Context, sourceID string, rd io.Reader) ([]contracts.RawMatch, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	matches := []contracts.RawMatch{}
	idx := 0
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		idx++

		if idx%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, &contracts.SchemaError{Source: sourceID, Record: idx, Reason: fmt.Sprintf("invalid JSON object: %v", err)}
		}

		m, err := decodeRecord(sourceID, idx, obj)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	if err := sc.Err(); err != nil {
		return nil, &contracts.SchemaError{Source: sourceID, Record: idx + 1, Reason: err.Error()}
	}

	return matches, nil
}

// decodeRecord validates one object; extra columns are ignored
func decodeRecord(sourceID string, idx int, obj map[string]json.RawMessage) (contracts.RawMatch, error) {
	schemaErr := func(field, reason string) error {
		return &contracts.SchemaError{Source: sourceID, Record: idx, Field: field, Reason: reason}
	}

	home, err := teamField(obj, FieldHomeTeam)
	if err != nil {
		return contracts.RawMatch{}, schemaErr(FieldHomeTeam, err.Error())
	}
	away, err := teamField(obj, FieldAwayTeam)
	if err != nil {
		return contracts.RawMatch{}, schemaErr(FieldAwayTeam, err.Error())
	}
	if home == away {
		return contracts.RawMatch{}, schemaErr("", fmt.Sprintf("team %q plays itself", home))
	}

	hg, err := goalsField(obj, FieldHomeGoals)
	if err != nil {
		return contracts.RawMatch{}, schemaErr(FieldHomeGoals, err.Error())
	}
	ag, err := goalsField(obj, FieldAwayGoals)
	if err != nil {
		return contracts.RawMatch{}, schemaErr(FieldAwayGoals, err.Error())
	}

	return contracts.RawMatch{
		SourceID:  sourceID,
		Record:    idx,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeGoals: hg,
		AwayGoals: ag,
	}, nil
}

func teamField(obj map[string]json.RawMessage, field string) (string, error) {
	raw, ok := obj[field]
	if !ok || isNull(raw) {
		return "", fmt.Errorf("missing")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("not a string: %s", raw)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty team name")
	}
	return s, nil
}

// maxGoals caps a single goal value on both the integer and float paths
const maxGoals = math.MaxInt32

// goalsField accepts a JSON number or a numeric string holding a
// non-negative whole number
func goalsField(obj map[string]json.RawMessage, field string) (int, error) {
	raw, ok := obj[field]
	if !ok || isNull(raw) {
		return 0, fmt.Errorf("missing")
	}

	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("not a number: %s", raw)
		}
		text = strings.TrimSpace(s)
	}

	if n, err := strconv.Atoi(text); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative goals %d", n)
		}
		if n > maxGoals {
			return 0, fmt.Errorf("goals out of range %s", text)
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("fractional goals %s", text)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative goals %s", text)
	}
	if f > maxGoals {
		return 0, fmt.Errorf("goals out of range %s", text)
	}
	return int(f), nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
