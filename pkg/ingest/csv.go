package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Table is a CSV file with its header indexed by column name.
type Table struct {
	columns map[string]int
	Rows    [][]string
}

// Has reports whether the header contains column.
func (t *Table) Has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// Value returns the cell of row under column, or "" when the column or
// cell is missing.
func (t *Table) Value(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Require fails with ErrMissingColumn naming every absent column.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// ReadTable loads a CSV file with a header row.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()
	return ParseTable(f)
}

// ParseTable reads a CSV stream with a header row. Header names are trimmed
// and a UTF-8 byte order mark is ignored.
func ParseTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	t := &Table{columns: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := t.columns[name]; !dup {
			t.columns[name] = i
		}
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// SeedRow is one document from the seed CSV.
type SeedRow struct {
	ID     string
	Text   string
	Title  string
	Label  string
	Source string
}

// LoadSeedCSV reads the seed file. "text" is required; "title", "label" and
// "source" are optional. Rows with an empty text cell are dropped before
// numbering; rows whose text is only whitespace keep their number but are
// skipped, so ids stay stable as doc-<n>.
func LoadSeedCSV(path string) ([]SeedRow, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return seedRows(t)
}

func seedRows(t *Table) ([]SeedRow, error) {
	if err := t.Require("text"); err != nil {
		return nil, err
	}

	var out []SeedRow
	n := 0
	for _, rec := range t.Rows {
		raw := t.Value(rec, "text")
		if raw == "" {
			continue
		}
		id := fmt.Sprintf("doc-%d", n)
		n++

		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		out = append(out, SeedRow{
			ID:     id,
			Text:   text,
			Title:  t.Value(rec, "title"),
			Label:  t.Value(rec, "label"),
			Source: t.Value(rec, "source"),
		})
	}
	return out, nil
}
