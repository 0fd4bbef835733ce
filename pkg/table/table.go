// Package table holds small in-memory string tables read from CSV and
// resolves columns by case-insensitive alias lists.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// Table is a header plus string rows. Short rows read as empty cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// FromRecords builds a table from a header and rows.
func FromRecords(name string, columns []string, rows [][]string) *Table {
	t := &Table{Name: name, Columns: columns, Rows: rows}
	t.reindex()
	return t
}

// ReadCSV reads a table whose first record is the header.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read %s: empty csv", name)
		}
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows := make([][]string, 0, 256)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		rows = append(rows, rec)
	}
	return FromRecords(name, header, rows), nil
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(filepath.Base(path), f)
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// position never writes to t, so tables built as literals stay safe to read concurrently.
func (t *Table) position(col string) (int, bool) {
	if t.index != nil {
		j, ok := t.index[col]
		return j, ok
	}
	for j, c := range t.Columns {
		if c == col {
			return j, true
		}
	}
	return 0, false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Has reports whether the exact column name exists.
func (t *Table) Has(col string) bool {
	if t == nil {
		return false
	}
	_, ok := t.position(col)
	return ok
}

// Resolve returns the first header column matching any alias, trying aliases
// in priority order. Matching is case-insensitive and ignores surrounding space.
func (t *Table) Resolve(aliases ...string) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, alias := range aliases {
		want := strings.ToLower(strings.TrimSpace(alias))
		for _, c := range t.Columns {
			if strings.ToLower(strings.TrimSpace(c)) == want {
				return c, true
			}
		}
	}
	return "", false
}

// Value returns the trimmed cell of row i in col, or "" when absent.
func (t *Table) Value(i int, col string) string {
	if t == nil || i < 0 || i >= len(t.Rows) {
		return ""
	}
	j, ok := t.position(col)
	if !ok || j >= len(t.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][j])
}

// Column returns every cell of col.
func (t *Table) Column(col string) []string {
	out := make([]string, t.Len())
	for i := range out {
		out[i] = t.Value(i, col)
	}
	return out
}

// Distinct returns the distinct non-empty values of col in first-appearance order.
func (t *Table) Distinct(col string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for i := 0; i < t.Len(); i++ {
		v := t.Value(i, col)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Filter returns a table with the rows of t for which keep is true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	rows := make([][]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if keep(i) {
			rows = append(rows, t.Rows[i])
		}
	}
	return FromRecords(t.Name, t.Columns, rows)
}

var numberReplacer = strings.NewReplacer(
	",", "", "$", "", "₹", "", "€", "", "£", "", "Rs.", "", "Rs", "", "INR", "", "USD", "", " ", "", "\u00a0", "",
)

// Float parses a numeric cell, tolerating currency symbols and thousands
// separators. Empty or malformed cells report false.
func (t *Table) Float(i int, col string) (float64, bool) {
	return ParseNumber(t.Value(i, col))
}

// ParseNumber parses a numeric string the way Float does.
func ParseNumber(s string) (float64, bool) {
	s = numberReplacer.Replace(strings.TrimSpace(s))
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
