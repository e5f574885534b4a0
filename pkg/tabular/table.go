// Package tabular is the spreadsheet boundary: it decodes CSV and XLSX
// uploads into header-addressed tables and encodes result tables back to
// XLSX workbooks. It knows nothing about the fuel domain.
package tabular

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyTable        = errors.New("empty_table")
	ErrUnsupportedFormat = errors.New("unsupported_format")
)

// MissingColumnError reports a required header that was not found.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// Table is an in-memory spreadsheet sheet addressed by column name.
// Header matching is case-insensitive and whitespace-trimmed.
type Table struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a Table and its header index. Duplicate headers keep the
// first occurrence.
func NewTable(headers []string, rows [][]string) *Table {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := normalizeHeader(h)
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}
	return &Table{Headers: headers, Rows: rows, index: index}
}

// Column returns the index of the first header matching any of the given
// names, or a MissingColumnError naming the primary one.
func (t *Table) Column(name string, alternates ...string) (int, error) {
	if idx, ok := t.index[normalizeHeader(name)]; ok {
		return idx, nil
	}
	for _, alt := range alternates {
		if idx, ok := t.index[normalizeHeader(alt)]; ok {
			return idx, nil
		}
	}
	return 0, &MissingColumnError{Column: name}
}

// HasColumn reports whether any of the given header names is present.
func (t *Table) HasColumn(name string, alternates ...string) bool {
	_, err := t.Column(name, alternates...)
	return err == nil
}

// Cell returns the trimmed value at (row, col), or "" when the row is
// shorter than the header (ragged CSV rows are tolerated).
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
