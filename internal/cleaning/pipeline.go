// Package cleaning implements the fixed cleaning pipeline applied to every
// uploaded sheet.
//
// The pipeline runs five stages in order:
//
//  1. drop columns that are entirely null
//  2. drop duplicate rows, keeping the first occurrence
//  3. impute nulls (median for numeric columns, mode for text columns,
//     then forward and backward fill)
//  4. normalize column names
//  5. finalize the statistics
//
// Every stage takes a table.Table and returns a new one. Nothing in this
// package performs I/O or keeps state between calls, so Clean is safe to
// call from any number of goroutines.
package cleaning

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/sheetprep/internal/quality"
	"github.com/JonMunkholm/sheetprep/internal/sheet"
	"github.com/JonMunkholm/sheetprep/internal/table"
)

// ErrEmptyInput is returned for a table with zero rows or zero columns.
var ErrEmptyInput = errors.New("input table is empty")

// Rename records a column whose name changed during normalization.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Report is the detailed outcome of a cleaning run.
type Report struct {
	Stats   quality.Stats  `json:"stats"`
	Columns []ColumnReport `json:"columns"`
	Renamed []Rename       `json:"renamed,omitempty"`
}

// Clean runs the pipeline and returns the cleaned table with its statistics.
func Clean(t table.Table) (table.Table, quality.Stats, error) {
	cleaned, report, err := CleanWithReport(t)
	if err != nil {
		return table.Table{}, quality.Stats{}, err
	}
	return cleaned, report.Stats, nil
}

// CleanWithReport is Clean plus per-column imputation details.
func CleanWithReport(t table.Table) (table.Table, Report, error) {
	if t.Empty() {
		return table.Table{}, Report{}, ErrEmptyInput
	}
	if err := t.Validate(); err != nil {
		return table.Table{}, Report{}, fmt.Errorf("invalid table: %w", err)
	}

	stats := quality.Stats{
		OriginalRows:  t.Rows(),
		OriginalCols:  t.Width(),
		MissingBefore: t.NullCount(),
	}

	out, nullCols := DropNullColumns(t)
	stats.NullColumnsRemoved = nullCols

	out, dups := DropDuplicateRows(out)
	stats.DuplicatesRemoved = dups

	out, columns := Impute(out)
	stats.MissingAfter = out.NullCount()

	normalized := NormalizeNames(out)

	var renamed []Rename
	for i, col := range normalized.Columns {
		if from := out.Columns[i].Name; from != col.Name {
			renamed = append(renamed, Rename{From: from, To: col.Name})
		}
		columns[i].Name = col.Name
	}

	return normalized, Report{Stats: stats, Columns: columns, Renamed: renamed}, nil
}

// CleanBytes decodes a spreadsheet by file name and cleans it.
// Decoding failures surface as *sheet.ParseError.
func CleanBytes(filename string, data []byte) (table.Table, Report, error) {
	t, err := sheet.Decode(filename, data)
	if err != nil {
		return table.Table{}, Report{}, err
	}
	return CleanWithReport(t)
}
