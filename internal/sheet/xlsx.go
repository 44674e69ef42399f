package sheet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetprep/internal/table"
)

// Sheet names written by EncodeXLSX.
const (
	SheetCleaned = "Cleaned"
	SheetSummary = "Summary"
)

func init() {
	Register(Format{
		Name:       "xlsx",
		Extensions: []string{".xlsx", ".xls", ".xlsm"},
		ContentTypes: []string{
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"application/vnd.ms-excel",
		},
		Decode: DecodeXLSX,
		Encode: func(t table.Table) ([]byte, error) {
			return EncodeXLSX(t, XLSXOptions{})
		},
	})
}

// SummaryRow is one label/value line of the Summary sheet.
type SummaryRow struct {
	Label string
	Value any
}

// XLSXOptions controls what EncodeXLSX writes next to the cleaned data.
type XLSXOptions struct {
	// Summary, when non-empty, is written to a Summary sheet.
	Summary []SummaryRow

	// Decorate runs against the workbook after the data sheets are written,
	// e.g. to add charts.
	Decorate []func(f *excelize.File) error
}

// DecodeXLSX reads the first worksheet of a workbook. Legacy BIFF (.xls)
// workbooks are not readable and fail with a ParseError.
func DecodeXLSX(data []byte) (table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return table.Table{}, &ParseError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table.Table{}, &ParseError{Format: "xlsx", Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return table.Table{}, &ParseError{Format: "xlsx", Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}

	t, err := buildTable(rows, typedCells(f, sheets[0]))
	if err != nil {
		return table.Table{}, &ParseError{Format: "xlsx", Err: err}
	}
	return t, nil
}

// typedCells keeps string cells as text, so values such as "00123" are not
// read as numbers. Other cells are typed from their raw value.
func typedCells(f *excelize.File, sheet string) cellParser {
	return func(row, col int, raw string) table.Cell {
		if raw == "" {
			return table.Null()
		}
		name, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return ParseCell(raw)
		}
		switch ct, _ := f.GetCellType(sheet, name); ct {
		case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
			return textCell(raw)
		}
		return ParseCell(raw)
	}
}

// EncodeXLSX writes t to the Cleaned sheet of a new workbook. Numbers are
// stored as numbers and nulls as empty cells.
func EncodeXLSX(t table.Table, opts XLSXOptions) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCleaned); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeTable(f, SheetCleaned, t); err != nil {
		return nil, err
	}

	if len(opts.Summary) > 0 {
		if err := writeSummary(f, opts.Summary); err != nil {
			return nil, err
		}
	}

	for _, decorate := range opts.Decorate {
		if err := decorate(f); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, t table.Table) error {
	header := make([]any, t.Width())
	for i, name := range t.Names() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := boldRow(f, sheet, 1, t.Width()); err != nil {
		return err
	}

	values := make([]any, t.Width())
	for r := 0; r < t.Rows(); r++ {
		for c, col := range t.Columns {
			values[c] = col.Cells[r].Value()
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	for i, name := range t.Names() {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, colName, colName, columnWidth(name)); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, rows []SummaryRow) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	header := []any{"Metric", "Value"}
	if err := f.SetSheetRow(SheetSummary, "A1", &header); err != nil {
		return err
	}
	if err := boldRow(f, SheetSummary, 1, 2); err != nil {
		return err
	}
	for i, row := range rows {
		line := []any{row.Label, row.Value}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &line); err != nil {
			return fmt.Errorf("write summary row %q: %w", row.Label, err)
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 28)
}

func boldRow(f *excelize.File, sheet string, row, width int) error {
	if width == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(width, row)
	return f.SetCellStyle(sheet, first, last, style)
}

func columnWidth(name string) float64 {
	w := float64(len(name)) + 2
	switch {
	case w < 10:
		return 10
	case w > 50:
		return 50
	}
	return w
}
