package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/sheetprep/internal/table"
)

func init() {
	Register(Format{
		Name:         "csv",
		Extensions:   []string{".csv"},
		ContentTypes: []string{"text/csv", "application/csv"},
		Decode:       DecodeCSV,
		Encode:       EncodeCSV,
	})
}

// DecodeCSV reads comma-separated text whose first record is the header.
func DecodeCSV(data []byte) (table.Table, error) {
	return ReadCSV(bytes.NewReader(data))
}

// ReadCSV is DecodeCSV over a stream.
func ReadCSV(r io.Reader) (table.Table, error) {
	reader := csv.NewReader(wrapText(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table.Table{}, &ParseError{Format: "csv", Err: err}
		}
		records = append(records, rec)
	}

	t, err := buildTable(records, parseRaw)
	if err != nil {
		return table.Table{}, &ParseError{Format: "csv", Err: err}
	}
	return t, nil
}

// EncodeCSV writes t as comma-separated text with a header row.
// Nulls are written as empty fields.
func EncodeCSV(t table.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Names()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	record := make([]string, t.Width())
	for r := 0; r < t.Rows(); r++ {
		for c, col := range t.Columns {
			record[c] = col.Cells[r].String()
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
