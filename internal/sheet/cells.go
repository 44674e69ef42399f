package sheet

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetprep/internal/table"
)

// numericRegex matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// groupedRegex matches numbers written with comma thousands separators.
var groupedRegex = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// nullTokens are cell texts read as missing values.
var nullTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"-NaN": true,
	"null": true,
	"NULL": true,
	"None": true,
	"#N/A": true,
	"<NA>": true,
	"#NA":  true,
	"-nan": true,
}

// ParseCell types one raw cell: blank and null tokens become null, numbers
// become numeric cells, anything else is text.
func ParseCell(raw string) table.Cell {
	s := strings.TrimSpace(raw)
	if nullTokens[s] {
		return table.Null()
	}

	if numericRegex.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return table.Number(f)
		}
	}
	if groupedRegex.MatchString(s) {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return table.Number(f)
		}
	}
	return table.Text(s)
}

// textCell types a cell the workbook stores as a string. Only blanks and
// null tokens are reinterpreted; the text itself is kept as is.
func textCell(raw string) table.Cell {
	if nullTokens[strings.TrimSpace(raw)] {
		return table.Null()
	}
	return table.Text(raw)
}

// cellParser types the raw value found at a record index and column.
type cellParser func(row, col int, raw string) table.Cell

func parseRaw(_, _ int, raw string) table.Cell {
	return ParseCell(raw)
}

// headerNames turns a raw header row into unique column names.
// Blank headers become "Unnamed: <i>" and repeated names get ".1", ".2", ...
func headerNames(raw []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	dups := make(map[string]int)

	for i := 0; i < width; i++ {
		base := ""
		if i < len(raw) {
			base = raw[i]
		}
		if strings.TrimSpace(base) == "" {
			base = "Unnamed: " + strconv.Itoa(i)
		}

		name := base
		for used[name] {
			dups[base]++
			name = base + "." + strconv.Itoa(dups[base])
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// buildTable assembles a table from raw string records, the first being the
// header. Fully blank data rows are skipped.
func buildTable(records [][]string, parse cellParser) (table.Table, error) {
	if len(records) == 0 {
		return table.Table{}, nil
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	names := headerNames(records[0], width)
	rows := make([][]table.Cell, 0, len(records)-1)
	for r, rec := range records[1:] {
		row := make([]table.Cell, len(rec))
		blank := true
		for i, raw := range rec {
			row[i] = parse(r+1, i, raw)
			if !row[i].IsNull() {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return table.FromRows(names, rows)
}
