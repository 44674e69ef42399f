package cleaning

import (
	"sort"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetprep/internal/table"
)

// Imputation strategies recorded in ColumnReport.
const (
	StrategyNone    = "none"
	StrategyMedian  = "median"
	StrategyMode    = "mode"
	StrategyFill    = "forward/backward fill"
	StrategyPartial = "residual nulls"
)

// ColumnReport describes how one column was imputed.
type ColumnReport struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Filled    int    `json:"filled"`
	FillValue string `json:"fill_value,omitempty"`
	Strategy  string `json:"strategy"`
	Remaining int    `json:"remaining_nulls"`
}

// DropNullColumns removes every column whose cells are all null and returns
// the number removed. Survivor order is preserved.
func DropNullColumns(t table.Table) (table.Table, int) {
	kept := make([]table.Column, 0, len(t.Columns))
	for _, col := range t.Columns {
		if col.AllNull() {
			continue
		}
		kept = append(kept, col.Clone())
	}
	return table.Table{Columns: kept}, len(t.Columns) - len(kept)
}

// DropDuplicateRows keeps the first occurrence of each distinct row and
// returns the number of rows dropped. Null cells compare equal.
func DropDuplicateRows(t table.Table) (table.Table, int) {
	rows := t.Rows()
	keep := make([]int, 0, rows)
	seen := make(map[string]struct{}, rows)

	var key strings.Builder
	for r := 0; r < rows; r++ {
		key.Reset()
		for _, col := range t.Columns {
			k := col.Cells[r].Key()
			key.WriteString(strconv.Itoa(len(k)))
			key.WriteByte(':')
			key.WriteString(k)
		}
		if _, dup := seen[key.String()]; dup {
			continue
		}
		seen[key.String()] = struct{}{}
		keep = append(keep, r)
	}

	cols := make([]table.Column, len(t.Columns))
	for i, col := range t.Columns {
		cells := make([]table.Cell, len(keep))
		for j, r := range keep {
			cells[j] = col.Cells[r]
		}
		cols[i] = table.Column{Name: col.Name, Cells: cells}
	}
	return table.Table{Columns: cols}, rows - len(keep)
}

// Impute fills nulls column by column: numeric columns with their median,
// text columns with their mode, then forward fill and backward fill for
// anything left. Nulls with no value to copy from stay null.
func Impute(t table.Table) (table.Table, []ColumnReport) {
	cols := make([]table.Column, len(t.Columns))
	reports := make([]ColumnReport, len(t.Columns))

	for i, src := range t.Columns {
		col := src.Clone()
		kind := col.Kind()
		before := col.NullCount()
		report := ColumnReport{Name: col.Name, Kind: kind.String(), Strategy: StrategyNone}

		if before > 0 {
			var fill table.Cell
			switch kind {
			case table.KindNumeric:
				fill = median(col.Cells)
				report.Strategy = StrategyMedian
			case table.KindText:
				fill = mode(col.Cells)
				report.Strategy = StrategyMode
			}
			if !fill.IsNull() {
				report.FillValue = fill.String()
				for r, cell := range col.Cells {
					if cell.IsNull() {
						col.Cells[r] = fill
					}
				}
			}

			if col.NullCount() > 0 {
				forwardFill(col.Cells)
				backwardFill(col.Cells)
				report.Strategy = StrategyFill
			}
			if col.NullCount() > 0 {
				report.Strategy = StrategyPartial
			}
		}

		report.Remaining = col.NullCount()
		report.Filled = before - report.Remaining
		cols[i] = col
		reports[i] = report
	}
	return table.Table{Columns: cols}, reports
}

// NormalizeName trims the name, replaces spaces with underscores and
// lower-cases it.
func NormalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// NormalizeNames applies NormalizeName to every column. When two columns
// normalize to the same name, later ones get a numeric suffix (_2, _3, ...)
// that is not already taken.
func NormalizeNames(t table.Table) table.Table {
	normalized := make([]string, len(t.Columns))
	natural := make(map[string]bool, len(t.Columns))
	for i, col := range t.Columns {
		normalized[i] = NormalizeName(col.Name)
		natural[normalized[i]] = true
	}

	used := make(map[string]bool, len(normalized))
	cols := make([]table.Column, len(t.Columns))
	for i, col := range t.Columns {
		name := normalized[i]
		if used[name] {
			for n := 2; ; n++ {
				candidate := name + "_" + strconv.Itoa(n)
				if !natural[candidate] && !used[candidate] {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		cols[i] = table.Column{Name: name, Cells: col.Clone().Cells}
	}
	return table.Table{Columns: cols}
}

func median(cells []table.Cell) table.Cell {
	values := make([]float64, 0, len(cells))
	for _, cell := range cells {
		if v, ok := cell.Float(); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return table.Null()
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return table.Number(values[mid])
	}
	return table.Number((values[mid-1] + values[mid]) / 2)
}

// mode returns the most frequent non-null cell; ties go to the value seen first.
func mode(cells []table.Cell) table.Cell {
	counts := make(map[string]int)
	for _, cell := range cells {
		if !cell.IsNull() {
			counts[cell.Key()]++
		}
	}

	best := table.Null()
	bestCount := 0
	for _, cell := range cells {
		if cell.IsNull() {
			continue
		}
		if c := counts[cell.Key()]; c > bestCount {
			best, bestCount = cell, c
		}
	}
	return best
}

func forwardFill(cells []table.Cell) {
	last := table.Null()
	for i, cell := range cells {
		if cell.IsNull() {
			cells[i] = last
			continue
		}
		last = cell
	}
}

func backwardFill(cells []table.Cell) {
	next := table.Null()
	for i := len(cells) - 1; i >= 0; i-- {
		if cells[i].IsNull() {
			cells[i] = next
			continue
		}
		next = cells[i]
	}
}
