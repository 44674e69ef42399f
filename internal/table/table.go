// Package table provides the in-memory tabular model shared by the codec,
// the cleaning pipeline and the chart planner.
//
// A Table is a list of named columns of equal length. Values are Cells that
// hold a number, a piece of text, or the null sentinel. Tables are treated as
// values: every transformation returns a new Table and never mutates its input.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRaggedColumns is returned when columns do not share the same length.
	ErrRaggedColumns = errors.New("columns have different lengths")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindEmpty Kind = iota // every cell is null
	KindNumeric
	KindText
)

// String returns the lowercase kind name used in reports.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// Column is a named sequence of cells aligned by row index.
type Column struct {
	Name  string
	Cells []Cell
}

// Kind infers the column type from its non-null cells.
// A column is numeric only if every non-null cell is numeric.
func (c Column) Kind() Kind {
	kind := KindEmpty
	for _, cell := range c.Cells {
		switch {
		case cell.IsText():
			return KindText
		case cell.IsNumber():
			kind = KindNumeric
		}
	}
	return kind
}

// NullCount returns the number of null cells in the column.
func (c Column) NullCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.IsNull() {
			n++
		}
	}
	return n
}

// AllNull reports whether the column has no values at all.
func (c Column) AllNull() bool {
	return c.NullCount() == len(c.Cells)
}

// Clone returns a copy whose cell slice does not alias c.
func (c Column) Clone() Column {
	cells := make([]Cell, len(c.Cells))
	copy(cells, c.Cells)
	return Column{Name: c.Name, Cells: cells}
}

// Table is an ordered collection of equally sized, uniquely named columns.
type Table struct {
	Columns []Column
}

// New builds a table and checks its invariants.
func New(cols ...Column) (Table, error) {
	t := Table{Columns: cols}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// FromRows builds a table from a header and row-major cells.
// Short rows are padded with nulls; long rows are an error.
func FromRows(names []string, rows [][]Cell) (Table, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Cells: make([]Cell, len(rows))}
	}
	for r, row := range rows {
		if len(row) > len(names) {
			return Table{}, fmt.Errorf("row %d has %d cells, header has %d: %w", r, len(row), len(names), ErrRaggedColumns)
		}
		for c := range names {
			if c < len(row) {
				cols[c].Cells[r] = row[c]
			} else {
				cols[c].Cells[r] = Null()
			}
		}
	}
	return New(cols...)
}

// Validate checks that all columns have equal length and unique names.
func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for i, col := range t.Columns {
		if i > 0 && len(col.Cells) != len(t.Columns[0].Cells) {
			return fmt.Errorf("column %q has %d rows, want %d: %w",
				col.Name, len(col.Cells), len(t.Columns[0].Cells), ErrRaggedColumns)
		}
		if _, ok := seen[col.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	return nil
}

// Rows returns the number of rows.
func (t Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// Width returns the number of columns.
func (t Table) Width() int {
	return len(t.Columns)
}

// Empty reports whether the table has no rows or no columns.
func (t Table) Empty() bool {
	return t.Rows() == 0 || t.Width() == 0
}

// NullCount returns the total number of null cells.
func (t Table) NullCount() int {
	n := 0
	for _, col := range t.Columns {
		n += col.NullCount()
	}
	return n
}

// Names returns the column names in order.
func (t Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the column with the given name.
func (t Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Row returns the cells of row i across all columns.
func (t Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for c, col := range t.Columns {
		row[c] = col.Cells[i]
	}
	return row
}

// Head returns a table limited to the first n rows.
func (t Table) Head(n int) Table {
	if n > t.Rows() {
		n = t.Rows()
	}
	cols := make([]Column, len(t.Columns))
	for i, col := range t.Columns {
		cells := make([]Cell, n)
		copy(cells, col.Cells[:n])
		cols[i] = Column{Name: col.Name, Cells: cells}
	}
	return Table{Columns: cols}
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	cols := make([]Column, len(t.Columns))
	for i, col := range t.Columns {
		cols[i] = col.Clone()
	}
	return Table{Columns: cols}
}

// Equal reports whether both tables have the same names and cells in order.
func (t Table) Equal(o Table) bool {
	if t.Width() != o.Width() || t.Rows() != o.Rows() {
		return false
	}
	for i, col := range t.Columns {
		other := o.Columns[i]
		if col.Name != other.Name {
			return false
		}
		for r, cell := range col.Cells {
			if !cell.Equal(other.Cells[r]) {
				return false
			}
		}
	}
	return true
}

// String renders the table as aligned text, mostly for prompts and debugging.
func (t Table) String() string {
	if t.Width() == 0 {
		return "(empty table)"
	}

	widths := make([]int, t.Width())
	for i, col := range t.Columns {
		widths[i] = len(col.Name)
		for _, cell := range col.Cells {
			if l := len(cell.String()); l > widths[i] {
				widths[i] = l
			}
		}
	}

	var b strings.Builder
	for i, col := range t.Columns {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(pad(col.Name, widths[i]))
	}
	for r := 0; r < t.Rows(); r++ {
		b.WriteByte('\n')
		for i, col := range t.Columns {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(pad(col.Cells[r].String(), widths[i]))
		}
	}
	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
