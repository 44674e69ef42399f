package table

import (
	"math"
	"strconv"
)

type cellType uint8

const (
	cellNull cellType = iota
	cellNumber
	cellText
)

// Cell is a single value: a number, text, or null.
// The zero Cell is null.
type Cell struct {
	typ cellType
	num float64
	str string
}

// Null returns the null sentinel.
func Null() Cell {
	return Cell{}
}

// Number returns a numeric cell. NaN becomes null.
func Number(f float64) Cell {
	if math.IsNaN(f) {
		return Null()
	}
	return Cell{typ: cellNumber, num: f}
}

// Text returns a text cell.
func Text(s string) Cell {
	return Cell{typ: cellText, str: s}
}

// IsNull reports whether the cell is the null sentinel.
func (c Cell) IsNull() bool { return c.typ == cellNull }

// IsNumber reports whether the cell holds a number.
func (c Cell) IsNumber() bool { return c.typ == cellNumber }

// IsText reports whether the cell holds text.
func (c Cell) IsText() bool { return c.typ == cellText }

// Float returns the numeric value and whether the cell is numeric.
func (c Cell) Float() (float64, bool) {
	return c.num, c.typ == cellNumber
}

// Text returns the text value and whether the cell is text.
func (c Cell) Text() (string, bool) {
	return c.str, c.typ == cellText
}

// Equal compares type and value. Null equals null.
func (c Cell) Equal(o Cell) bool {
	if c.typ != o.typ {
		return false
	}
	switch c.typ {
	case cellNumber:
		return c.num == o.num
	case cellText:
		return c.str == o.str
	default:
		return true
	}
}

// Key returns a type-tagged encoding usable as a map key. Cells that are
// Equal share a key.
func (c Cell) Key() string {
	switch c.typ {
	case cellNumber:
		if c.num == 0 {
			return "n:0"
		}
		return "n:" + strconv.FormatFloat(c.num, 'g', -1, 64)
	case cellText:
		return "s:" + c.str
	default:
		return "_"
	}
}

// String formats the value for display. Null renders as an empty string.
func (c Cell) String() string {
	switch c.typ {
	case cellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case cellText:
		return c.str
	default:
		return ""
	}
}

// Value returns the cell as float64, string or nil, for encoders.
func (c Cell) Value() any {
	switch c.typ {
	case cellNumber:
		return c.num
	case cellText:
		return c.str
	default:
		return nil
	}
}
