package insight

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetprep/internal/table"
)

// HeadRows is the number of sample rows included in a profile.
const HeadRows = 5

// ColumnStats is a describe-style summary of one numeric column.
type ColumnStats struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q1    float64
	Q2    float64
	Q3    float64
	Max   float64
}

// Profile is the dataset context sent along with prompts.
type Profile struct {
	Rows     int
	Cols     int
	Columns  []string
	Kinds    []string
	Numeric  []string
	Text     []string
	Head     string
	Describe []ColumnStats
	Missing  []int
}

// NewProfile summarizes t.
func NewProfile(t table.Table) Profile {
	p := Profile{
		Rows:    t.Rows(),
		Cols:    t.Width(),
		Columns: t.Names(),
		Kinds:   make([]string, t.Width()),
		Missing: make([]int, t.Width()),
		Head:    t.Head(HeadRows).String(),
	}
	for i, col := range t.Columns {
		kind := col.Kind()
		p.Kinds[i] = kind.String()
		p.Missing[i] = col.NullCount()
		switch kind {
		case table.KindNumeric:
			p.Numeric = append(p.Numeric, col.Name)
			p.Describe = append(p.Describe, describe(col))
		case table.KindText:
			p.Text = append(p.Text, col.Name)
		}
	}
	return p
}

// Shape renders the table shape as "(rows, cols)".
func (p Profile) Shape() string {
	return fmt.Sprintf("(%d, %d)", p.Rows, p.Cols)
}

// DataTypes renders column kinds as "name: kind" pairs.
func (p Profile) DataTypes() string {
	pairs := make([]string, len(p.Columns))
	for i, name := range p.Columns {
		pairs[i] = name + ": " + p.Kinds[i]
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// MissingValues renders per-column null counts.
func (p Profile) MissingValues() string {
	pairs := make([]string, len(p.Columns))
	for i, name := range p.Columns {
		pairs[i] = name + ": " + strconv.Itoa(p.Missing[i])
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// Statistics renders the describe table, or a note when nothing is numeric.
func (p Profile) Statistics() string {
	if len(p.Describe) == 0 {
		return "No numeric columns"
	}
	var b strings.Builder
	b.WriteString("column  count  mean  std  min  25%  50%  75%  max")
	for _, s := range p.Describe {
		fmt.Fprintf(&b, "\n%s  %d  %s  %s  %s  %s  %s  %s  %s",
			s.Name, s.Count, num(s.Mean), num(s.Std), num(s.Min), num(s.Q1), num(s.Q2), num(s.Q3), num(s.Max))
	}
	return b.String()
}

func num(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func describe(col table.Column) ColumnStats {
	values := make([]float64, 0, len(col.Cells))
	for _, cell := range col.Cells {
		if v, ok := cell.Float(); ok {
			values = append(values, v)
		}
	}
	s := ColumnStats{Name: col.Name, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q1, s.Q2, s.Q3, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sort.Float64s(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	s.Mean = sum / float64(len(values))

	s.Std = math.NaN()
	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			sq += (v - s.Mean) * (v - s.Mean)
		}
		s.Std = math.Sqrt(sq / float64(len(values)-1))
	}

	s.Min, s.Max = values[0], values[len(values)-1]
	s.Q1 = quantile(values, 0.25)
	s.Q2 = quantile(values, 0.5)
	s.Q3 = quantile(values, 0.75)
	return s
}

// quantile uses linear interpolation between closest ranks on sorted values.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
