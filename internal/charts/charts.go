// Package charts plans the charts attached to an analysis and renders them
// into the output workbook.
package charts

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/JonMunkholm/sheetprep/internal/table"
)

// Planning limits.
const (
	MaxBarCharts = 3
	TopValues    = 10
)

// Kind identifies the chart type.
type Kind string

const (
	KindBar         Kind = "bar"
	KindCorrelation Kind = "correlation"
)

// Count is how often one value occurs in a column.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Spec describes one chart independently of how it is drawn.
type Spec struct {
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Title   string   `json:"title"`
	Column  string   `json:"column,omitempty"`
	Counts  []Count  `json:"counts,omitempty"`
	Columns []string `json:"columns,omitempty"`

	// Matrix holds Pearson coefficients for a correlation spec, NaN where
	// a pair has no variance.
	Matrix [][]float64 `json:"-"`
}

// Details is a one-line description of the chart data, used as AI context.
func (s Spec) Details() string {
	switch s.Kind {
	case KindBar:
		parts := make([]string, len(s.Counts))
		for i, c := range s.Counts {
			parts[i] = fmt.Sprintf("'%s': %d", c.Value, c.Count)
		}
		return fmt.Sprintf("Bar Chart for '%s' - top %d values: {%s}", s.Column, TopValues, strings.Join(parts, ", "))
	case KindCorrelation:
		return fmt.Sprintf("Correlation Heatmap for numeric columns: [%s]", strings.Join(s.Columns, ", "))
	default:
		return fmt.Sprintf("Chart %s", s.Name)
	}
}

// Plan picks the charts for a cleaned table: a top-values bar chart for each
// of the first three text columns, then a correlation heatmap when at least
// two numeric columns exist.
func Plan(t table.Table) []Spec {
	var specs []Spec
	var numeric []string

	for _, col := range t.Columns {
		switch col.Kind() {
		case table.KindText:
			if len(specs) >= MaxBarCharts {
				continue
			}
			counts := ValueCounts(col, TopValues)
			if len(counts) == 0 {
				continue
			}
			specs = append(specs, Spec{
				Name:   "barchart_" + col.Name,
				Kind:   KindBar,
				Title:  "Top 10 Values in " + col.Name,
				Column: col.Name,
				Counts: counts,
			})
		case table.KindNumeric:
			numeric = append(numeric, col.Name)
		}
	}

	if len(numeric) >= 2 {
		specs = append(specs, Spec{
			Name:    "correlation",
			Kind:    KindCorrelation,
			Title:   "Correlation Heatmap",
			Columns: numeric,
			Matrix:  Correlation(t, numeric),
		})
	}
	return specs
}

// ValueCounts returns the n most frequent non-null values of col, most
// frequent first. Equal counts keep first-seen order.
func ValueCounts(col table.Column, n int) []Count {
	index := make(map[string]int)
	var counts []Count
	for _, cell := range col.Cells {
		if cell.IsNull() {
			continue
		}
		v := cell.String()
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, Count{Value: v, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// Correlation computes the pairwise Pearson matrix for the named numeric
// columns, using only rows where both values are present.
func Correlation(t table.Table, names []string) [][]float64 {
	cols := make([][]table.Cell, len(names))
	for i, name := range names {
		col, _ := t.Column(name)
		cols[i] = col.Cells
	}

	m := make([][]float64, len(names))
	for i := range m {
		m[i] = make([]float64, len(names))
	}
	for i := range names {
		for j := i; j < len(names); j++ {
			r := pearson(cols[i], cols[j])
			m[i][j], m[j][i] = r, r
		}
	}
	return m
}

func pearson(a, b []table.Cell) float64 {
	var n, sumX, sumY float64
	for i := range a {
		x, okX := a[i].Float()
		y, okY := b[i].Float()
		if okX && okY {
			n++
			sumX += x
			sumY += y
		}
	}
	if n < 2 {
		return math.NaN()
	}

	meanX, meanY := sumX/n, sumY/n
	var cov, varX, varY float64
	for i := range a {
		x, okX := a[i].Float()
		y, okY := b[i].Float()
		if !okX || !okY {
			continue
		}
		dx, dy := x-meanX, y-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}
