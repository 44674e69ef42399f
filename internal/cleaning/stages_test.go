package cleaning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetprep/internal/table"
)

func TestDropNullColumns(t *testing.T) {
	in := mustTable(t,
		col("a", null, null),
		col("b", num(1), null),
		col("c", null, null),
		col("d", txt("x"), txt("y")),
	)

	out, removed := DropNullColumns(in)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"b", "d"}, out.Names())
}

func TestDropDuplicateRows_NullEqualsNull(t *testing.T) {
	in := mustTable(t,
		col("a", null, num(1), null, num(1)),
		col("b", txt("x"), txt("x"), txt("x"), txt("y")),
	)

	out, removed := DropDuplicateRows(in)
	assert.Equal(t, 1, removed)
	require.Equal(t, 3, out.Rows())
	assert.True(t, out.Columns[0].Cells[0].IsNull())
	assert.Equal(t, []table.Cell{num(1), txt("y")}, out.Row(2))
}

func TestDropDuplicateRows_TypeAware(t *testing.T) {
	// "1" text and 1 numeric are different values.
	in := mustTable(t, col("a", num(1), txt("1")))

	_, removed := DropDuplicateRows(in)
	assert.Zero(t, removed)
}

func TestDropDuplicateRows_SignedZero(t *testing.T) {
	in := mustTable(t, col("a", num(0), num(math.Copysign(0, -1))))

	_, removed := DropDuplicateRows(in)
	assert.Equal(t, 1, removed)
}

func TestDropDuplicateRows_KeyBoundaries(t *testing.T) {
	// Concatenating cell keys naively would make these rows collide.
	in := mustTable(t,
		col("a", txt("ab"), txt("a")),
		col("b", txt("c"), txt("bc")),
	)

	_, removed := DropDuplicateRows(in)
	assert.Zero(t, removed)
}

func TestImpute_MedianEvenCount(t *testing.T) {
	in := mustTable(t, col("n", num(4), null, num(1), num(3), num(2)))

	out, reports := Impute(in)
	v, ok := out.Columns[0].Cells[1].Float()
	require.True(t, ok)
	assert.Equal(t, 2.5, v)
	assert.Equal(t, "2.5", reports[0].FillValue)
}

func TestImpute_ModeTieGoesToFirstSeen(t *testing.T) {
	in := mustTable(t, col("s", txt("b"), txt("a"), null, txt("a"), txt("b")))

	out, reports := Impute(in)
	assert.Equal(t, txt("b"), out.Columns[0].Cells[2])
	assert.Equal(t, StrategyMode, reports[0].Strategy)
}

func TestImpute_ResidualNullsRemain(t *testing.T) {
	in := mustTable(t,
		col("empty", null, null),
		col("n", num(1), null),
	)

	out, reports := Impute(in)
	assert.Equal(t, 2, out.Columns[0].NullCount())
	assert.Equal(t, StrategyPartial, reports[0].Strategy)
	assert.Equal(t, 2, reports[0].Remaining)
	assert.Zero(t, out.Columns[1].NullCount())
}

func TestImpute_NoNulls(t *testing.T) {
	in := mustTable(t, col("n", num(1), num(2)))

	out, reports := Impute(in)
	assert.True(t, in.Equal(out))
	assert.Equal(t, StrategyNone, reports[0].Strategy)
	assert.Zero(t, reports[0].Filled)
}

func TestForwardBackwardFill(t *testing.T) {
	cells := []table.Cell{null, num(1), null, null, num(2), null}
	forwardFill(cells)
	backwardFill(cells)
	assert.Equal(t, []table.Cell{num(1), num(1), num(1), num(1), num(2), num(2)}, cells)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" First Name ", "first_name"},
		{"ID", "id"},
		{"a  b", "a__b"},
		{"already_ok", "already_ok"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeNames_Collisions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"simple", []string{"A B", "A_B"}, []string{"a_b", "a_b_2"}},
		{"three way", []string{"x", "X", " x "}, []string{"x", "x_2", "x_3"}},
		{"suffix already taken", []string{"a", "A", "a_2"}, []string{"a", "a_3", "a_2"}},
		{"no collision", []string{"One", "Two"}, []string{"one", "two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := make([]table.Column, len(tt.in))
			for i, n := range tt.in {
				cols[i] = col(n, num(float64(i)))
			}
			out := NormalizeNames(mustTable(t, cols...))
			assert.Equal(t, tt.want, out.Names())
			require.NoError(t, out.Validate())
		})
	}
}
