package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_PerfectInput(t *testing.T) {
	s := Stats{OriginalRows: 10, OriginalCols: 4}
	assert.Equal(t, 100.0, Score(s))
}

func TestScore_DegenerateShapeIsZero(t *testing.T) {
	tests := []Stats{
		{OriginalRows: 0, OriginalCols: 5},
		{OriginalRows: 5, OriginalCols: 0},
		{OriginalRows: 0, OriginalCols: 0, MissingBefore: 3},
	}
	for _, s := range tests {
		assert.Equal(t, 0.0, Score(s))
	}
}

func TestScore_Weighted(t *testing.T) {
	// 3x3 original, 4 nulls, all filled, nothing duplicated.
	s := Stats{OriginalRows: 3, OriginalCols: 3, NullColumnsRemoved: 1, MissingBefore: 4, MissingAfter: 0}
	assert.Equal(t, 100.0, Score(s))

	// Half of 20 cells still missing: completeness 50, improvement 0, consistency 100.
	s = Stats{OriginalRows: 10, OriginalCols: 2, MissingBefore: 10, MissingAfter: 10}
	assert.Equal(t, 50.0, Score(s))

	// One duplicate of three rows.
	s = Stats{OriginalRows: 3, OriginalCols: 2, DuplicatesRemoved: 1}
	assert.Equal(t, 90.0, Score(s))
}

func TestScore_RoundsToTwoDecimals(t *testing.T) {
	s := Stats{OriginalRows: 3, OriginalCols: 1, MissingBefore: 3, MissingAfter: 1}
	// completeness 66.666..*0.4 + improvement 66.666..*0.3 + 100*0.3
	assert.Equal(t, 76.67, Score(s))
}

func TestScore_StaysInRange(t *testing.T) {
	tests := []Stats{
		{OriginalRows: 1, OriginalCols: 1, MissingAfter: 50},
		{OriginalRows: 2, OriginalCols: 1, DuplicatesRemoved: 10},
		{OriginalRows: 5, OriginalCols: 5, MissingBefore: 1, MissingAfter: 20},
	}
	for _, s := range tests {
		got := Score(s)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}

func TestBreakdown(t *testing.T) {
	c := Breakdown(Stats{OriginalRows: 4, OriginalCols: 1, MissingBefore: 2, MissingAfter: 1, DuplicatesRemoved: 1})
	assert.Equal(t, 75.0, c.Completeness)
	assert.Equal(t, 50.0, c.Improvement)
	assert.Equal(t, 75.0, c.Consistency)

	assert.Equal(t, Components{}, Breakdown(Stats{}))
}

func TestGrade(t *testing.T) {
	tests := map[float64]string{100: "A", 90: "A", 85.5: "B", 70: "C", 61: "D", 12: "F"}
	for score, want := range tests {
		assert.Equal(t, want, Grade(score), "score %v", score)
	}
}
