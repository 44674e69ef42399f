// Package quality computes the composite data-quality score of a cleaning run.
package quality

import "math"

// Sub-score weights.
const (
	WeightCompleteness = 0.4
	WeightImprovement  = 0.3
	WeightConsistency  = 0.3
)

// Stats records what a cleaning run observed and changed.
type Stats struct {
	OriginalRows       int `json:"original_rows"`
	OriginalCols       int `json:"original_columns"`
	NullColumnsRemoved int `json:"null_columns_removed"`
	DuplicatesRemoved  int `json:"duplicates_removed"`
	MissingBefore      int `json:"missing_values_before"`
	MissingAfter       int `json:"missing_values_after"`
}

// TotalCells is the cell count of the original table.
func (s Stats) TotalCells() int {
	return s.OriginalRows * s.OriginalCols
}

// Components holds the three unweighted sub-scores, each in [0,100].
type Components struct {
	Completeness float64 `json:"completeness"`
	Improvement  float64 `json:"improvement"`
	Consistency  float64 `json:"consistency"`
}

// Breakdown computes the sub-scores. A degenerate shape yields all zeros.
func Breakdown(s Stats) Components {
	total := s.TotalCells()
	if total == 0 {
		return Components{}
	}

	c := Components{Improvement: 100, Consistency: 100}
	c.Completeness = math.Max(0, 100-float64(s.MissingAfter)/float64(total)*100)

	if s.MissingBefore > 0 {
		c.Improvement = clamp(float64(s.MissingBefore-s.MissingAfter) / float64(s.MissingBefore) * 100)
	}
	if s.OriginalRows > 0 {
		c.Consistency = math.Max(0, 100-float64(s.DuplicatesRemoved)/float64(s.OriginalRows)*100)
	}
	return c
}

// Score returns the weighted quality score in [0,100], rounded to two decimals.
// It returns 0 when the original table had no cells.
func Score(s Stats) float64 {
	if s.TotalCells() == 0 {
		return 0
	}
	c := Breakdown(s)
	sum := c.Completeness*WeightCompleteness +
		c.Improvement*WeightImprovement +
		c.Consistency*WeightConsistency
	return math.Round(clamp(sum)*100) / 100
}

// Grade maps a score onto a letter band for reports.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
