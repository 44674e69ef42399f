package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetprep/internal/quality"
)

// scoreOutput is the JSON form of the score command.
type scoreOutput struct {
	Stats     quality.Stats      `json:"stats"`
	Score     float64            `json:"data_quality_score"`
	Grade     string             `json:"quality_grade"`
	Breakdown quality.Components `json:"quality_breakdown"`
}

func newScoreCmd() *cobra.Command {
	var (
		st     quality.Stats
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score cleaning statistics without a file",
		Example: `  sheetprep score --original-rows 100 --original-cols 5 \
    --missing-before 40 --missing-after 0 --duplicates-removed 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkStats(st); err != nil {
				return err
			}
			return runScore(cmd.OutOrStdout(), st, asJSON)
		},
	}

	f := cmd.Flags()
	f.IntVar(&st.OriginalRows, "original-rows", 0, "rows before cleaning")
	f.IntVar(&st.OriginalCols, "original-cols", 0, "columns before cleaning")
	f.IntVar(&st.NullColumnsRemoved, "null-columns-removed", 0, "all-null columns dropped")
	f.IntVar(&st.DuplicatesRemoved, "duplicates-removed", 0, "duplicate rows dropped")
	f.IntVar(&st.MissingBefore, "missing-before", 0, "null cells before cleaning")
	f.IntVar(&st.MissingAfter, "missing-after", 0, "null cells after cleaning")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.MarkFlagRequired("original-rows")
	cmd.MarkFlagRequired("original-cols")
	return cmd
}

// checkStats rejects statistics no cleaning run could have produced.
func checkStats(st quality.Stats) error {
	for name, v := range map[string]int{
		"original-rows":        st.OriginalRows,
		"original-cols":        st.OriginalCols,
		"null-columns-removed": st.NullColumnsRemoved,
		"duplicates-removed":   st.DuplicatesRemoved,
		"missing-before":       st.MissingBefore,
		"missing-after":        st.MissingAfter,
	} {
		if v < 0 {
			return fmt.Errorf("--%s must not be negative", name)
		}
	}
	switch {
	case st.MissingAfter > st.MissingBefore:
		return fmt.Errorf("--missing-after (%d) exceeds --missing-before (%d)", st.MissingAfter, st.MissingBefore)
	case st.DuplicatesRemoved > st.OriginalRows:
		return fmt.Errorf("--duplicates-removed (%d) exceeds --original-rows (%d)", st.DuplicatesRemoved, st.OriginalRows)
	case st.NullColumnsRemoved > st.OriginalCols:
		return fmt.Errorf("--null-columns-removed (%d) exceeds --original-cols (%d)", st.NullColumnsRemoved, st.OriginalCols)
	}
	return nil
}

func runScore(w io.Writer, st quality.Stats, asJSON bool) error {
	out := scoreOutput{
		Stats:     st,
		Score:     quality.Score(st),
		Breakdown: quality.Breakdown(st),
	}
	out.Grade = quality.Grade(out.Score)

	if asJSON {
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "completeness  %6.2f\n", out.Breakdown.Completeness)
	fmt.Fprintf(w, "improvement   %6.2f\n", out.Breakdown.Improvement)
	fmt.Fprintf(w, "consistency   %6.2f\n", out.Breakdown.Consistency)
	fmt.Fprintf(w, "score         %6.2f (%s)\n", out.Score, out.Grade)
	return nil
}
