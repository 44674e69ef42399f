package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetprep/internal/charts"
	"github.com/JonMunkholm/sheetprep/internal/cleaning"
	"github.com/JonMunkholm/sheetprep/internal/core"
	"github.com/JonMunkholm/sheetprep/internal/sheet"
)

type cleanOptions struct {
	output  string
	summary bool
	charts  bool
	json    bool
}

func newCleanCmd() *cobra.Command {
	var opts cleanOptions

	cmd := &cobra.Command{
		Use:   "clean <file>",
		Short: "Clean a spreadsheet and write the result",
		Long: `Clean a .xlsx, .xls or .csv file and write the cleaned table.

The output format follows the output file extension. Without -o the result
is written next to the input as <name>_cleaned.xlsx.

Examples:
  sheetprep clean sales.xlsx
  sheetprep clean export.csv -o tidy.csv
  sheetprep clean sales.xlsx --summary --charts --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.OutOrStdout(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (default <name>_cleaned.xlsx)")
	f.BoolVar(&opts.summary, "summary", false, "add a Summary sheet with statistics and score (xlsx only)")
	f.BoolVar(&opts.charts, "charts", false, "add a Charts sheet (xlsx only)")
	f.BoolVar(&opts.json, "json", false, "print the result as JSON")
	return cmd
}

func runClean(w io.Writer, input string, opts cleanOptions) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	cleaned, report, err := cleaning.CleanBytes(input, data)
	if err != nil {
		if core.IsUserFacing(err) {
			slog.Debug("clean failed", "file", input, "error", err)
			return fmt.Errorf("%s: %s", input, core.FormatUserError(err))
		}
		return fmt.Errorf("clean %s: %w", input, err)
	}
	res := core.NewResult(cleaned, report)

	output := opts.output
	if output == "" {
		output = defaultOutput(input)
	}
	out, err := encodeOutput(output, res, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return err
	}
	res.CleanedFilePath = output

	if opts.json {
		return writeJSON(w, res)
	}
	printResult(w, input, int64(len(data)), int64(len(out)), res)
	return nil
}

func defaultOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_cleaned.xlsx"
}

func encodeOutput(output string, res *core.PreprocessResult, opts cleanOptions) ([]byte, error) {
	f, err := sheet.Lookup(output)
	if err != nil {
		return nil, err
	}
	if f.Name != "xlsx" {
		if opts.summary || opts.charts {
			return nil, fmt.Errorf("--summary and --charts need an .xlsx output, got %s", output)
		}
		return sheet.Encode(output, res.Cleaned())
	}

	var xo sheet.XLSXOptions
	if opts.summary {
		xo.Summary = core.SummaryRows(res)
	}
	if opts.charts {
		xo.Decorate = []func(*excelize.File) error{charts.RenderFunc(charts.Plan(res.Cleaned()))}
	}
	return sheet.EncodeXLSX(res.Cleaned(), xo)
}

func printResult(w io.Writer, input string, inSize, outSize int64, res *core.PreprocessResult) {
	fmt.Fprintf(w, "%s (%s) -> %s (%s)\n\n", input, humanize.Bytes(uint64(inSize)),
		res.CleanedFilePath, humanize.Bytes(uint64(outSize)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Rows\t%s -> %s\n", humanize.Comma(int64(res.OriginalRows)), humanize.Comma(int64(res.ProcessedRows)))
	fmt.Fprintf(tw, "Columns\t%d -> %d\n", res.OriginalColumns, res.ProcessedColumns)
	fmt.Fprintf(tw, "Missing values\t%s -> %s\n", humanize.Comma(int64(res.MissingValuesBefore)), humanize.Comma(int64(res.MissingValuesAfter)))
	fmt.Fprintf(tw, "Duplicates removed\t%s\n", humanize.Comma(int64(res.DuplicatesRemoved)))
	fmt.Fprintf(tw, "Empty columns removed\t%d\n", res.NullColumnsRemoved)
	fmt.Fprintf(tw, "Quality score\t%.2f (%s)\n", res.DataQualityScore, res.QualityGrade)
	tw.Flush()

	if len(res.Columns) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tKIND\tFILLED\tSTRATEGY")
		for _, c := range res.Columns {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.Name, c.Kind, c.Filled, c.Strategy)
		}
		tw.Flush()
	}
	for _, r := range res.Renamed {
		fmt.Fprintf(w, "renamed %q -> %q\n", r.From, r.To)
	}
}
