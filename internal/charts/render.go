package charts

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet Render writes to.
const SheetName = "Charts"

const (
	chartRowSpan = 18
	chartWidth   = 640
	chartHeight  = 320
)

// Render writes the data behind specs to a Charts sheet and draws them:
// bar specs become column charts, the correlation spec becomes a matrix
// shaded with a red-white-green color scale.
func Render(f *excelize.File, specs []Spec) error {
	if len(specs) == 0 {
		return nil
	}
	if _, err := f.NewSheet(SheetName); err != nil {
		return fmt.Errorf("create charts sheet: %w", err)
	}

	row := 1
	for _, spec := range specs {
		var err error
		switch spec.Kind {
		case KindBar:
			err = renderBar(f, spec, row)
		case KindCorrelation:
			err = renderCorrelation(f, spec, row)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", spec.Name, err)
		}
		row += blockHeight(spec)
	}
	return nil
}

// RenderFunc adapts Render to the workbook decorator signature.
func RenderFunc(specs []Spec) func(*excelize.File) error {
	return func(f *excelize.File) error {
		return Render(f, specs)
	}
}

func blockHeight(spec Spec) int {
	data := len(spec.Counts) + 3
	if spec.Kind == KindCorrelation {
		data = len(spec.Columns) + 3
	}
	if spec.Kind == KindBar && data < chartRowSpan {
		return chartRowSpan
	}
	return data
}

func renderBar(f *excelize.File, spec Spec, top int) error {
	if err := setRow(f, 1, top, spec.Title); err != nil {
		return err
	}
	if err := setRow(f, 1, top+1, spec.Column, "Count"); err != nil {
		return err
	}
	for i, c := range spec.Counts {
		if err := setRow(f, 1, top+2+i, c.Value, c.Count); err != nil {
			return err
		}
	}
	if len(spec.Counts) == 0 {
		return nil
	}

	first, last := top+2, top+1+len(spec.Counts)
	anchor, err := excelize.CoordinatesToCellName(4, top)
	if err != nil {
		return err
	}
	return f.AddChart(SheetName, anchor, &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$%d", SheetName, top+1),
			Categories: fmt.Sprintf("%s!$A$%d:$A$%d", SheetName, first, last),
			Values:     fmt.Sprintf("%s!$B$%d:$B$%d", SheetName, first, last),
		}},
		Title:     []excelize.RichTextRun{{Text: spec.Title}},
		Legend:    excelize.ChartLegend{Position: "none"},
		PlotArea:  excelize.ChartPlotArea{ShowVal: true},
		Dimension: excelize.ChartDimension{Width: chartWidth, Height: chartHeight},
	})
}

func renderCorrelation(f *excelize.File, spec Spec, top int) error {
	if err := setRow(f, 1, top, spec.Title); err != nil {
		return err
	}
	header := make([]any, 0, len(spec.Columns)+1)
	header = append(header, "")
	for _, name := range spec.Columns {
		header = append(header, name)
	}
	if err := setRow(f, 1, top+1, header...); err != nil {
		return err
	}

	for i, name := range spec.Columns {
		line := make([]any, 0, len(spec.Columns)+1)
		line = append(line, name)
		for j := range spec.Columns {
			if i < len(spec.Matrix) && j < len(spec.Matrix[i]) && !math.IsNaN(spec.Matrix[i][j]) {
				line = append(line, math.Round(spec.Matrix[i][j]*1000)/1000)
			} else {
				line = append(line, nil)
			}
		}
		if err := setRow(f, 1, top+2+i, line...); err != nil {
			return err
		}
	}

	from, err := excelize.CoordinatesToCellName(2, top+2)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(len(spec.Columns)+1, top+1+len(spec.Columns))
	if err != nil {
		return err
	}
	return f.SetConditionalFormat(SheetName, from+":"+to, []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "num",
		MinValue: "-1",
		MinColor: "#F8696B",
		MidType:  "num",
		MidValue: "0",
		MidColor: "#FFFFFF",
		MaxType:  "num",
		MaxValue: "1",
		MaxColor: "#63BE7B",
	}})
}

func setRow(f *excelize.File, col, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &values)
}
