package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetprep/internal/core"
	"github.com/JonMunkholm/sheetprep/internal/sheet"
)

const peopleCSV = "Name,Age,City,Empty\n" +
	"ann,30,Oslo,\n" +
	"bob,,Oslo,\n" +
	"ann,30,Oslo,\n" +
	"cat,40,,\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(peopleCSV), 0o644))
	return path
}

func TestClean_DefaultOutput(t *testing.T) {
	input := writeInput(t)

	out, err := execute(t, "clean", input)
	require.NoError(t, err)
	assert.Contains(t, out, "92.50 (A)")
	assert.Contains(t, out, "4 -> 3")

	data, err := os.ReadFile(filepath.Join(filepath.Dir(input), "people_cleaned.xlsx"))
	require.NoError(t, err)
	tbl, err := sheet.DecodeXLSX(data)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Rows())
	assert.Equal(t, []string{"name", "age", "city"}, tbl.Names())
}

func TestClean_JSONWithSummaryAndCharts(t *testing.T) {
	input := writeInput(t)
	output := filepath.Join(t.TempDir(), "tidy.xlsx")

	out, err := execute(t, "clean", input, "-o", output, "--summary", "--charts", "--json")
	require.NoError(t, err)

	var res core.PreprocessResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, output, res.CleanedFilePath)
	assert.Equal(t, 1, res.DuplicatesRemoved)
	assert.InDelta(t, 92.5, res.DataQualityScore, 0.001)

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Summary")
	assert.Contains(t, f.GetSheetList(), "Charts")
}

func TestClean_CSVOutput(t *testing.T) {
	input := writeInput(t)
	output := filepath.Join(t.TempDir(), "tidy.csv")

	_, err := execute(t, "clean", input, "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("name,age,city\n")), string(data))

	_, err = execute(t, "clean", input, "-o", output+"2.csv", "--summary")
	assert.ErrorContains(t, err, "need an .xlsx output")
}

func TestClean_Errors(t *testing.T) {
	_, err := execute(t, "clean", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = execute(t, "clean", empty)
	assert.Error(t, err)

	headerOnly := filepath.Join(t.TempDir(), "header.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("a,b\n"), 0o644))
	_, err = execute(t, "clean", headerOnly)
	assert.ErrorContains(t, err, "Code: FILE004")

	_, err = execute(t, "clean")
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	out, err := execute(t, "score",
		"--original-rows", "4", "--original-cols", "4",
		"--null-columns-removed", "1", "--duplicates-removed", "1",
		"--missing-before", "6", "--missing-after", "0", "--json")
	require.NoError(t, err)

	var res scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 92.5, res.Score, 0.001)
	assert.Equal(t, "A", res.Grade)
	assert.InDelta(t, 75.0, res.Breakdown.Consistency, 0.001)
}

func TestScore_Text(t *testing.T) {
	out, err := execute(t, "score", "--original-rows", "10", "--original-cols", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "score         100.00 (A)")
}

func TestScore_RejectsImpossibleStats(t *testing.T) {
	tests := [][]string{
		{"score", "--original-rows", "2", "--original-cols", "2", "--missing-before", "1", "--missing-after", "2"},
		{"score", "--original-rows", "2", "--original-cols", "2", "--duplicates-removed", "3"},
		{"score", "--original-rows", "-1", "--original-cols", "2"},
		{"score", "--original-cols", "2"},
	}
	for _, args := range tests {
		_, err := execute(t, args...)
		assert.Error(t, err, args)
	}
}
