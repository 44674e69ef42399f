package core

import (
	"errors"
	"os"
	"time"

	"github.com/JonMunkholm/sheetprep/internal/charts"
	"github.com/JonMunkholm/sheetprep/internal/cleaning"
	"github.com/JonMunkholm/sheetprep/internal/quality"
	"github.com/JonMunkholm/sheetprep/internal/table"
)

var (
	ErrNoFile          = errors.New("no file provided")
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrRunNotFound     = errors.New("run not found")
	ErrNoQuestion      = errors.New("question is required")
)

// Upload is a spreadsheet received from a client.
type Upload struct {
	FileName string
	Data     []byte
}

// PreprocessResult is the outcome of cleaning one upload. Field names
// follow the public JSON contract of /preprocess.
type PreprocessResult struct {
	RunID string `json:"run_id"`

	OriginalRows        int `json:"original_rows"`
	OriginalColumns     int `json:"original_columns"`
	ProcessedRows       int `json:"processed_rows"`
	ProcessedColumns    int `json:"processed_columns"`
	MissingValuesBefore int `json:"missing_values_before"`
	MissingValuesAfter  int `json:"missing_values_after"`
	DuplicatesRemoved   int `json:"duplicates_removed"`
	NullColumnsRemoved  int `json:"null_columns_removed"`

	DataQualityScore float64            `json:"data_quality_score"`
	QualityGrade     string             `json:"quality_grade"`
	QualityBreakdown quality.Components `json:"quality_breakdown"`

	CleanedFilePath string `json:"cleaned_file_path"`
	FileDownloadURL string `json:"file_download_url"`

	Columns []cleaning.ColumnReport `json:"columns"`
	Renamed []cleaning.Rename       `json:"renamed_columns,omitempty"`

	DurationMS int64 `json:"duration_ms"`

	cleaned table.Table
}

// Stats returns the quality statistics the result was scored from.
func (r *PreprocessResult) Stats() quality.Stats {
	return quality.Stats{
		OriginalRows:       r.OriginalRows,
		OriginalCols:       r.OriginalColumns,
		NullColumnsRemoved: r.NullColumnsRemoved,
		DuplicatesRemoved:  r.DuplicatesRemoved,
		MissingBefore:      r.MissingValuesBefore,
		MissingAfter:       r.MissingValuesAfter,
	}
}

// Cleaned returns the cleaned table.
func (r *PreprocessResult) Cleaned() table.Table {
	return r.cleaned
}

// ChartResult is one planned chart with its commentary.
type ChartResult struct {
	charts.Spec
	Details       string `json:"details"`
	AIInsight     string `json:"ai_insight"`
	HasAIAnalysis bool   `json:"has_ai_analysis"`
}

// AnalyzeResult extends PreprocessResult with charts and generated text.
type AnalyzeResult struct {
	PreprocessResult

	AISummary              string        `json:"ai_summary"`
	Charts                 []ChartResult `json:"charts"`
	OverallRecommendations string        `json:"overall_recommendations"`
	AnalysisTimestamp      time.Time     `json:"analysis_timestamp"`
}

// ChatRequest asks a question about a cleaned file. Exactly one of RunID,
// FileName or Upload identifies the data.
type ChatRequest struct {
	RunID    string
	FileName string
	Upload   *Upload
	Question string
}

// ChatResult is the answer to a ChatRequest.
type ChatResult struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	PreviewRows int    `json:"preview_rows"`
}

// Download is an opened output workbook. The caller closes File.
type Download struct {
	File    *os.File
	Name    string
	Size    int64
	ModTime time.Time
}
