package web

// handlers_common.go holds helpers shared by the handlers: upload reading,
// the success envelope and query parsing.

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/sheetprep/internal/core"
	"github.com/JonMunkholm/sheetprep/internal/logging"
	"github.com/JonMunkholm/sheetprep/internal/web/views"
)

// multipartOverhead is allowed on top of the file size for form fields and
// boundaries.
const multipartOverhead = 1 << 20

// Response is the JSON body of every successful request.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(w http.ResponseWriter, r *http.Request, message string, data any) {
	render.JSON(w, r, Response{Success: true, Message: message, Data: data})
}

func renderHTML(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}

// readUpload reads the multipart "file" field. Oversized bodies and a
// missing field map to the core sentinels so they render like any other
// upload problem.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (core.Upload, error) {
	limit := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return core.Upload{}, uploadError(err, limit)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return core.Upload{}, uploadError(err, limit)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return core.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	return core.Upload{FileName: header.Filename, Data: data}, nil
}

func uploadError(err error, limit int64) error {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return fmt.Errorf("%w: limit is %s", core.ErrFileTooLarge, humanize.Bytes(uint64(limit)))
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return core.ErrNoFile
	default:
		return fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
}

// parseIntParam parses a positive integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return i, nil
}

// resultCard summarises a run for HTMX clients.
func resultCard(title string, res *core.PreprocessResult) views.Result {
	return views.Result{
		Title: title,
		Grade: fmt.Sprintf("%.2f (%s)", res.DataQualityScore, res.QualityGrade),
		Stats: []views.Stat{
			{Label: "Rows", Value: fmt.Sprintf("%s → %s", humanize.Comma(int64(res.OriginalRows)), humanize.Comma(int64(res.ProcessedRows)))},
			{Label: "Columns", Value: fmt.Sprintf("%d → %d", res.OriginalColumns, res.ProcessedColumns)},
			{Label: "Missing values", Value: fmt.Sprintf("%s → %s", humanize.Comma(int64(res.MissingValuesBefore)), humanize.Comma(int64(res.MissingValuesAfter)))},
			{Label: "Duplicates removed", Value: humanize.Comma(int64(res.DuplicatesRemoved))},
			{Label: "Empty columns removed", Value: strconv.Itoa(res.NullColumnsRemoved)},
		},
		DownloadURL: res.FileDownloadURL,
	}
}
