package web

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleDownload streams a cleaned workbook. Range and conditional requests
// are handled by http.ServeContent.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	dl, err := s.service.OpenDownload(name)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer dl.File.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	http.ServeContent(w, r, dl.Name, dl.ModTime, dl.File)
}

// runsQuery bounds GET /api/runs.
type runsQuery struct {
	Limit int `validate:"min=1,max=500"`
}

const defaultRunsLimit = 50

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", defaultRunsLimit)
	if err != nil {
		s.respondBadRequest(w, r, err)
		return
	}
	q := runsQuery{Limit: limit}
	if err := s.validate.Struct(q); err != nil {
		s.respondBadRequest(w, r, errors.New("limit must be between 1 and 500"))
		return
	}

	runs, err := s.service.Runs(r.Context(), q.Limit)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondOK(w, r, "", runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondOK(w, r, "", run)
}

// respondBadRequest reports a malformed request whose message is safe to
// show as is.
func (s *Server) respondBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{
		Error:   "Invalid request",
		Message: err.Error(),
		Code:    "REQ001",
	})
}

