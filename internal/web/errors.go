package web

// errors.go turns service errors into responses.
//
// Every failure is logged with its technical detail and the request ID, then
// rendered as the user message from core.MapError: a JSON envelope for API
// clients, an alert fragment for HTMX, or plain text otherwise.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/sheetprep/internal/cleaning"
	"github.com/JonMunkholm/sheetprep/internal/core"
	"github.com/JonMunkholm/sheetprep/internal/insight"
	"github.com/JonMunkholm/sheetprep/internal/logging"
	"github.com/JonMunkholm/sheetprep/internal/sheet"
	"github.com/JonMunkholm/sheetprep/internal/store"
	"github.com/JonMunkholm/sheetprep/internal/web/views"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errorTitles gives short titles for codes clients are known to match on.
var errorTitles = map[string]string{
	"FILE001":  "File too large",
	"FILE002":  "Invalid file type",
	"FILE003":  "No file provided",
	"FILE004":  "Empty file",
	"FILE005":  "File not found",
	"FILE006":  "Invalid filename",
	"PARSE001": "Processing error",
	"PARSE002": "Processing error",
	"RUN001":   "Server busy",
	"RUN002":   "Run not found",
	"AI001":    "AI unavailable",
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var parseErr *sheet.ParseError
	switch {
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrInvalidFileType),
		errors.Is(err, sheet.ErrUnsupportedFormat),
		errors.Is(err, core.ErrNoQuestion),
		errors.Is(err, store.ErrInvalidName),
		errors.Is(err, cleaning.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRunNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyRuns), errors.Is(err, insight.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing version of it.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	logFn := log.Warn
	if status >= http.StatusInternalServerError {
		logFn = log.Error
	}
	logFn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if errors.Is(err, core.ErrTooManyRuns) {
		w.Header().Set("Retry-After", "30")
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		views.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{
			Error:   errorTitle(msg.Code, status),
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
	default:
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
	}
}

func errorTitle(code string, status int) string {
	if t, ok := errorTitles[code]; ok {
		return t
	}
	return http.StatusText(status)
}

// isHTMX reports whether the request came from htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client should get JSON. Uploads posted by
// scripts and everything under /api default to JSON; browsers asking for
// HTML get text.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") || !strings.Contains(accept, "text/html")
}
