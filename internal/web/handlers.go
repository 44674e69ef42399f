package web

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/sheetprep/internal/core"
	"github.com/JonMunkholm/sheetprep/internal/sheet"
	"github.com/JonMunkholm/sheetprep/internal/web/views"
)

// handleIndex serves the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, r, views.IndexPage(views.IndexData{
		MaxFileSize:     humanize.Bytes(uint64(s.cfg.Upload.MaxFileSize)),
		Extensions:      sheet.Extensions(),
		InsightsEnabled: s.service.InsightsEnabled(),
	}))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// StatusResponse reports capacity and feature flags.
type StatusResponse struct {
	Runs            core.LimiterStatus `json:"runs"`
	InsightsEnabled bool               `json:"insights_enabled"`
	Formats         []string           `json:"formats"`
	MaxFileSize     int64              `json:"max_file_size"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, "", StatusResponse{
		Runs:            s.service.Limiter().Status(),
		InsightsEnabled: s.service.InsightsEnabled(),
		Formats:         sheet.Extensions(),
		MaxFileSize:     s.cfg.Upload.MaxFileSize,
	})
}
