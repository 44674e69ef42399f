package web

import (
	"net/http"

	"github.com/JonMunkholm/sheetprep/internal/web/views"
)

const (
	preprocessMessage = "Preprocessing completed successfully ✅"
	analyzeMessage    = "Analysis completed successfully ✅"
)

// handlePreprocess cleans and scores one uploaded spreadsheet.
func (s *Server) handlePreprocess(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Preprocess(requestContext(r), up)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		renderHTML(w, r, views.ResultCard(resultCard(up.FileName, res)))
		return
	}
	respondOK(w, r, preprocessMessage, res)
}

// handleAnalyze cleans an upload and adds charts and generated commentary.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Analyze(requestContext(r), up)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		card := resultCard(up.FileName, &res.PreprocessResult)
		card.Notes = append(card.Notes, views.Stat{Label: "Summary", Value: res.AISummary})
		for _, c := range res.Charts {
			card.Notes = append(card.Notes, views.Stat{Label: c.Title, Value: c.AIInsight})
		}
		card.Notes = append(card.Notes, views.Stat{Label: "Recommendations", Value: res.OverallRecommendations})
		renderHTML(w, r, views.ResultCard(card))
		return
	}
	respondOK(w, r, analyzeMessage, res)
}
