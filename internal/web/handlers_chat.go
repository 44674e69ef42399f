package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/sheetprep/internal/core"
)

// chatRequest is the JSON form of POST /api/chat. Multipart requests carry
// a "file" and a "question" field instead.
type chatRequest struct {
	RunID    string `json:"run_id" validate:"required_without=FileName,max=64"`
	FileName string `json:"file_name" validate:"omitempty,max=255"`
	Question string `json:"question" validate:"required,max=2000"`
}

// handleChat answers a question about a cleaned file, identified by run ID,
// by output file name, or uploaded alongside the question.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeChat(w, r)
	if err != nil {
		var verrs validator.ValidationErrors
		var bad badRequest
		switch {
		case errors.As(err, &verrs):
			s.respondBadRequest(w, r, validationMessage(verrs))
			return
		case errors.As(err, &bad):
			s.respondBadRequest(w, r, bad)
			return
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Chat(requestContext(r), req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondOK(w, r, "", res)
}

func (s *Server) decodeChat(w http.ResponseWriter, r *http.Request) (core.ChatRequest, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		up, err := s.readUpload(w, r)
		if err != nil {
			return core.ChatRequest{}, err
		}
		return core.ChatRequest{Upload: &up, Question: r.FormValue("question")}, nil
	}

	var body chatRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		return core.ChatRequest{}, badRequest{errors.New("request body must be JSON")}
	}
	if err := s.validate.Struct(body); err != nil {
		return core.ChatRequest{}, err
	}
	return core.ChatRequest{
		RunID:    body.RunID,
		FileName: body.FileName,
		Question: body.Question,
	}, nil
}

// badRequest marks a decoding failure whose message is safe to show.
type badRequest struct{ error }

// validationMessage names the first failing field.
func validationMessage(errs validator.ValidationErrors) error {
	fe := errs[0]
	switch fe.Tag() {
	case "required", "required_without":
		return errors.New(fe.Field() + " is required")
	case "max":
		return errors.New(fe.Field() + " is too long")
	default:
		return errors.New(fe.Field() + " is invalid")
	}
}
