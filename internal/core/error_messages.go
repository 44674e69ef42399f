package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid file type (extension not .xlsx, .xls, .xlsm or .csv)
//	FILE003 - No file in the request
//	FILE004 - Empty file: no rows or no columns
//	FILE005 - Output file not found (expired or never written)
//	FILE006 - Invalid download file name
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - Spreadsheet could not be read
//	PARSE002 - Encoding error
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Too many concurrent runs
//	RUN002 - Run not found
//	RUN003 - Request cancelled
//	RUN004 - Request timed out
//
// # AI Errors (AI001-AI099)
//
//	AI001 - AI features not configured
//	AI002 - AI returned no text
//
// # Chat Errors (CHAT001)
//
//	CHAT001 - Question missing
//
// # Storage Errors (STORE001-STORE099)
//
//	STORE001 - Run history database unreachable
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default (ERR000)
//
// Sentinel errors are matched first with errors.Is / errors.As. Anything
// else falls back to case-insensitive substring patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/sheetprep/internal/cleaning"
	"github.com/JonMunkholm/sheetprep/internal/insight"
	"github.com/JonMunkholm/sheetprep/internal/sheet"
	"github.com/JonMunkholm/sheetprep/internal/store"
)

// UserMessage is an error explained for the person who uploaded the file.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Remove unused sheets or split the file",
		Code:    "FILE001",
	}
	msgInvalidType = UserMessage{
		Message: "File must be an Excel file (.xlsx, .xls)",
		Action:  "Upload an .xlsx, .xls, .xlsm or .csv file",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a spreadsheet to upload",
		Code:    "FILE003",
	}
	msgEmptyFile = UserMessage{
		Message: "Uploaded Excel file is empty",
		Action:  "Upload a sheet with a header row and at least one data row",
		Code:    "FILE004",
	}
	msgFileNotFound = UserMessage{
		Message: "File not found",
		Action:  "Processed files expire; upload the spreadsheet again",
		Code:    "FILE005",
	}
	msgInvalidName = UserMessage{
		Message: "Invalid filename",
		Action:  "Use the download link returned by the upload",
		Code:    "FILE006",
	}
	msgParse = UserMessage{
		Message: "The spreadsheet could not be read",
		Action:  "Open the file in Excel, save it as .xlsx and upload again",
		Code:    "PARSE001",
	}
	msgTooManyRuns = UserMessage{
		Message: "System is busy processing other files",
		Action:  "Please wait a moment and try again",
		Code:    "RUN001",
	}
	msgRunNotFound = UserMessage{
		Message: "Run not found",
		Action:  "The run may have expired. Upload the file again",
		Code:    "RUN002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "RUN003",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "RUN004",
	}
	msgAIDisabled = UserMessage{
		Message: "AI features are not configured",
		Action:  "Set GEMINI_API_KEY to enable summaries and chat",
		Code:    "AI001",
	}
	msgNoQuestion = UserMessage{
		Message: "Please ask a question about the data",
		Action:  "Type a question and send it again",
		Code:    "CHAT001",
	}
	msgAIEmpty = UserMessage{
		Message: "The AI model returned no answer",
		Action:  "Rephrase the question and try again",
		Code:    "AI002",
	}
)

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrInvalidFileType, msgInvalidType},
	{sheet.ErrUnsupportedFormat, msgInvalidType},
	{ErrNoFile, msgNoFile},
	{cleaning.ErrEmptyInput, msgEmptyFile},
	{ErrRunNotFound, msgRunNotFound},
	{ErrTooManyRuns, msgTooManyRuns},
	{store.ErrInvalidName, msgInvalidName},
	{store.ErrNotFound, msgFileNotFound},
	{insight.ErrDisabled, msgAIDisabled},
	{insight.ErrEmptyResponse, msgAIEmpty},
	{ErrNoQuestion, msgNoQuestion},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file with UTF-8 encoding",
			Code:    "PARSE002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Run history is temporarily unavailable",
			Action:  "Please try again in a few moments",
			Code:    "STORE001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{pattern: "timeout", msg: msgTimeout},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message. Unknown
// errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	var perr *sheet.ParseError
	if errors.As(err, &perr) {
		return msgParse
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
