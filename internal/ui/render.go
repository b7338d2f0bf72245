// Package ui writes the JSON envelopes every API response uses.
package ui

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sotfmods/api/internal/apperr"
)

// Envelope wraps successful responses.
type Envelope struct {
	Status bool `json:"status"`
	Data   any  `json:"data"`
	Meta   any  `json:"meta,omitempty"`
}

// ErrorBody is written for every failed request.
type ErrorBody struct {
	Code   string              `json:"code"`
	Error  string              `json:"error"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED_ERROR"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeUpload          = "UPLOAD_ERROR"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

func Render(w http.ResponseWriter, r *http.Request, data any) {
	RenderStatus(w, r, http.StatusOK, Envelope{Status: true, Data: data})
}

func RenderMeta(w http.ResponseWriter, r *http.Request, data, meta any) {
	RenderStatus(w, r, http.StatusOK, Envelope{Status: true, Data: data, Meta: meta})
}

// RenderStatus writes body as JSON without wrapping it.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("render failed", "error", err, "path", r.URL.Path)
	}
}

// RenderError maps err onto a status code and error body. Unexpected errors are
// logged and hidden from the client.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := Classify(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	}
	RenderStatus(w, r, status, body)
}

// Classify returns the status and body for err.
func Classify(err error) (int, ErrorBody) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrorBody{Code: CodeValidation, Error: ve.Error(), Fields: ve.Fields}
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorBody{Code: CodeUnauthorized, Error: apperr.ErrUnauthorized.Error()}
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, ErrorBody{Code: CodeForbidden, Error: "You do not have permission to do this."}
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Code: CodeNotFound, Error: "Not found."}
	case errors.Is(err, apperr.ErrUpload):
		return http.StatusInternalServerError, ErrorBody{Code: CodeUpload, Error: apperr.ErrUpload.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: CodeInternal, Error: "Internal server error."}
	}
}
