// Package handler adapts HTTP requests to the services and renders their JSON results.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/sotfmods/api/internal/apperr"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = 110 << 20
)

var errInvalidBody = apperr.Invalid("body", "Invalid request body.")

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	err := dec.Decode(v)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Invalid("body", "Request body is too large.")
		}
		return errInvalidBody
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryBool(r *http.Request, key string, def bool) bool {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// formFile returns the uploaded file under field. The caller closes it.
func formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, apperr.Invalid(field, "File is too large.")
		}
		return nil, nil, apperr.Invalid(field, "Failed to parse form.")
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, apperr.Invalid(field, "No file uploaded.")
	}
	return file, header, nil
}

func closeFile(file multipart.File) {
	closeErr := file.Close()
	if closeErr != nil {
		slog.Error("failed to close file", "error", closeErr)
	}
}
