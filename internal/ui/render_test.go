package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sotfmods/api/internal/apperr"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.Invalid("name", "Name is required."), http.StatusBadRequest, CodeValidation},
		{"wrapped validation", fmt.Errorf("publish: %w", apperr.Invalid("name", "x")), http.StatusBadRequest, CodeValidation},
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", fmt.Errorf("release: %w", apperr.ErrForbidden), http.StatusForbidden, CodeForbidden},
		{"not found", apperr.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"upload", fmt.Errorf("%w: bucket gone", apperr.ErrUpload), http.StatusInternalServerError, CodeUpload},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Classify(tt.err)
			if status != tt.wantStatus || body.Code != tt.wantCode {
				t.Errorf("Classify() = %d %s, want %d %s", status, body.Code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/mods/publish", nil)

	var c apperr.Collector
	c.Add("name", "Name is required.")
	c.Add("description", "Description is required.")
	RenderError(w, r, c.Err())

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != CodeValidation || len(body.Fields) != 2 || body.Fields[1].Field != "description" {
		t.Errorf("body = %+v", body)
	}
}

func TestRenderMeta(t *testing.T) {
	w := httptest.NewRecorder()
	RenderMeta(w, httptest.NewRequest(http.MethodGet, "/api/mods", nil), []string{"a"}, map[string]int{"total": 1})

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != true || got["meta"] == nil {
		t.Errorf("envelope = %v", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}
