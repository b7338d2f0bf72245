package handler

import (
	"net/http"
	"time"

	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/service"
	"github.com/sotfmods/api/internal/ui"
)

type fileHandler struct {
	fileService     *service.FileService
	categoryService *service.CategoryService
}

func NewFileHandler(fileService *service.FileService, categoryService *service.CategoryService) *fileHandler {
	return &fileHandler{fileService: fileService, categoryService: categoryService}
}

// PresignedURL hands out a URL the client PUTs the file to directly.
func (h *fileHandler) PresignedURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
		ExpiresIn   int    `json:"expiresIn"` // seconds
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	upload, err := h.fileService.PresignUpload(r.Context(), ctxkeys.User(r.Context()).ID, req.Filename, req.ContentType, time.Duration(req.ExpiresIn)*time.Second)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, upload)
}

func (h *fileHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.URL.Query().Get("type"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, categories)
}
