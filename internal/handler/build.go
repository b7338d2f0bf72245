package handler

import (
	"net/http"

	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/service"
	"github.com/sotfmods/api/internal/ui"
)

type buildHandler struct {
	buildService *service.BuildService
}

func NewBuildHandler(buildService *service.BuildService) *buildHandler {
	return &buildHandler{buildService: buildService}
}

// Upload parses a build file for preview. Nothing is stored.
func (h *buildHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := formFile(w, r, "buildFile")
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	defer closeFile(file)

	preview, err := h.buildService.Preview(file, header)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, preview)
}

func (h *buildHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var in service.BuildPublishInput
	if err := decodeJSON(w, r, &in); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	build, err := h.buildService.Publish(r.Context(), ctxkeys.User(r.Context()), in)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.RenderStatus(w, r, http.StatusCreated, ui.Envelope{Status: true, Data: build})
}
