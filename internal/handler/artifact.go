package handler

import (
	"net/http"

	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/service"
	"github.com/sotfmods/api/internal/ui"
)

type artifactHandler struct {
	artifactService *service.ArtifactService
}

func NewArtifactHandler(artifactService *service.ArtifactService) *artifactHandler {
	return &artifactHandler{artifactService: artifactService}
}

func (h *artifactHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var in service.ArtifactInput
	if err := decodeJSON(w, r, &in); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	_, err := h.artifactService.Upload(ctxkeys.User(r.Context()), in)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, true)
}

// Diagram writes the stored document as is, without the envelope.
func (h *artifactHandler) Diagram(w http.ResponseWriter, r *http.Request) {
	diagram, err := h.artifactService.Diagram(r.PathValue("artifactID"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(diagram))
}
