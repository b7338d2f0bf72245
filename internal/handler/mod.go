package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/middleware"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/service"
	"github.com/sotfmods/api/internal/ui"
)

type modHandler struct {
	modService *service.ModService
}

func NewModHandler(modService *service.ModService) *modHandler {
	return &modHandler{modService: modService}
}

func (h *modHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var in service.PublishInput
	if err := decodeJSON(w, r, &in); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	mod, err := h.modService.Publish(r.Context(), ctxkeys.User(r.Context()), in)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.RenderStatus(w, r, http.StatusCreated, ui.Envelope{Status: true, Data: mod})
}

func (h *modHandler) Release(w http.ResponseWriter, r *http.Request) {
	var in service.ReleaseInput
	if err := decodeJSON(w, r, &in); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	version, err := h.modService.Release(r.Context(), ctxkeys.User(r.Context()), r.PathValue("modID"), in)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.RenderStatus(w, r, http.StatusCreated, ui.Envelope{Status: true, Data: version})
}

func (h *modHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateDetailsInput
	if err := decodeJSON(w, r, &in); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	mod, err := h.modService.UpdateDetails(r.Context(), ctxkeys.User(r.Context()), r.PathValue("modID"), in)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, mod)
}

func (h *modHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setApproved(w, r, true)
}

func (h *modHandler) Unapprove(w http.ResponseWriter, r *http.Request) {
	h.setApproved(w, r, false)
}

func (h *modHandler) setApproved(w http.ResponseWriter, r *http.Request, approved bool) {
	modID := r.PathValue("modID")
	err := h.modService.SetApproved(ctxkeys.User(r.Context()), modID, approved)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, map[string]any{"mod_id": modID, "isApproved": approved})
}

func (h *modHandler) Details(w http.ResponseWriter, r *http.Request) {
	details, err := h.modService.Details(r.PathValue("modID"), ctxkeys.User(r.Context()))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, details)
}

func (h *modHandler) BySlugs(w http.ResponseWriter, r *http.Request) {
	details, err := h.modService.BySlugs(r.PathValue("userSlug"), r.PathValue("modSlug"), ctxkeys.User(r.Context()))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, details)
}

func (h *modHandler) Find(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	modID, err := h.modService.Find(q.Get("userSlug"), q.Get("mod_slug"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, map[string]string{"mod_id": modID})
}

func (h *modHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, meta, err := h.modService.List(model.ModFilter{
		Type:              q.Get("type"),
		Search:            q.Get("search"),
		UserSlug:          q.Get("userSlug"),
		UserSlugFavorites: q.Get("userSlugFavorites"),
		Approved:          queryBool(r, "approved", true),
		NSFW:              queryBool(r, "nsfw", false),
		Category:          q.Get("category"),
		OrderBy:           q.Get("orderby"),
		Page:              queryInt(r, "page", 1),
		Limit:             queryInt(r, "limit", 0),
	})
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.RenderMeta(w, r, items, meta)
}

func (h *modHandler) Featured(w http.ResponseWriter, r *http.Request) {
	h.featured(w, r, model.ModTypeMod)
}

func (h *modHandler) FeaturedBuilds(w http.ResponseWriter, r *http.Request) {
	h.featured(w, r, model.ModTypeBuild)
}

func (h *modHandler) featured(w http.ResponseWriter, r *http.Request, modType string) {
	items, err := h.modService.Featured(modType)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, items)
}

func (h *modHandler) Check(w http.ResponseWriter, r *http.Request) {
	check, err := h.modService.Check(r.PathValue("modID"), r.URL.Query().Get("version"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, check)
}

// Download streams the archive of a version and records the download.
func (h *modHandler) Download(w http.ResponseWriter, r *http.Request) {
	dl, err := h.modService.Download(r.Context(), r.PathValue("modID"), r.PathValue("version"), middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	w.Header().Set("Cache-Control", "no-store")
	_, err = io.Copy(w, dl.Body)
	if err != nil {
		slog.Warn("download interrupted", "error", err, "mod_id", r.PathValue("modID"))
	}
}

func (h *modHandler) DownloadStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.modService.DownloadStats(r.PathValue("modID"), r.URL.Query().Get("period"), time.Now())
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, stats)
}

func (h *modHandler) SiteStats(w http.ResponseWriter, r *http.Request) {
	h.siteStats(w, r, model.ModTypeMod)
}

func (h *modHandler) BuildStats(w http.ResponseWriter, r *http.Request) {
	h.siteStats(w, r, model.ModTypeBuild)
}

func (h *modHandler) siteStats(w http.ResponseWriter, r *http.Request, modType string) {
	stats, err := h.modService.Stats(modType)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, stats)
}
