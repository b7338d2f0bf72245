package handler

import (
	"net/http"

	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/middleware"
	"github.com/sotfmods/api/internal/service"
	"github.com/sotfmods/api/internal/ui"
)

type engagementHandler struct {
	favoriteService *service.FavoriteService
	reviewService   *service.ReviewService
	commentService  *service.CommentService
}

func NewEngagementHandler(favoriteService *service.FavoriteService, reviewService *service.ReviewService, commentService *service.CommentService) *engagementHandler {
	return &engagementHandler{
		favoriteService: favoriteService,
		reviewService:   reviewService,
		commentService:  commentService,
	}
}

// ToggleFavorite flips the caller's favorite on the mod in the path.
func (h *engagementHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	favorite, err := h.favoriteService.Toggle(ctxkeys.User(r.Context()), r.PathValue("modID"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, map[string]bool{"isFavorite": favorite})
}

func (h *engagementHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModID    string `json:"modId"`
		Favorite bool   `json:"favorite"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	favorite, err := h.favoriteService.Set(ctxkeys.User(r.Context()), req.ModID, req.Favorite)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, map[string]bool{"isFavorite": favorite})
}

func (h *engagementHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	mods, err := h.favoriteService.ByUser(ctxkeys.User(r.Context()))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, mods)
}

func (h *engagementHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var in service.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	review, err := h.reviewService.Submit(ctxkeys.User(r.Context()), in)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, review)
}

func (h *engagementHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewService.ByMod(r.URL.Query().Get("modId"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, reviews)
}

func (h *engagementHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var in service.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	comment, err := h.commentService.Create(ctxkeys.User(r.Context()), in, middleware.ClientIP(r))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.RenderStatus(w, r, http.StatusCreated, ui.Envelope{Status: true, Data: comment})
}

func (h *engagementHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.ByMod(r.URL.Query().Get("mod_id"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, comments)
}
