package handler

import (
	"net/http"
	"time"

	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/service"
	"github.com/sotfmods/api/internal/ui"
)

type userHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *userHandler {
	return &userHandler{userService: userService}
}

type profileResponse struct {
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ImageURL  *string   `json:"imageUrl"`
	IsTrusted bool      `json:"isTrusted"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *userHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Profile(r.PathValue("userSlug"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, profileResponse{
		Name:      user.Name,
		Slug:      user.Slug,
		ImageURL:  user.ImageURL,
		IsTrusted: user.IsTrusted,
		CreatedAt: user.CreatedAt,
	})
}

func (h *userHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userService.Stats(r.PathValue("userSlug"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, stats)
}

func (h *userHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	file, header, err := formFile(w, r, "avatar")
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	defer closeFile(file)

	url, err := h.userService.UploadAvatar(r.Context(), user.ID, file, header)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, map[string]string{"imageUrl": url})
}
