package handler

import (
	"net/http"

	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/service"
	"github.com/sotfmods/api/internal/ui"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{authService: authService}
}

type sessionResponse struct {
	Token     string  `json:"token"`
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	ImageURL  *string `json:"imageUrl"`
	IsTrusted bool    `json:"isTrusted"`
}

func newSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		Slug:      s.User.Slug,
		Name:      s.User.Name,
		ImageURL:  s.User.ImageURL,
		IsTrusted: s.User.IsTrusted,
	}
}

type accountResponse struct {
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Email     string  `json:"email"`
	ImageURL  *string `json:"imageUrl"`
	IsTrusted bool    `json:"isTrusted"`
}

func newAccountResponse(u *model.User) accountResponse {
	return accountResponse{
		Name:      u.Name,
		Slug:      u.Slug,
		Email:     u.Email,
		ImageURL:  u.ImageURL,
		IsTrusted: u.IsTrusted,
	}
}

// Register creates the account and signs it in.
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	_, err := h.authService.Register(req.Name, req.Email, req.Password)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}

	session, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.RenderStatus(w, r, http.StatusCreated, ui.Envelope{Status: true, Data: newSessionResponse(session)})
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	session, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, newSessionResponse(session))
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.authService.Logout(ctxkeys.Token(r.Context()))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, "Logged out.")
}

func (h *authHandler) Check(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, newAccountResponse(ctxkeys.User(r.Context())))
}

// ForgotPassword answers the same way whether or not the email has an account.
func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	err := h.authService.ForgotPassword(req.Email)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, "If an account exists for this email, a reset link has been sent.")
}

func (h *authHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ui.RenderError(w, r, err)
		return
	}

	err := h.authService.ResetPassword(req.Token, req.Password, req.ConfirmPassword)
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, "Password has been reset.")
}
