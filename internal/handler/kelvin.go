package handler

import (
	"net/http"

	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/service"
	"github.com/sotfmods/api/internal/ui"
)

type kelvinHandler struct {
	kelvinService *service.KelvinService
}

func NewKelvinHandler(kelvinService *service.KelvinService) *kelvinHandler {
	return &kelvinHandler{kelvinService: kelvinService}
}

// Prompt answers with "command|response" as plain text, which is what the game mod parses.
func (h *kelvinHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	answer, err := h.kelvinService.Prompt(r.Context(), q.Get("chat_id"), q.Get("text"), q.Get("context"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(answer))
}

func (h *kelvinHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := h.kelvinService.ClearHistory(r.URL.Query().Get("chat_id"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, map[string]int64{"deleted": n})
}

func (h *kelvinHandler) Chat(w http.ResponseWriter, r *http.Request) {
	messages, err := h.kelvinService.Chat(ctxkeys.User(r.Context()), r.URL.Query().Get("chat_id"))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, messages)
}

func (h *kelvinHandler) ChatIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.kelvinService.ChatIDs(ctxkeys.User(r.Context()))
	if err != nil {
		ui.RenderError(w, r, err)
		return
	}
	ui.Render(w, r, ids)
}
