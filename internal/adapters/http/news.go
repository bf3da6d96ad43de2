package http

import (
	"log/slog"
	"net/http"

	"github.com/pagemarket/marketplace/internal/application"
)

type NewsHandler struct {
	service *application.NewsService
}

func NewNewsHandler(service *application.NewsService) *NewsHandler {
	return &NewsHandler{service: service}
}

func NewNewsRouter(logger *slog.Logger, handler *NewsHandler) http.Handler {
	r := newRouter(logger)
	r.Get("/news", handler.listNews)
	return r
}

func (h *NewsHandler) listNews(w http.ResponseWriter, r *http.Request) {
	latest := r.URL.Query().Get("getLatest") == "true"
	entries, err := h.service.ListNews(r.Context(), latest)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
