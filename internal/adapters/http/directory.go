package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagemarket/marketplace/internal/application"
)

// DirectoryHandler serves both the seller-server and the user-server; the
// two differ only in the resource path they mount under.
type DirectoryHandler struct {
	service *application.DirectoryService
}

func NewDirectoryHandler(service *application.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

func NewDirectoryRouter(logger *slog.Logger, handler *DirectoryHandler, resource string) http.Handler {
	r := newRouter(logger)
	r.Route("/"+resource, func(r chi.Router) {
		r.Get("/", handler.listEntries)
		r.Get("/{username}", handler.getEntry)
	})
	return r
}

func (h *DirectoryHandler) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListEntries(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *DirectoryHandler) getEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetEntry(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
