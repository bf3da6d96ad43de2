package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagemarket/marketplace/internal/application"
	"github.com/pagemarket/marketplace/internal/schema"
)

type SaleHandler struct {
	service *application.SaleService
}

func NewSaleHandler(service *application.SaleService) *SaleHandler {
	return &SaleHandler{service: service}
}

func NewSaleRouter(logger *slog.Logger, handler *SaleHandler, validator TokenValidator) http.Handler {
	r := newRouter(logger)
	r.Route("/sales", func(r chi.Router) {
		r.Get("/", handler.listSales)
		r.Get("/{id}", handler.getSale)
		r.Get("/books/{id}", handler.listSalesForBook)
		r.Get("/sellers/{username}", handler.listSalesForSeller)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(validator))
			r.Post("/", handler.createSale)
			r.Patch("/{id}", handler.updateSale)
			r.Delete("/{id}", handler.deleteSale)
		})
	})
	return r
}

func (h *SaleHandler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.ListSales(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *SaleHandler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid sale id")
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) listSalesForBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid book id")
		return
	}
	sales, err := h.service.ListSalesForBook(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *SaleHandler) listSalesForSeller(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.ListSalesForSeller(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *SaleHandler) createSale(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var dto schema.SaleDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	created, err := h.service.CreateSale(r.Context(), claims.Username, dto)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *SaleHandler) updateSale(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	id, okID := pathID(r)
	if !okID {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid sale id")
		return
	}
	var dto schema.SaleDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	if err := h.service.UpdateSale(r.Context(), claims.Username, id, dto); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SaleHandler) deleteSale(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	id, okID := pathID(r)
	if !okID {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid sale id")
		return
	}
	if err := h.service.DeleteSale(r.Context(), claims.Username, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
