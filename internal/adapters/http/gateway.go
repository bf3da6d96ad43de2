package http

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagemarket/marketplace/internal/application"
)

// GatewayHandler exposes the account endpoints of the API gateway. Register
// and login hand the session token back in the Authorization header of an
// otherwise empty 204 response.
type GatewayHandler struct {
	service *application.AuthService
}

func NewGatewayHandler(service *application.AuthService) *GatewayHandler {
	return &GatewayHandler{service: service}
}

func NewGatewayRouter(logger *slog.Logger, handler *GatewayHandler) http.Handler {
	r := newRouter(logger)
	r.Post("/register", handler.register)
	r.Post("/login", handler.login)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(handler.service))
		r.Get("/authUser", handler.authUser)
		r.Post("/logout", handler.logout)
	})
	return r
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// decodeCredentials accepts either a JSON body or form fields, whichever the
// client sent.
func decodeCredentials(r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return credentialsRequest{}, false
		}
		return req, true
	}
	if err := r.ParseForm(); err != nil {
		return credentialsRequest{}, false
	}
	req.Username = r.PostFormValue("username")
	req.Password = r.PostFormValue("password")
	req.Name = r.PostFormValue("name")
	req.Email = r.PostFormValue("email")
	return req, true
}

func (h *GatewayHandler) register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	token, err := h.service.Register(r.Context(), req.Username, req.Password, req.Name, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *GatewayHandler) login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *GatewayHandler) authUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":  claims.Username,
		"roles": claims.Roles,
	})
}

func (h *GatewayHandler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	if err := h.service.Logout(r.Context(), claims); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
