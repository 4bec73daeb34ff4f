package handlers

import (
	"encoding/json"
	"net/http"

	"kyschat/internal/contextutil"
	"kyschat/internal/service"
)

// AuthHandler handles staff login and logout.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid login body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		handleServiceError(w, ctx, err, "Login failed")
		return
	}

	writeJSON(ctx, w, http.StatusOK, session)
}

// Logout ends the session of the bearer token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := BearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	if err := h.authService.Logout(ctx, token); err != nil {
		handleServiceError(w, ctx, err, "Logout failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
