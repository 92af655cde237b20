package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/vocalcollab/internal/service"
)

// maxAuthBytes bounds credential request bodies.
const maxAuthBytes = 16 << 10

// AuthHandler serves registration and token endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account
//   - HandleToken    → exchange username/password for an access/refresh pair
//   - HandleRefresh  → exchange a refresh token for a new access token
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type RegisterResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// HandleRegister creates an account. The response deliberately echoes
// nothing about the new user.
//
// HTTP: POST /register/
// REQUEST BODY: {"username": "alice", "password": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := readRequest(w, r, maxAuthBytes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.auth.Register(r.Context(), req.get("username"), req.get("password")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{Message: "User created successfully"})
}

// HandleToken logs in.
//
// HTTP: POST /token/ (also POST /login/)
// RESPONSE: {"access": "<jwt>", "refresh": "<jwt>"}
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	req, err := readRequest(w, r, maxAuthBytes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	pair, err := h.auth.Login(r.Context(), req.get("username"), req.get("password"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}

// HandleRefresh issues a new access token.
//
// HTTP: POST /token/refresh/
// REQUEST BODY: {"refresh": "<jwt>"}
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	req, err := readRequest(w, r, maxAuthBytes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	access, err := h.auth.Refresh(r.Context(), req.get("refresh"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Access: access})
}
