package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"worktrack/internal/auth"
	"worktrack/internal/models"
	"worktrack/internal/repository"

	"go.uber.org/zap"
)

// AuthHandler serves login, logout and self-registration.
type AuthHandler struct {
	manager *auth.Manager
	users   *repository.UserRepository
	logger  *zap.Logger
}

func NewAuthHandler(manager *auth.Manager, users *repository.UserRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		manager: manager,
		users:   users,
		logger:  logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.manager.Login(w, r, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Logout(w, r); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Register creates a regular user account and logs it in. Role is not
// honored here; privileged accounts are created by admins.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Username, password and name are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.users.Create(r.Context(), req.Username, hash, req.Name, models.RoleUser)
	if err != nil {
		writeStoreError(w, err, "User not found")
		return
	}

	if _, err := h.manager.Login(w, r, req.Username, req.Password); err != nil {
		h.logger.Error("Post-registration login failed", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, user)
}
