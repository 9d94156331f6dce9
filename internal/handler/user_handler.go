package handler

import (
	"encoding/json"
	"net/http"

	"worktrack/internal/auth"
	"worktrack/internal/models"
	"worktrack/internal/repository"
	"worktrack/internal/service"

	"go.uber.org/zap"
)

// UserHandler serves the user administration and analytics routes.
type UserHandler struct {
	users     *repository.UserRepository
	sessions  *service.SessionService
	analytics *service.AnalyticsService
	logger    *zap.Logger
}

func NewUserHandler(
	users *repository.UserRepository,
	sessions *service.SessionService,
	analytics *service.AnalyticsService,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		users:     users,
		sessions:  sessions,
		analytics: analytics,
		logger:    logger,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		writeStoreError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Create provisions an account with an explicit role. Admin only.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.users.Create(r.Context(), req.Username, hash, req.Name, models.ParseRole(req.Role))
	if err != nil {
		writeStoreError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update patches a user's profile. Only admins may change roles; a
// non-admin editing their own account gets the role field ignored.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var role *models.Role
	if req.Role != nil && caller.Role.IsAdmin() {
		parsed := models.ParseRole(*req.Role)
		role = &parsed
	}

	user, err := h.users.Update(r.Context(), userID, req.Name, role)
	if err != nil {
		writeStoreError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UserSessions returns any user's sessions. Admin only.
func (h *UserHandler) UserSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	limit, offset := pagination(r)
	sessions, err := h.sessions.ListForUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeStoreError(w, err, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *UserHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context())
	if err != nil {
		h.logger.Error("Failed to build analytics summary", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
