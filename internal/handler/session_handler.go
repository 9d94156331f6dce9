package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"worktrack/internal/models"
	"worktrack/internal/service"

	"go.uber.org/zap"
)

const defaultSessionPageSize = 50

// SessionHandler serves the session lifecycle and activity log routes.
type SessionHandler struct {
	sessions *service.SessionService
	logger   *zap.Logger
}

func NewSessionHandler(sessions *service.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, offset := pagination(r)
	sessions, err := h.sessions.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list sessions", zap.Error(err))
		writeStoreError(w, err, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessionID, ok := pathID(r, "sessionId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := h.sessions.Get(r.Context(), user.ID, sessionID)
	if err != nil {
		writeStoreError(w, err, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	session, err := h.sessions.Start(r.Context(), user.ID)
	if err != nil {
		writeStoreError(w, err, "Session not found")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessionID, ok := pathID(r, "sessionId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var req models.EndSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ActiveDuration < 0 {
		writeError(w, http.StatusBadRequest, "Active duration must not be negative")
		return
	}

	session, err := h.sessions.End(r.Context(), user.ID, sessionID, req.ActiveDuration)
	if err != nil {
		writeStoreError(w, err, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessionID, ok := pathID(r, "sessionId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var req models.CreateActivityLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if req.Type == "" {
		req.Type = "info"
	}

	entry, err := h.sessions.LogActivity(r.Context(), user.ID, sessionID, req.Message, req.Type)
	if err != nil {
		writeStoreError(w, err, "Session not found")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *SessionHandler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessionID, ok := pathID(r, "sessionId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	logs, err := h.sessions.ActivityLogs(r.Context(), user.ID, sessionID)
	if err != nil {
		writeStoreError(w, err, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultSessionPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
