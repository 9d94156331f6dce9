package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"worktrack/internal/models"
	"worktrack/internal/repository"

	"go.uber.org/zap"
)

// PlanningHandler serves the time block and daily goal routes. Ownership is
// enforced here: entries belonging to other users read as not found.
type PlanningHandler struct {
	blocks *repository.TimeBlockRepository
	goals  *repository.DailyGoalRepository
	logger *zap.Logger
}

func NewPlanningHandler(
	blocks *repository.TimeBlockRepository,
	goals *repository.DailyGoalRepository,
	logger *zap.Logger,
) *PlanningHandler {
	return &PlanningHandler{
		blocks: blocks,
		goals:  goals,
		logger: logger,
	}
}

func (h *PlanningHandler) ListTimeBlocks(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	blocks, err := h.blocks.GetByUserID(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list time blocks", zap.Error(err))
		writeStoreError(w, err, "Time block not found")
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (h *PlanningHandler) CreateTimeBlock(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateTimeBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		writeError(w, http.StatusBadRequest, "End time must be after start time")
		return
	}

	block, err := h.blocks.Create(r.Context(), user.ID, &req)
	if err != nil {
		writeStoreError(w, err, "Time block not found")
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (h *PlanningHandler) UpdateTimeBlock(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	blockID, ok := pathID(r, "blockId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid time block ID")
		return
	}
	if !h.ownsTimeBlock(w, r, user.ID, blockID) {
		return
	}

	var req models.UpdateTimeBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		writeError(w, http.StatusBadRequest, "End time must be after start time")
		return
	}

	block, err := h.blocks.Update(r.Context(), blockID, &req)
	if err != nil {
		writeStoreError(w, err, "Time block not found")
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (h *PlanningHandler) DeleteTimeBlock(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	blockID, ok := pathID(r, "blockId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid time block ID")
		return
	}
	if !h.ownsTimeBlock(w, r, user.ID, blockID) {
		return
	}

	if err := h.blocks.Delete(r.Context(), blockID); err != nil {
		writeStoreError(w, err, "Time block not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlanningHandler) ListDailyGoals(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	goals, err := h.goals.GetByUserID(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list daily goals", zap.Error(err))
		writeStoreError(w, err, "Daily goal not found")
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *PlanningHandler) CreateDailyGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateDailyGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	goal, err := h.goals.Create(r.Context(), user.ID, time.Now().UTC(), &req)
	if err != nil {
		writeStoreError(w, err, "Daily goal not found")
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *PlanningHandler) UpdateDailyGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	goalID, ok := pathID(r, "goalId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid daily goal ID")
		return
	}
	if !h.ownsDailyGoal(w, r, user.ID, goalID) {
		return
	}

	var req models.UpdateDailyGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.goals.Update(r.Context(), goalID, &req)
	if err != nil {
		writeStoreError(w, err, "Daily goal not found")
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *PlanningHandler) DeleteDailyGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	goalID, ok := pathID(r, "goalId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid daily goal ID")
		return
	}
	if !h.ownsDailyGoal(w, r, user.ID, goalID) {
		return
	}

	if err := h.goals.Delete(r.Context(), goalID); err != nil {
		writeStoreError(w, err, "Daily goal not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownsTimeBlock writes the error response itself when the check fails.
func (h *PlanningHandler) ownsTimeBlock(w http.ResponseWriter, r *http.Request, userID, blockID int64) bool {
	block, err := h.blocks.GetByID(r.Context(), blockID)
	if err != nil {
		writeStoreError(w, err, "Time block not found")
		return false
	}
	if block.UserID != userID {
		writeError(w, http.StatusNotFound, "Time block not found")
		return false
	}
	return true
}

func (h *PlanningHandler) ownsDailyGoal(w http.ResponseWriter, r *http.Request, userID, goalID int64) bool {
	goal, err := h.goals.GetByID(r.Context(), goalID)
	if err != nil {
		writeStoreError(w, err, "Daily goal not found")
		return false
	}
	if goal.UserID != userID {
		writeError(w, http.StatusNotFound, "Daily goal not found")
		return false
	}
	return true
}
