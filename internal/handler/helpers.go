package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"worktrack/internal/auth"
	"worktrack/internal/models"
	"worktrack/internal/repository"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeStoreError maps repository sentinels onto the HTTP codes the
// original API used: missing rows are 404, conflicts are 409.
func writeStoreError(w http.ResponseWriter, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, repository.ErrOpenSessionExists):
		writeError(w, http.StatusConflict, "An open session already exists")
	case errors.Is(err, repository.ErrSessionEnded):
		writeError(w, http.StatusConflict, "Session already ended")
	case errors.Is(err, repository.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, "Username already exists")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil
}

// requestUser returns the authenticated user. Routes behind RequireAuth
// always have one; the ok flag only guards misconfigured wiring.
func requestUser(r *http.Request) (*models.User, bool) {
	return auth.UserFromContext(r.Context())
}
