package auth

import (
	"encoding/json"
	"net/http"
	"strconv"

	"worktrack/internal/models"

	"github.com/gorilla/mux"
)

// RequireAuth rejects unauthenticated requests and places the user on the
// request context for downstream handlers.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.CurrentUser(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized: Login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
	})
}

// RequireRole allows only the listed roles. It must run inside RequireAuth.
func (m *Manager) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized: Login required")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "Forbidden: Insufficient permissions")
		})
	}
}

// RequireSelfOrAdmin allows a user to reach their own resource, and admins
// to reach anyone's. param names the mux path variable holding the user id.
func (m *Manager) RequireSelfOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized: Login required")
				return
			}

			paramID, err := strconv.ParseInt(mux.Vars(r)[param], 10, 64)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "Invalid user ID")
				return
			}

			if user.ID == paramID || user.Role.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}
			writeJSONError(w, http.StatusForbidden, "Forbidden: You can only access your own data")
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
