package router

import (
	"net/http"

	"worktrack/internal/auth"
	"worktrack/internal/handler"
	"worktrack/internal/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Sessions *handler.SessionHandler
	Users    *handler.UserHandler
	Planning *handler.PlanningHandler
}

func New(h Handlers, manager *auth.Manager, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/logout", h.Auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)

	// Everything below requires a logged-in user.
	authed := api.NewRoute().Subrouter()
	authed.Use(manager.RequireAuth)

	authed.HandleFunc("/user", h.Users.Me).Methods(http.MethodGet)

	authed.HandleFunc("/sessions", h.Sessions.List).Methods(http.MethodGet)
	authed.HandleFunc("/sessions/start", h.Sessions.Start).Methods(http.MethodPost)
	authed.HandleFunc("/sessions/{sessionId:[0-9]+}", h.Sessions.Get).Methods(http.MethodGet)
	authed.HandleFunc("/sessions/{sessionId:[0-9]+}/end", h.Sessions.End).Methods(http.MethodPost)
	authed.HandleFunc("/sessions/{sessionId:[0-9]+}/activity", h.Sessions.ActivityLogs).Methods(http.MethodGet)
	authed.HandleFunc("/sessions/{sessionId:[0-9]+}/activity", h.Sessions.LogActivity).Methods(http.MethodPost)

	authed.HandleFunc("/time-blocks", h.Planning.ListTimeBlocks).Methods(http.MethodGet)
	authed.HandleFunc("/time-blocks", h.Planning.CreateTimeBlock).Methods(http.MethodPost)
	authed.HandleFunc("/time-blocks/{blockId:[0-9]+}", h.Planning.UpdateTimeBlock).Methods(http.MethodPatch)
	authed.HandleFunc("/time-blocks/{blockId:[0-9]+}", h.Planning.DeleteTimeBlock).Methods(http.MethodDelete)

	authed.HandleFunc("/daily-goals", h.Planning.ListDailyGoals).Methods(http.MethodGet)
	authed.HandleFunc("/daily-goals", h.Planning.CreateDailyGoal).Methods(http.MethodPost)
	authed.HandleFunc("/daily-goals/{goalId:[0-9]+}", h.Planning.UpdateDailyGoal).Methods(http.MethodPatch)
	authed.HandleFunc("/daily-goals/{goalId:[0-9]+}", h.Planning.DeleteDailyGoal).Methods(http.MethodDelete)

	// Per-user profile routes; users reach their own, admins reach anyone's.
	profile := api.NewRoute().Subrouter()
	profile.Use(manager.RequireAuth, manager.RequireSelfOrAdmin("userId"))
	profile.HandleFunc("/users/{userId:[0-9]+}", h.Users.Get).Methods(http.MethodGet)
	profile.HandleFunc("/users/{userId:[0-9]+}", h.Users.Update).Methods(http.MethodPatch)

	// Registered before the admin subrouter so managers can reach it.
	analytics := api.PathPrefix("/admin/analytics").Subrouter()
	analytics.Use(manager.RequireAuth, manager.RequireRole(models.RoleAdmin, models.RoleManager))
	analytics.HandleFunc("", h.Users.Analytics).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(manager.RequireAuth, manager.RequireRole(models.RoleAdmin))
	admin.HandleFunc("/users", h.Users.List).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.Users.Create).Methods(http.MethodPost)
	admin.HandleFunc("/users/{userId:[0-9]+}/sessions", h.Users.UserSessions).Methods(http.MethodGet)

	// Logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logger.Info("HTTP request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("remote_addr", req.RemoteAddr),
		)
		r.ServeHTTP(w, req)
	})
}
