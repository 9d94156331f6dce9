package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"worktrack/internal/models"
	"worktrack/internal/repository"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const sessionName = "worktrack_session"

var (
	// ErrInvalidCredentials is returned when the provided credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated is returned when no valid login session is present.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Manager owns password verification and the login-session cookie store.
type Manager struct {
	users  *repository.UserRepository
	store  *sessions.CookieStore
	logger *zap.Logger
}

// NewManager creates an auth manager. secret signs the session cookies;
// cookieTTL bounds how long a login lasts.
func NewManager(users *repository.UserRepository, secret string, cookieTTL time.Duration, logger *zap.Logger) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{
		users:  users,
		store:  store,
		logger: logger,
	}
}

// Login verifies credentials and establishes a login-session cookie.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, username, password string) (*models.User, error) {
	user, err := m.users.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !CheckPassword(user.Password, password) {
		m.logger.Warn("Login rejected", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	session, err := m.store.Get(r, sessionName)
	if err != nil {
		// A stale or tampered cookie yields a fresh session; Get already
		// returned one we can use.
		m.logger.Debug("Replacing undecodable login cookie", zap.Error(err))
	}
	session.Values["userID"] = user.ID
	if err := session.Save(r, w); err != nil {
		return nil, fmt.Errorf("failed to save login session: %w", err)
	}

	m.logger.Info("User logged in",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return user, nil
}

// Logout clears the login-session cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	delete(session.Values, "userID")
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear login session: %w", err)
	}
	return nil
}

// CurrentUser resolves the request's login cookie to a user record.
func (m *Manager) CurrentUser(r *http.Request) (*models.User, error) {
	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	rawID, ok := session.Values["userID"]
	if !ok {
		return nil, ErrNotAuthenticated
	}
	userID, ok := rawID.(int64)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	user, err := m.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

type contextKey struct{}

// UserFromContext returns the authenticated user placed by RequireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	return user, ok
}

func contextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}
