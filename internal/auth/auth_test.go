package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"worktrack/internal/database"
	"worktrack/internal/models"
	"worktrack/internal/repository"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong password"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "anything"))
}

func newTestManager(t *testing.T) (*Manager, *repository.UserRepository) {
	t.Helper()
	db, err := database.New(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := repository.NewUserRepository(db.DB)
	return NewManager(users, "test-secret", 7*24*time.Hour, zap.NewNop()), users
}

func createUser(t *testing.T, users *repository.UserRepository, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	user, err := users.Create(context.Background(), username, hash, "Test User", role)
	require.NoError(t, err)
	return user
}

func login(t *testing.T, m *Manager, username, password string) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	rec := httptest.NewRecorder()
	_, err := m.Login(rec, req, username, password)
	require.NoError(t, err)
	return rec.Result().Cookies()
}

func TestLogin_SetsCookieResolvableToUser(t *testing.T) {
	m, users := newTestManager(t)
	created := createUser(t, users, "alice", "secret123", models.RoleUser)

	cookies := login(t, m, "alice", "secret123")
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	user, err := m.CurrentUser(req)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	m, users := newTestManager(t)
	createUser(t, users, "alice", "secret123", models.RoleUser)

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	_, err := m.Login(httptest.NewRecorder(), req, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(httptest.NewRecorder(), req, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCurrentUser_NoCookie(t *testing.T) {
	m, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := m.CurrentUser(req)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRequireAuth(t *testing.T) {
	m, users := newTestManager(t)
	createUser(t, users, "alice", "secret123", models.RoleUser)

	var seen *models.User
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Without a cookie: 401, inner handler untouched.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)

	// With a valid login cookie: user lands on the context.
	cookies := login(t, m, "alice", "secret123")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.Username)
}

func TestRequireRole(t *testing.T) {
	m, users := newTestManager(t)
	createUser(t, users, "admin", "secret123", models.RoleAdmin)
	createUser(t, users, "worker", "secret123", models.RoleUser)

	handler := m.RequireAuth(m.RequireRole(models.RoleAdmin, models.RoleManager)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))

	get := func(cookies []*http.Cookie) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get(login(t, m, "admin", "secret123")))
	assert.Equal(t, http.StatusForbidden, get(login(t, m, "worker", "secret123")))
}

func TestRequireSelfOrAdmin(t *testing.T) {
	m, users := newTestManager(t)
	admin := createUser(t, users, "admin", "secret123", models.RoleAdmin)
	worker := createUser(t, users, "worker", "secret123", models.RoleUser)

	r := mux.NewRouter()
	r.Handle("/api/users/{userId}", m.RequireAuth(m.RequireSelfOrAdmin("userId")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))).Methods("GET")

	get := func(cookies []*http.Cookie, path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	workerCookies := login(t, m, "worker", "secret123")
	adminCookies := login(t, m, "admin", "secret123")

	selfPath := "/api/users/" + itoa(worker.ID)
	adminPath := "/api/users/" + itoa(admin.ID)

	assert.Equal(t, http.StatusOK, get(workerCookies, selfPath))
	assert.Equal(t, http.StatusForbidden, get(workerCookies, adminPath))
	assert.Equal(t, http.StatusOK, get(adminCookies, selfPath))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
