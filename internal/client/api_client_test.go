package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"worktrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewAPIClient(srv.URL, 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestLoginStoresSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)
		http.SetCookie(w, &http.Cookie{Name: "worktrack_session", Value: "abc", Path: "/"})
		json.NewEncoder(w).Encode(models.User{ID: 1, Username: "alice"})
	})
	mux.HandleFunc("/api/sessions/start", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("worktrack_session")
		require.NoError(t, err, "session cookie should ride on later calls")
		assert.Equal(t, "abc", cookie.Value)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Session{ID: 7, UserID: 1})
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	user, err := c.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	session, err := c.StartSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), session.ID)
}

func TestRequestsCarryRequestID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusOK)
	}))
	require.NoError(t, c.HealthCheck(context.Background()))
}

func TestEndSessionSendsActiveDuration(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/7/end", r.URL.Path)
		var req models.EndSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(120), req.ActiveDuration)
		json.NewEncoder(w).Encode(models.Session{ID: 7, ActiveDuration: 120})
	}))

	session, err := c.EndSession(context.Background(), 7, 120)
	require.NoError(t, err)
	assert.Equal(t, int64(120), session.ActiveDuration)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.True(t, errors.As(err, &authErr))
				assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
			},
		},
		{
			name:   "conflict",
			status: http.StatusConflict,
			check: func(t *testing.T, err error) {
				var badReq *BadRequestError
				require.True(t, errors.As(err, &badReq))
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				var rateErr *RateLimitError
				require.True(t, errors.As(err, &rateErr))
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var backendErr *BackendError
				require.True(t, errors.As(err, &backendErr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			_, err := c.StartSession(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestListSessionsPagination(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "50", r.URL.Query().Get("offset"))
		json.NewEncoder(w).Encode([]*models.Session{{ID: 1}, {ID: 2}})
	}))

	sessions, err := c.ListSessions(context.Background(), 25, 50)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
