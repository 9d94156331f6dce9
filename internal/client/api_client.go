package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"worktrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIClient talks to the tracking backend. Authentication is cookie based:
// Login stores the session cookie in the client's jar and every later call
// rides on it.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*APIClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		logger: logger,
	}, nil
}

// Login authenticates and stores the session cookie for later calls.
func (c *APIClient) Login(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPost, "/api/login", models.LoginRequest{
		Username: username,
		Password: password,
	}, &user)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Logged in", zap.String("username", user.Username))
	return &user, nil
}

// Logout clears the server-side session.
func (c *APIClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// StartSession opens a new work session for the logged-in user.
func (c *APIClient) StartSession(ctx context.Context) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions/start", nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// EndSession finalizes a session, reporting the locally counted active
// seconds. The server computes total and idle durations.
func (c *APIClient) EndSession(ctx context.Context, sessionID, activeDuration int64) (*models.Session, error) {
	var session models.Session
	path := fmt.Sprintf("/api/sessions/%d/end", sessionID)
	err := c.do(ctx, http.MethodPost, path, models.EndSessionRequest{ActiveDuration: activeDuration}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// LogActivity appends an activity log entry to a session.
func (c *APIClient) LogActivity(ctx context.Context, sessionID int64, message, logType string) (*models.ActivityLog, error) {
	var entry models.ActivityLog
	path := fmt.Sprintf("/api/sessions/%d/activity", sessionID)
	err := c.do(ctx, http.MethodPost, path, models.CreateActivityLogRequest{
		Message: message,
		Type:    logType,
	}, &entry)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListSessions returns the logged-in user's sessions, most recent first.
func (c *APIClient) ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	var sessions []*models.Session
	path := fmt.Sprintf("/api/sessions?limit=%d&offset=%d", limit, offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns a single session by ID.
func (c *APIClient) GetSession(ctx context.Context, sessionID int64) (*models.Session, error) {
	var session models.Session
	path := fmt.Sprintf("/api/sessions/%d", sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// HealthCheck checks if the backend is reachable
func (c *APIClient) HealthCheck(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func (c *APIClient) do(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var reader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Debug("Request succeeded",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	return c.statusError(method, path, resp.StatusCode, body)
}

func (c *APIClient) statusError(method, path string, statusCode int, body []byte) error {
	errMsg := fmt.Sprintf("backend returned status %d: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Error("Authentication failed",
			zap.String("path", path),
			zap.Int("status_code", statusCode),
		)
		return &AuthError{Message: errMsg, StatusCode: statusCode}
	case http.StatusTooManyRequests:
		c.logger.Warn("Rate limited",
			zap.String("path", path),
			zap.Int("status_code", statusCode),
		)
		return &RateLimitError{Message: errMsg, StatusCode: statusCode}
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict:
		c.logger.Error("Request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", statusCode),
			zap.String("response", string(body)),
		)
		return &BadRequestError{Message: errMsg, StatusCode: statusCode}
	default:
		c.logger.Error("Backend error",
			zap.String("path", path),
			zap.Int("status_code", statusCode),
			zap.String("response", string(body)),
		)
		return &BackendError{Message: errMsg, StatusCode: statusCode}
	}
}

// Error types
type AuthError struct {
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string {
	return e.Message
}

type RateLimitError struct {
	Message    string
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return e.Message
}

type BadRequestError struct {
	Message    string
	StatusCode int
}

func (e *BadRequestError) Error() string {
	return e.Message
}

type BackendError struct {
	Message    string
	StatusCode int
}

func (e *BackendError) Error() string {
	return e.Message
}
