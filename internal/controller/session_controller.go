package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"worktrack/internal/models"
	"worktrack/internal/queue"
	"worktrack/internal/tracker"

	"go.uber.org/zap"
)

const recentSessionsLimit = 20

var (
	// ErrRequestInFlight is returned when a start or end call is issued
	// while a previous one has not completed.
	ErrRequestInFlight = errors.New("session request already in flight")

	// ErrSessionActive is returned by StartSession when a session is
	// already being tracked.
	ErrSessionActive = errors.New("a session is already active")

	// ErrNoActiveSession is returned by EndSession when nothing is being
	// tracked.
	ErrNoActiveSession = errors.New("no active session")

	// ErrStartSuperseded is returned by StartSession when an end request
	// arrived while the start was still on the wire. The orphaned server
	// session is closed best-effort.
	ErrStartSuperseded = errors.New("session start superseded by stop")
)

// API is the slice of the backend the controller needs.
type API interface {
	StartSession(ctx context.Context) (*models.Session, error)
	EndSession(ctx context.Context, sessionID, activeDuration int64) (*models.Session, error)
	LogActivity(ctx context.Context, sessionID int64, message, logType string) (*models.ActivityLog, error)
	ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error)
}

// SessionController reconciles the local activity tracker with the backend.
// The server owns session identity and totals; the tracker owns the local
// active-seconds count. The controller's job is keeping the two consistent
// through the failure cases: a failed start leaves the tracker stopped, a
// failed end leaves it running so no counted time is lost.
type SessionController struct {
	api     API
	tracker *tracker.ActivityTracker
	uploads *queue.UploadQueue // may be nil; failed log pushes are then dropped
	logger  *zap.Logger

	mu       sync.Mutex
	current  *models.Session
	selected *models.Session
	recent   []*models.Session
	inFlight bool
	startGen uint64
}

func NewSessionController(
	api API,
	activityTracker *tracker.ActivityTracker,
	uploads *queue.UploadQueue,
	logger *zap.Logger,
) *SessionController {
	return &SessionController{
		api:     api,
		tracker: activityTracker,
		uploads: uploads,
		logger:  logger,
	}
}

// StartSession opens a session on the backend and, only once that succeeds,
// starts the local tracker. When the backend call fails the tracker never
// leaves Stopped and no session is recorded.
func (c *SessionController) StartSession(ctx context.Context) (*models.Session, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	if c.current != nil {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}
	c.inFlight = true
	c.startGen++
	gen := c.startGen
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	session, err := c.api.StartSession(ctx)
	if err != nil {
		c.logger.Error("Failed to start session", zap.Error(err))
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	c.mu.Lock()
	if gen != c.startGen {
		// A stop arrived while the start was on the wire. The server
		// session exists but nobody wants it; close it best-effort.
		c.mu.Unlock()
		if _, endErr := c.api.EndSession(ctx, session.ID, 0); endErr != nil {
			c.logger.Warn("Failed to close superseded session",
				zap.Int64("session_id", session.ID),
				zap.Error(endErr),
			)
		}
		return nil, ErrStartSuperseded
	}
	c.current = session
	c.selected = session
	c.mu.Unlock()

	if err := c.tracker.Start(c.onTrackerState); err != nil {
		// Only possible if something else started the tracker behind our
		// back; the session stays current and tracking continues.
		c.logger.Warn("Tracker already running at session start", zap.Error(err))
	}

	c.logger.Info("Session started", zap.Int64("session_id", session.ID))

	c.refreshSessions(ctx)
	c.retryPendingUploads(ctx)
	return session, nil
}

// EndSession reports the tracker's active seconds to the backend and stops
// the tracker only after the backend accepts. On failure the tracker keeps
// counting, so a retry reports at least as many active seconds.
func (c *SessionController) EndSession(ctx context.Context) (*models.Session, error) {
	c.mu.Lock()
	if c.inFlight {
		// A start is still on the wire; supersede it.
		c.startGen++
		c.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	if c.current == nil {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	session := c.current
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	activeSeconds := c.tracker.ActiveSeconds()

	finalized, err := c.api.EndSession(ctx, session.ID, activeSeconds)
	if err != nil {
		c.logger.Error("Failed to end session; tracking continues",
			zap.Int64("session_id", session.ID),
			zap.Int64("active_seconds", activeSeconds),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to end session: %w", err)
	}

	c.tracker.Stop()

	c.mu.Lock()
	c.current = nil
	c.selected = finalized
	c.mu.Unlock()

	c.logger.Info("Session ended",
		zap.Int64("session_id", finalized.ID),
		zap.Int64("active_duration", finalized.ActiveDuration),
	)

	c.refreshSessions(ctx)
	return finalized, nil
}

// SelectSession switches the detail view to one of the recent sessions.
// A zero ID clears the selection; an unknown ID is ignored and the current
// selection kept.
func (c *SessionController) SelectSession(sessionID int64) *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sessionID == 0 {
		c.selected = nil
		return nil
	}
	if c.current != nil && c.current.ID == sessionID {
		c.selected = c.current
		return c.selected
	}
	for _, s := range c.recent {
		if s.ID == sessionID {
			c.selected = s
			return s
		}
	}
	return c.selected
}

// CurrentSession returns the session being tracked, or nil.
func (c *SessionController) CurrentSession() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SelectedSession returns the session shown in the detail view, or nil.
func (c *SessionController) SelectedSession() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// RecentSessions returns the last fetched session list, most recent first.
func (c *SessionController) RecentSessions() []*models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.Session, len(c.recent))
	copy(out, c.recent)
	return out
}

// Tracker exposes the underlying tracker for read-only display use.
func (c *SessionController) Tracker() *tracker.ActivityTracker {
	return c.tracker
}

// onTrackerState pushes idle/resume transitions to the backend as activity
// log entries. Delivery is fire-and-forget: a failed push is queued for
// retry and never blocks or stops tracking.
func (c *SessionController) onTrackerState(state tracker.State) {
	c.mu.Lock()
	session := c.current
	c.mu.Unlock()
	if session == nil {
		return
	}

	var message, logType string
	switch state {
	case tracker.StateIdle:
		message = "Idle state detected - timer paused"
		logType = "warning"
	case tracker.StateActive:
		message = "Activity resumed"
		logType = "info"
	default:
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := c.api.LogActivity(ctx, session.ID, message, logType); err != nil {
			c.logger.Warn("Failed to push activity log; queued for retry",
				zap.Int64("session_id", session.ID),
				zap.String("message", message),
				zap.Error(err),
			)
			c.enqueueUpload(session.ID, message, logType)
		}
	}()
}

func (c *SessionController) enqueueUpload(sessionID int64, message, logType string) {
	if c.uploads == nil {
		return
	}
	if err := c.uploads.Enqueue(sessionID, message, logType); err != nil {
		c.logger.Error("Failed to queue activity log", zap.Error(err))
	}
}

// refreshSessions updates the recent list; failures keep the stale copy.
func (c *SessionController) refreshSessions(ctx context.Context) {
	sessions, err := c.api.ListSessions(ctx, recentSessionsLimit, 0)
	if err != nil {
		c.logger.Warn("Failed to refresh session list", zap.Error(err))
		return
	}
	c.mu.Lock()
	c.recent = sessions
	c.mu.Unlock()
}

// FlushPendingUploads retries delivery of queued activity logs. The agent
// calls this periodically; the controller also runs it on session start.
func (c *SessionController) FlushPendingUploads(ctx context.Context) {
	c.retryPendingUploads(ctx)
}

// retryPendingUploads drains the offline queue, removing delivered entries
// and bumping the retry count on the rest.
func (c *SessionController) retryPendingUploads(ctx context.Context) {
	if c.uploads == nil {
		return
	}

	pending, err := c.uploads.Dequeue(100)
	if err != nil {
		c.logger.Error("Failed to read upload queue", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	var delivered, failed []int64
	for _, u := range pending {
		if _, err := c.api.LogActivity(ctx, u.SessionID, u.Message, u.Type); err != nil {
			failed = append(failed, u.ID)
			continue
		}
		delivered = append(delivered, u.ID)
	}

	if err := c.uploads.Remove(delivered); err != nil {
		c.logger.Error("Failed to remove delivered uploads", zap.Error(err))
	}
	if err := c.uploads.IncrementRetry(failed); err != nil {
		c.logger.Error("Failed to update retry counts", zap.Error(err))
	}
	if len(delivered) > 0 {
		c.logger.Info("Delivered queued activity logs",
			zap.Int("delivered", len(delivered)),
			zap.Int("still_pending", len(failed)),
		)
	}
}
