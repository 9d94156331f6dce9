package service

import (
	"context"
	"fmt"
	"time"

	"worktrack/internal/models"
	"worktrack/internal/repository"

	"go.uber.org/zap"
)

// SessionService owns the server-side session lifecycle. The server is the
// source of truth for start/end/total; the client is authoritative for
// active duration only, and even that is clamped to the total on end.
type SessionService struct {
	sessions *repository.SessionRepository
	logs     *repository.ActivityLogRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewSessionService(
	sessions *repository.SessionRepository,
	logs *repository.ActivityLogRepository,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		logs:     logs,
		logger:   logger,
		now:      time.Now,
	}
}

// Start creates an open session for the user. The database rejects a second
// open session; the error surfaces as repository.ErrOpenSessionExists.
func (s *SessionService) Start(ctx context.Context, userID int64) (*models.Session, error) {
	session, err := s.sessions.Create(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	if _, err := s.logs.Create(ctx, session.ID, s.now(), "Session started", "info"); err != nil {
		// The session itself is fine; the seed log entry is best-effort.
		s.logger.Warn("Failed to write initial activity log",
			zap.Int64("session_id", session.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Session started",
		zap.Int64("session_id", session.ID),
		zap.Int64("user_id", userID),
	)
	return session, nil
}

// End finalizes the session: totalDuration comes from the server clock,
// activeDuration from the client (clamped into [0, total]), and
// idleDuration is the difference.
func (s *SessionService) End(ctx context.Context, userID, sessionID, activeDuration int64) (*models.Session, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Open() {
		return nil, repository.ErrSessionEnded
	}

	endTime := s.now()
	total := int64(endTime.Sub(session.StartTime).Seconds())
	if total < 0 {
		total = 0
	}
	active := activeDuration
	if active < 0 {
		active = 0
	}
	if active > total {
		active = total
	}
	idle := total - active

	finalized, err := s.sessions.Finalize(ctx, sessionID, endTime, total, active, idle)
	if err != nil {
		return nil, err
	}

	if _, err := s.logs.Create(ctx, sessionID, endTime, "Session ended", "info"); err != nil {
		s.logger.Warn("Failed to write end activity log",
			zap.Int64("session_id", sessionID),
			zap.Error(err),
		)
	}

	s.logger.Info("Session ended",
		zap.Int64("session_id", sessionID),
		zap.Int64("total_duration", total),
		zap.Int64("active_duration", active),
		zap.Int64("idle_duration", idle),
	)
	return finalized, nil
}

// Get returns a session the user owns. Sessions owned by others are
// indistinguishable from absent ones.
func (s *SessionService) Get(ctx context.Context, userID, sessionID int64) (*models.Session, error) {
	return s.getOwned(ctx, userID, sessionID)
}

// List returns the user's sessions, most recent first.
func (s *SessionService) List(ctx context.Context, userID int64, limit, offset int) ([]*models.Session, error) {
	return s.sessions.GetByUserID(ctx, userID, limit, offset)
}

// ListForUser returns any user's sessions; callers gate this on admin role.
func (s *SessionService) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Session, error) {
	return s.sessions.GetByUserID(ctx, userID, limit, offset)
}

// LogActivity appends a log entry to a session the user owns.
func (s *SessionService) LogActivity(ctx context.Context, userID, sessionID int64, message, logType string) (*models.ActivityLog, error) {
	if _, err := s.getOwned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	entry, err := s.logs.Create(ctx, sessionID, s.now(), message, logType)
	if err != nil {
		return nil, fmt.Errorf("failed to log activity: %w", err)
	}
	return entry, nil
}

// ActivityLogs returns a session's log entries to its owner.
func (s *SessionService) ActivityLogs(ctx context.Context, userID, sessionID int64) ([]*models.ActivityLog, error) {
	if _, err := s.getOwned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.logs.GetBySessionID(ctx, sessionID)
}

func (s *SessionService) getOwned(ctx context.Context, userID, sessionID int64) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return session, nil
}
