package service

import (
	"context"

	"worktrack/internal/models"
	"worktrack/internal/repository"

	"go.uber.org/zap"
)

// AnalyticsService aggregates the numbers shown on the admin dashboard.
type AnalyticsService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	logger   *zap.Logger
}

func NewAnalyticsService(
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

func (s *AnalyticsService) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	sessionCount, err := s.sessions.Count(ctx)
	if err != nil {
		return nil, err
	}
	activeUsers, err := s.sessions.CountActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	totalActive, err := s.sessions.TotalActiveDuration(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AnalyticsSummary{
		UserCount:       userCount,
		SessionCount:    sessionCount,
		ActiveUsers:     activeUsers,
		TotalActiveTime: totalActive,
	}, nil
}
