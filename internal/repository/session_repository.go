package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"worktrack/internal/models"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new open session. The partial unique index on open
// sessions maps a second open session for the same user to
// ErrOpenSessionExists.
func (r *SessionRepository) Create(ctx context.Context, userID int64, startTime time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (user_id, start_time, end_time, total_duration, active_duration, idle_duration)
		VALUES (?, ?, NULL, 0, 0, 0)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, userID, startTime.UTC().Format(time.RFC3339)).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrOpenSessionExists
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        id,
		UserID:    userID,
		StartTime: startTime.UTC(),
	}, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	query := `
		SELECT id, user_id, start_time, end_time, total_duration, active_duration, idle_duration
		FROM sessions
		WHERE id = ?
	`
	return r.scanSession(r.db.QueryRowContext(ctx, query, id))
}

// GetByUserID returns the user's sessions, most recent first.
func (r *SessionRepository) GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Session, error) {
	query := `
		SELECT id, user_id, start_time, end_time, total_duration, active_duration, idle_duration
		FROM sessions
		WHERE user_id = ?
		ORDER BY start_time DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := r.scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sessions, nil
}

// GetOpenByUserID returns the user's current open session, or ErrNotFound.
func (r *SessionRepository) GetOpenByUserID(ctx context.Context, userID int64) (*models.Session, error) {
	query := `
		SELECT id, user_id, start_time, end_time, total_duration, active_duration, idle_duration
		FROM sessions
		WHERE user_id = ? AND end_time IS NULL
	`
	return r.scanSession(r.db.QueryRowContext(ctx, query, userID))
}

// Finalize sets the end time and durations exactly once. A session that
// already has an end time is immutable and yields ErrSessionEnded.
func (r *SessionRepository) Finalize(ctx context.Context, id int64, endTime time.Time, total, active, idle int64) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET end_time = ?, total_duration = ?, active_duration = ?, idle_duration = ?
		WHERE id = ? AND end_time IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, endTime.UTC().Format(time.RFC3339), total, active, idle, id)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the session does not exist or it was already ended.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrSessionEnded
	}

	return r.GetByID(ctx, id)
}

// Count returns the total number of sessions.
func (r *SessionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// CountActiveUsers returns the number of users with an open session.
func (r *SessionRepository) CountActiveUsers(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(DISTINCT user_id) FROM sessions WHERE end_time IS NULL`
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}

// TotalActiveDuration returns the sum of active seconds across all sessions.
func (r *SessionRepository) TotalActiveDuration(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	query := `SELECT SUM(active_duration) FROM sessions`
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum active duration: %w", err)
	}
	return total.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SessionRepository) scanSession(row *sql.Row) (*models.Session, error) {
	s, err := scanSessionFrom(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) scanSessionRow(rows *sql.Rows) (*models.Session, error) {
	s, err := scanSessionFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return s, nil
}

func scanSessionFrom(row rowScanner) (*models.Session, error) {
	var s models.Session
	var startStr string
	var endStr sql.NullString

	err := row.Scan(&s.ID, &s.UserID, &startStr, &endStr, &s.TotalDuration, &s.ActiveDuration, &s.IdleDuration)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start time: %w", err)
	}
	s.StartTime = start

	if endStr.Valid {
		end, err := time.Parse(time.RFC3339, endStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse end time: %w", err)
		}
		s.EndTime = &end
	}

	return &s, nil
}
