package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"worktrack/internal/models"
)

type ActivityLogRepository struct {
	db *sql.DB
}

func NewActivityLogRepository(db *sql.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, sessionID int64, timestamp time.Time, message, logType string) (*models.ActivityLog, error) {
	query := `
		INSERT INTO activity_logs (session_id, timestamp, message, type)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, sessionID, timestamp.UTC().Format(time.RFC3339), message, logType).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity log: %w", err)
	}

	return &models.ActivityLog{
		ID:        id,
		SessionID: sessionID,
		Timestamp: timestamp.UTC(),
		Message:   message,
		Type:      logType,
	}, nil
}

// GetBySessionID returns a session's log entries in insertion order.
func (r *ActivityLogRepository) GetBySessionID(ctx context.Context, sessionID int64) ([]*models.ActivityLog, error) {
	query := `
		SELECT id, session_id, timestamp, message, type
		FROM activity_logs
		WHERE session_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ActivityLog
	for rows.Next() {
		var l models.ActivityLog
		var tsStr string
		if err := rows.Scan(&l.ID, &l.SessionID, &tsStr, &l.Message, &l.Type); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, tsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		l.Timestamp = ts
		logs = append(logs, &l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return logs, nil
}
