package queue

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// PendingUpload is an activity log entry that could not be delivered to the
// backend and is waiting for a retry.
type PendingUpload struct {
	ID         int64
	SessionID  int64
	Message    string
	Type       string
	CreatedAt  time.Time
	RetryCount int
}

// UploadQueue is a local sqlite-backed queue of activity log entries that
// failed to reach the backend. The agent drains it whenever connectivity
// comes back.
type UploadQueue struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUploadQueue opens (or creates) the queue database at path.
func NewUploadQueue(path string, logger *zap.Logger) (*UploadQueue, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pending_uploads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL,
			message TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'info',
			created_at TEXT NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_attempt TEXT
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create queue table: %w", err)
	}

	return &UploadQueue{db: db, logger: logger}, nil
}

func (q *UploadQueue) Close() error {
	return q.db.Close()
}

// Enqueue stores an undelivered activity log entry.
func (q *UploadQueue) Enqueue(sessionID int64, message, logType string) error {
	_, err := q.db.Exec(`
		INSERT INTO pending_uploads (session_id, message, type, created_at, retry_count)
		VALUES (?, ?, ?, ?, 0)
	`, sessionID, message, logType, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to enqueue upload: %w", err)
	}

	q.logger.Debug("Upload enqueued",
		zap.Int64("session_id", sessionID),
		zap.String("message", message),
	)
	return nil
}

// Dequeue returns up to limit pending uploads, oldest first. Entries stay in
// the queue until Remove is called for them.
func (q *UploadQueue) Dequeue(limit int) ([]*PendingUpload, error) {
	rows, err := q.db.Query(`
		SELECT id, session_id, message, type, created_at, retry_count
		FROM pending_uploads
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*PendingUpload
	for rows.Next() {
		var u PendingUpload
		var createdAt string
		if err := rows.Scan(&u.ID, &u.SessionID, &u.Message, &u.Type, &createdAt, &u.RetryCount); err != nil {
			q.logger.Error("Failed to scan upload row", zap.Error(err))
			continue
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		uploads = append(uploads, &u)
	}
	return uploads, rows.Err()
}

// Remove deletes uploads that were delivered.
func (q *UploadQueue) Remove(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := "DELETE FROM pending_uploads WHERE id IN ("
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args[i] = id
	}
	query += ")"

	result, err := q.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to remove uploads: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	q.logger.Debug("Uploads removed from queue", zap.Int64("count", rowsAffected))
	return nil
}

// IncrementRetry bumps the retry count after a failed delivery attempt.
func (q *UploadQueue) IncrementRetry(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := "UPDATE pending_uploads SET retry_count = retry_count + 1, last_attempt = ? WHERE id IN ("
	args := make([]interface{}, len(ids)+1)
	args[0] = time.Now().UTC().Format(time.RFC3339)
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args[i+1] = id
	}
	query += ")"

	if _, err := q.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to increment retry: %w", err)
	}
	return nil
}

// Count returns the number of pending uploads.
func (q *UploadQueue) Count() (int, error) {
	var count int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM pending_uploads`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending uploads: %w", err)
	}
	return count, nil
}

// CleanupOld drops entries older than the cutoff that have already been
// retried past the limit. They are considered undeliverable.
func (q *UploadQueue) CleanupOld(olderThan time.Duration, maxRetries int) error {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := q.db.Exec(`
		DELETE FROM pending_uploads
		WHERE created_at < ? AND retry_count > ?
	`, cutoff, maxRetries)
	if err != nil {
		return fmt.Errorf("failed to cleanup old uploads: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		q.logger.Info("Cleaned up undeliverable uploads", zap.Int64("count", rowsAffected))
	}
	return nil
}
