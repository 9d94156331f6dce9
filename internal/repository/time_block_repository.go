package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"worktrack/internal/models"
)

type TimeBlockRepository struct {
	db *sql.DB
}

func NewTimeBlockRepository(db *sql.DB) *TimeBlockRepository {
	return &TimeBlockRepository{db: db}
}

func (r *TimeBlockRepository) Create(ctx context.Context, userID int64, req *models.CreateTimeBlockRequest) (*models.TimeBlock, error) {
	color := req.Color
	if color == "" {
		color = "#4f46e5"
	}

	query := `
		INSERT INTO time_blocks (user_id, session_id, title, description, start_time, end_time, completed, color)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		userID,
		req.SessionID,
		req.Title,
		req.Description,
		req.StartTime.UTC().Format(time.RFC3339),
		req.EndTime.UTC().Format(time.RFC3339),
		color,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create time block: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *TimeBlockRepository) GetByID(ctx context.Context, id int64) (*models.TimeBlock, error) {
	query := `
		SELECT id, user_id, session_id, title, description, start_time, end_time, completed, color
		FROM time_blocks
		WHERE id = ?
	`
	b, err := scanTimeBlock(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time block: %w", err)
	}
	return b, nil
}

func (r *TimeBlockRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.TimeBlock, error) {
	query := `
		SELECT id, user_id, session_id, title, description, start_time, end_time, completed, color
		FROM time_blocks
		WHERE user_id = ?
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query time blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*models.TimeBlock
	for rows.Next() {
		b, err := scanTimeBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time block: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return blocks, nil
}

func (r *TimeBlockRepository) Update(ctx context.Context, id int64, req *models.UpdateTimeBlockRequest) (*models.TimeBlock, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}

	setParts := []string{}
	args := []interface{}{}
	if req.Title != nil {
		setParts = append(setParts, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		setParts = append(setParts, "description = ?")
		args = append(args, *req.Description)
	}
	if req.StartTime != nil {
		setParts = append(setParts, "start_time = ?")
		args = append(args, req.StartTime.UTC().Format(time.RFC3339))
	}
	if req.EndTime != nil {
		setParts = append(setParts, "end_time = ?")
		args = append(args, req.EndTime.UTC().Format(time.RFC3339))
	}
	if req.Completed != nil {
		setParts = append(setParts, "completed = ?")
		args = append(args, boolToInt(*req.Completed))
	}
	if req.Color != nil {
		setParts = append(setParts, "color = ?")
		args = append(args, *req.Color)
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE time_blocks SET %s WHERE id = ?`, strings.Join(setParts, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update time block: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *TimeBlockRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM time_blocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time block: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTimeBlock(row rowScanner) (*models.TimeBlock, error) {
	var b models.TimeBlock
	var startStr, endStr string
	var completed int
	err := row.Scan(&b.ID, &b.UserID, &b.SessionID, &b.Title, &b.Description, &startStr, &endStr, &completed, &b.Color)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end time: %w", err)
	}
	b.StartTime = start
	b.EndTime = end
	b.Completed = completed != 0
	return &b, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
