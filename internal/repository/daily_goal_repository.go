package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"worktrack/internal/models"
)

type DailyGoalRepository struct {
	db *sql.DB
}

func NewDailyGoalRepository(db *sql.DB) *DailyGoalRepository {
	return &DailyGoalRepository{db: db}
}

func (r *DailyGoalRepository) Create(ctx context.Context, userID int64, createdAt time.Time, req *models.CreateDailyGoalRequest) (*models.DailyGoal, error) {
	query := `
		INSERT INTO daily_goals (user_id, session_id, title, description, completed, created_at, priority)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		userID,
		req.SessionID,
		req.Title,
		req.Description,
		createdAt.UTC().Format(time.RFC3339),
		req.Priority,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create daily goal: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *DailyGoalRepository) GetByID(ctx context.Context, id int64) (*models.DailyGoal, error) {
	query := `
		SELECT id, user_id, session_id, title, description, completed, created_at, priority
		FROM daily_goals
		WHERE id = ?
	`
	g, err := scanDailyGoal(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily goal: %w", err)
	}
	return g, nil
}

func (r *DailyGoalRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.DailyGoal, error) {
	query := `
		SELECT id, user_id, session_id, title, description, completed, created_at, priority
		FROM daily_goals
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily goals: %w", err)
	}
	defer rows.Close()

	var goals []*models.DailyGoal
	for rows.Next() {
		g, err := scanDailyGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return goals, nil
}

func (r *DailyGoalRepository) Update(ctx context.Context, id int64, req *models.UpdateDailyGoalRequest) (*models.DailyGoal, error) {
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
	if req.Completed != nil {
		setParts = append(setParts, "completed = ?")
		args = append(args, boolToInt(*req.Completed))
	}
	if req.Priority != nil {
		setParts = append(setParts, "priority = ?")
		args = append(args, *req.Priority)
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE daily_goals SET %s WHERE id = ?`, strings.Join(setParts, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update daily goal: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *DailyGoalRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM daily_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete daily goal: %w", err)
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

func scanDailyGoal(row rowScanner) (*models.DailyGoal, error) {
	var g models.DailyGoal
	var createdStr string
	var completed int
	err := row.Scan(&g.ID, &g.UserID, &g.SessionID, &g.Title, &g.Description, &completed, &createdStr, &g.Priority)
	if err != nil {
		return nil, err
	}

	created, err := time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created at: %w", err)
	}
	g.CreatedAt = created
	g.Completed = completed != 0
	return &g, nil
}
