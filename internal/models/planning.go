package models

import "time"

// TimeBlock is a planned block of work. It may reference the session it was
// worked in, but does not own it.
type TimeBlock struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	SessionID   *int64    `json:"sessionId,omitempty"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Completed   bool      `json:"completed"`
	Color       string    `json:"color"`
}

// DailyGoal is a lightweight per-day goal, optionally linked to a session.
type DailyGoal struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	SessionID   *int64    `json:"sessionId,omitempty"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	Priority    int       `json:"priority"` // 0 low, 1 medium, 2 high
}

type CreateTimeBlockRequest struct {
	SessionID   *int64    `json:"sessionId,omitempty"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Color       string    `json:"color,omitempty"`
}

type UpdateTimeBlockRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Color       *string    `json:"color,omitempty"`
}

type CreateDailyGoalRequest struct {
	SessionID   *int64  `json:"sessionId,omitempty"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Priority    int     `json:"priority,omitempty"`
}

type UpdateDailyGoalRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
}
