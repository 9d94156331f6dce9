package models

import "time"

// Session represents one tracked work period. A session is open while
// EndTime is nil; durations are finalized exactly once when it ends.
type Session struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"userId"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	TotalDuration  int64      `json:"totalDuration"`  // seconds
	ActiveDuration int64      `json:"activeDuration"` // seconds
	IdleDuration   int64      `json:"idleDuration"`   // seconds
}

// Open reports whether the session has not been ended yet.
func (s *Session) Open() bool {
	return s.EndTime == nil
}

// ActivityLog is a server-persisted log entry attached to a session.
type ActivityLog struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // "info", "warning", "error"
}

// EndSessionRequest carries the client-reported active duration in seconds.
type EndSessionRequest struct {
	ActiveDuration int64 `json:"activeDuration"`
}

// CreateActivityLogRequest is the body of the log-activity call.
type CreateActivityLogRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// AnalyticsSummary is the aggregate view served to admins and managers.
type AnalyticsSummary struct {
	UserCount       int64 `json:"userCount"`
	SessionCount    int64 `json:"sessionCount"`
	ActiveUsers     int64 `json:"activeUsers"`
	TotalActiveTime int64 `json:"totalActiveTime"` // seconds
}
