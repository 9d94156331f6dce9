package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	logger *zap.Logger
}

// New opens the sqlite store at storagePath (":memory:" for tests) and runs
// migrations. WAL only applies to file-backed databases.
func New(storagePath string, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases coherent across the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{
		DB:     db,
		logger: logger,
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established", zap.String("path", storagePath))
	return database, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user'
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			start_time TEXT NOT NULL,
			end_time TEXT,
			total_duration INTEGER NOT NULL DEFAULT 0,
			active_duration INTEGER NOT NULL DEFAULT 0,
			idle_duration INTEGER NOT NULL DEFAULT 0
		)`,
		// At most one open session per user, enforced by the database
		// rather than by client discipline.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_open
			ON sessions(user_id) WHERE end_time IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, start_time)`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id),
			timestamp TEXT NOT NULL,
			message TEXT NOT NULL,
			type TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_logs_session ON activity_logs(session_id)`,
		`CREATE TABLE IF NOT EXISTS time_blocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			session_id INTEGER REFERENCES sessions(id),
			title TEXT NOT NULL,
			description TEXT,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			color TEXT NOT NULL DEFAULT '#4f46e5'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_time_blocks_user ON time_blocks(user_id)`,
		`CREATE TABLE IF NOT EXISTS daily_goals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			session_id INTEGER REFERENCES sessions(id),
			title TEXT NOT NULL,
			description TEXT,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_goals_user ON daily_goals(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	db.logger.Info("Database migrations completed")
	return nil
}

func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.logger.Info("Database connection closed")
	return nil
}
