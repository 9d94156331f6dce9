package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOpenSessionExists is returned when starting a session for a user
	// who already has one with no end time.
	ErrOpenSessionExists = errors.New("user already has an open session")
	// ErrSessionEnded is returned when finalizing a session that already
	// has an end time. Finalized sessions are immutable.
	ErrSessionEnded = errors.New("session already ended")
	// ErrUsernameTaken is returned when creating a user with a username
	// that already exists.
	ErrUsernameTaken = errors.New("username already exists")
)
