package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist. Callers rely on
	// it as a control value (idempotent deletes), not as a failure.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a unique constraint is violated.
	ErrExists = errors.New("already exists")
)

// Message is a persisted relay message. Records are immutable once written;
// the only permitted mutation is removal via DeleteByID.
type Message struct {
	ID        int64
	Author    string
	Content   string
	CreatedAt time.Time
}

// User represents an account in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	CreatedAt    time.Time
}

// MessageLog is the durable, ordered message store. Implementations must
// assign ids atomically: ids are strictly increasing with insertion order,
// unique, and never reused, even after the highest id is deleted.
type MessageLog interface {
	// Append persists a new message, assigning its id and creation time,
	// and returns the stored record.
	Append(ctx context.Context, content, author string) (*Message, error)

	// FindAfter returns all messages with id greater than offset in
	// ascending id order. Offset 0 returns the entire log.
	FindAfter(ctx context.Context, offset int64) ([]*Message, error)

	// FindByID retrieves a single message. Returns ErrNotFound when absent.
	FindByID(ctx context.Context, id int64) (*Message, error)

	// DeleteByID removes a message. Returns ErrNotFound when the id does
	// not exist, so callers can tell "already gone" from "removed".
	DeleteByID(ctx context.Context, id int64) error
}

// UserStore handles account persistence for the auth service.
type UserStore interface {
	// CreateUser creates a new user. Returns ErrExists when the username
	// is taken.
	CreateUser(ctx context.Context, username, passwordHash string, isGuest bool) (*User, error)

	// GetUserByUsername retrieves a registered user by username. Returns
	// ErrNotFound when absent.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	MessageLog
	UserStore

	// Close releases the underlying storage resources.
	Close() error
}
