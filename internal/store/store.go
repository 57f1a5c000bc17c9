package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a message does not exist in the given room.
var ErrNotFound = errors.New("message not found")

// Message represents a persisted chat message.
type Message struct {
	ID     int64
	Room   string
	Sender string
	// Content is never empty for stored messages.
	Content string
	// Timestamp is the creation time in unix seconds. It never changes.
	Timestamp int64
	Edited    bool
}

// MessageStore handles message persistence.
// Every operation touches a single row; callers need no transactions.
type MessageStore interface {
	// CreateMessage assigns id and timestamp, persists and returns the message.
	CreateMessage(ctx context.Context, room, sender, content string) (*Message, error)

	// GetMessage retrieves a message of a room by id.
	GetMessage(ctx context.Context, room string, id int64) (*Message, error)

	// UpdateMessageContent replaces the content and marks the message as edited.
	UpdateMessageContent(ctx context.Context, room string, id int64, content string) (*Message, error)

	// DeleteMessage removes a message permanently. Deleting a missing message is an error.
	DeleteMessage(ctx context.Context, room string, id int64) error

	// ListMessages returns the full room history ordered by timestamp ascending.
	ListMessages(ctx context.Context, room string) ([]*Message, error)
}

// Store aggregates the message store with lifecycle hooks.
type Store interface {
	MessageStore

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}

// Clock returns the current time; stores use it to stamp new messages.
type Clock func() time.Time

// Option configures a store implementation.
type Option func(*Options)

// Options holds settings shared by all store implementations.
type Options struct {
	Clock Clock
}

// WithClock overrides the clock used for message timestamps.
func WithClock(clock Clock) Option {
	return func(o *Options) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

// ApplyOptions resolves options with defaults.
func ApplyOptions(opts ...Option) Options {
	o := Options{Clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
