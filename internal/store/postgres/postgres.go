// Package postgres stores messages in the contriboost backend's PostgreSQL `messages` table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contriboost/chat-relay/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id               SERIAL PRIMARY KEY,
	sender           TEXT    NOT NULL,
	contract_address TEXT    NOT NULL,
	content          TEXT    NOT NULL,
	timestamp        BIGINT  NOT NULL,
	edited           BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_messages_room_ts ON messages (contract_address, timestamp, id);
`

const selectColumns = `id, contract_address, sender, content, timestamp, COALESCE(edited, FALSE)`

// Store implements store.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	opts store.Options
}

// New connects to PostgreSQL using a connection URL.
func New(ctx context.Context, url string, opts ...store.Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewFromPool(pool, opts...), nil
}

// NewFromPool wraps an existing pool. The store takes ownership of it.
func NewFromPool(pool *pgxpool.Pool, opts ...store.Option) *Store {
	return &Store{pool: pool, opts: store.ApplyOptions(opts...)}
}

// Migrate creates the messages table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// CreateMessage inserts a message and returns it with its serial id.
func (s *Store) CreateMessage(ctx context.Context, room, sender, content string) (*store.Message, error) {
	msg := store.Message{
		Room:      room,
		Sender:    sender,
		Content:   content,
		Timestamp: s.opts.Clock().Unix(),
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (sender, contract_address, content, timestamp) VALUES ($1, $2, $3, $4) RETURNING id`,
		sender, room, content, msg.Timestamp,
	).Scan(&msg.ID)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

// GetMessage retrieves a message of a room by id.
func (s *Store) GetMessage(ctx context.Context, room string, id int64) (*store.Message, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM messages WHERE id = $1 AND contract_address = $2`,
		id, room,
	)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

// UpdateMessageContent sets content and the edited flag in one statement.
func (s *Store) UpdateMessageContent(ctx context.Context, room string, id int64, content string) (*store.Message, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE messages SET content = $1, edited = TRUE WHERE id = $2 AND contract_address = $3 RETURNING `+selectColumns,
		content, id, room,
	)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("update message: %w", err)
	}
	return msg, nil
}

// DeleteMessage removes a message permanently.
func (s *Store) DeleteMessage(ctx context.Context, room string, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1 AND contract_address = $2`, id, room)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListMessages returns the room history ordered by timestamp, then id.
func (s *Store) ListMessages(ctx context.Context, room string) ([]*store.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM messages WHERE contract_address = $1 ORDER BY timestamp ASC, id ASC`,
		room,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func scanMessage(row pgx.Row) (*store.Message, error) {
	var msg store.Message
	if err := row.Scan(&msg.ID, &msg.Room, &msg.Sender, &msg.Content, &msg.Timestamp, &msg.Edited); err != nil {
		return nil, err
	}
	return &msg, nil
}
