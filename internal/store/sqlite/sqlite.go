package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/contriboost/chat-relay/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	contract_address TEXT    NOT NULL,
	sender           TEXT    NOT NULL,
	content          TEXT    NOT NULL,
	timestamp        INTEGER NOT NULL,
	edited           BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_room_ts ON messages(contract_address, timestamp, id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db   *sql.DB
	opts store.Options
}

// New creates a new SQLite store.
// dbPath is the path to the SQLite database file, or ":memory:".
func New(dbPath string, opts ...store.Option) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, nil, opts...)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to seed rows before the store is used.
func NewWithSetup(dbPath string, setup func(*sql.DB) error, opts ...store.Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStore{db: db, opts: store.ApplyOptions(opts...)}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return s, nil
}

// Migrate creates the messages table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateMessage persists a new message stamped with the store clock.
func (s *SQLiteStore) CreateMessage(ctx context.Context, room, sender, content string) (*store.Message, error) {
	query := `
		INSERT INTO messages (contract_address, sender, content, timestamp, edited)
		VALUES (?, ?, ?, ?, 0)
	`
	ts := s.opts.Clock().Unix()
	result, err := s.db.ExecContext(ctx, query, room, sender, content, ts)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.Message{
		ID:        id,
		Room:      room,
		Sender:    sender,
		Content:   content,
		Timestamp: ts,
	}, nil
}

// GetMessage retrieves a message of a room by id.
func (s *SQLiteStore) GetMessage(ctx context.Context, room string, id int64) (*store.Message, error) {
	query := `
		SELECT id, contract_address, sender, content, timestamp, edited
		FROM messages
		WHERE id = ? AND contract_address = ?
	`
	var msg store.Message
	err := s.db.QueryRowContext(ctx, query, id, room).Scan(
		&msg.ID,
		&msg.Room,
		&msg.Sender,
		&msg.Content,
		&msg.Timestamp,
		&msg.Edited,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	return &msg, nil
}

// UpdateMessageContent sets new content and the edited flag.
func (s *SQLiteStore) UpdateMessageContent(ctx context.Context, room string, id int64, content string) (*store.Message, error) {
	query := `
		UPDATE messages
		SET content = ?, edited = 1
		WHERE id = ? AND contract_address = ?
	`
	result, err := s.db.ExecContext(ctx, query, content, id, room)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	if err := expectOneRow(result, id); err != nil {
		return nil, err
	}

	return s.GetMessage(ctx, room, id)
}

// DeleteMessage removes a message permanently.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, room string, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ? AND contract_address = ?`, id, room)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return expectOneRow(result, id)
}

// ListMessages returns the room history ordered by timestamp, then id.
func (s *SQLiteStore) ListMessages(ctx context.Context, room string) ([]*store.Message, error) {
	query := `
		SELECT id, contract_address, sender, content, timestamp, edited
		FROM messages
		WHERE contract_address = ?
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, room)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.Sender, &msg.Content, &msg.Timestamp, &msg.Edited); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func expectOneRow(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	return nil
}
