// Package memory is an in-process message store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/contriboost/chat-relay/internal/store"
)

type key struct {
	room string
	id   int64
}

// Store implements store.Store in memory.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	messages map[key]store.Message
	opts     store.Options
}

// New creates an empty memory store.
func New(opts ...store.Option) *Store {
	return &Store{
		messages: make(map[key]store.Message),
		opts:     store.ApplyOptions(opts...),
	}
}

// Migrate is a no-op.
func (s *Store) Migrate(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// CreateMessage stores a new message.
func (s *Store) CreateMessage(_ context.Context, room, sender, content string) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg := store.Message{
		ID:        s.nextID,
		Room:      room,
		Sender:    sender,
		Content:   content,
		Timestamp: s.opts.Clock().Unix(),
	}
	s.messages[key{room, msg.ID}] = msg
	return &msg, nil
}

// GetMessage retrieves a message.
func (s *Store) GetMessage(_ context.Context, room string, id int64) (*store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[key{room, id}]
	if !ok {
		return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	return &msg, nil
}

// UpdateMessageContent sets content and the edited flag.
func (s *Store) UpdateMessageContent(_ context.Context, room string, id int64, content string) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{room, id}
	msg, ok := s.messages[k]
	if !ok {
		return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	msg.Content = content
	msg.Edited = true
	s.messages[k] = msg
	return &msg, nil
}

// DeleteMessage removes a message.
func (s *Store) DeleteMessage(_ context.Context, room string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{room, id}
	if _, ok := s.messages[k]; !ok {
		return fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	delete(s.messages, k)
	return nil
}

// ListMessages returns the room history ordered by timestamp, then id.
func (s *Store) ListMessages(_ context.Context, room string) ([]*store.Message, error) {
	s.mu.RLock()
	out := make([]*store.Message, 0)
	for k, msg := range s.messages {
		if k.room != room {
			continue
		}
		m := msg
		out = append(out, &m)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
