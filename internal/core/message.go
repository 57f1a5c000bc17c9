package core

import "github.com/contriboost/chat-relay/internal/store"

// Message is the domain model for a chat message.
type Message struct {
	ID        int64
	Room      string
	Sender    string
	Content   string
	Timestamp int64 // unix seconds, set once at creation
	Edited    bool
}

func messageFromRecord(rec *store.Message) Message {
	return Message{
		ID:        rec.ID,
		Room:      rec.Room,
		Sender:    rec.Sender,
		Content:   rec.Content,
		Timestamp: rec.Timestamp,
		Edited:    rec.Edited,
	}
}
