// Package proto defines the JSON frames exchanged with chat clients.
package proto

const (
	ActionSend   = "send"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Inbound is a frame sent by a client on the streaming channel.
// A missing action means send.
type Inbound struct {
	Action    string `json:"action,omitempty"`
	MessageID int64  `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// MessageEvent announces a new or edited message.
type MessageEvent struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Edited    bool   `json:"edited"`
	Action    string `json:"action"`
}

// DeleteEvent announces that a message was removed.
type DeleteEvent struct {
	ID     int64  `json:"id"`
	Action string `json:"action"`
}

// Message is a history entry.
type Message struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Edited    bool   `json:"edited"`
}

// HistoryResponse is returned by the history endpoint.
type HistoryResponse struct {
	ContractAddress string    `json:"contract_address"`
	Messages        []Message `json:"messages"`
}

// EditRequest is the body of the edit endpoint.
type EditRequest struct {
	MessageID int64  `json:"message_id" binding:"required"`
	Content   string `json:"content"`
}

// StatusResponse acknowledges a successful modification.
type StatusResponse struct {
	Status string `json:"status"`
}

// Error is the body of every failed request.
type Error struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
}
