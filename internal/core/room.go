package core

import "sync"

// Room groups the live clients of one group contract.
// The room mutex serializes membership changes and broadcasts, so every
// member sees the room's events in the same order.
type Room struct {
	Name string

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewRoom constructs a room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// addClient inserts a client. Returns true if newly added.
// Callers hold r.mu.
func (r *Room) addClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// removeClient deletes a client. Returns true if removed.
// Callers hold r.mu.
func (r *Room) removeClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// broadcast delivers to every client and returns the failures keyed by client.
func (r *Room) broadcast(event *Event) (delivered int, failed map[*Client]error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for client := range r.clients {
		if err := client.deliver(event); err != nil {
			if failed == nil {
				failed = make(map[*Client]error)
			}
			failed[client] = err
			continue
		}
		delivered++
	}
	return delivered, failed
}

// size returns the number of clients in the room.
func (r *Room) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
