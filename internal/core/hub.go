package core

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Hub owns the live rooms. Rooms are created on first join and removed on last leave.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	closed bool

	log *zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		rooms: make(map[string]*Room),
		log:   logger,
	}
}

// Run blocks until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.Shutdown()
}

// Shutdown closes all clients and refuses further joins.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for name, room := range h.rooms {
		room.mu.Lock()
		for client := range room.clients {
			client.close()
		}
		room.clients = make(map[*Client]struct{})
		room.mu.Unlock()
		delete(h.rooms, name)
	}
	h.log.Info().Msg("hub stopped")
}

// Join adds a client to the room, creating the room if needed.
// The client's room is fixed by its first join.
func (h *Hub) Join(room string, client *Client) error {
	if room == "" || client == nil {
		return ErrBadRequest
	}
	if client.Room != "" && client.Room != room {
		return coreError(ErrCodeBadRequest, "client already bound to another room")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if client.Closed() {
		return ErrClientClosed
	}

	r, ok := h.rooms[room]
	if !ok {
		r = NewRoom(room)
		h.rooms[room] = r
	}

	r.mu.Lock()
	added := r.addClient(client)
	r.mu.Unlock()

	if !added {
		return ErrAlreadyJoined
	}
	if client.Room == "" {
		client.Room = room
	}

	h.log.Debug().Str("room", room).Str("client_id", client.ID).Str("identity", client.Identity).Msg("client joined")
	return nil
}

// Leave removes a client from the room and stops delivery to it.
// The room is dropped once empty. After Leave returns no broadcast reaches the client.
func (h *Hub) Leave(room string, client *Client) error {
	if client == nil {
		return ErrBadRequest
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	defer client.close()

	r, ok := h.rooms[room]
	if !ok {
		return ErrRoomNotFound
	}

	r.mu.Lock()
	removed := r.removeClient(client)
	empty := len(r.clients) == 0
	r.mu.Unlock()

	if !removed {
		return ErrNotInRoom
	}
	if empty {
		delete(h.rooms, room)
		h.log.Debug().Str("room", room).Msg("room closed")
	}

	h.log.Debug().Str("room", room).Str("client_id", client.ID).Msg("client left")
	return nil
}

// Broadcast delivers the event to every client currently in the room.
// Delivery is best effort: failures are logged and skipped. Returns the number of clients reached.
func (h *Hub) Broadcast(room string, event *Event) int {
	h.mu.Lock()
	r, ok := h.rooms[room]
	h.mu.Unlock()

	if !ok {
		return 0
	}

	delivered, failed := r.broadcast(event)
	for client, err := range failed {
		ev := h.log.Warn()
		if errors.Is(err, ErrClientClosed) {
			ev = h.log.Debug()
		}
		ev.Err(err).
			Str("room", room).
			Str("client_id", client.ID).
			Str("event", event.Kind.String()).
			Msg("dropped event for client")
	}
	return delivered
}

// RoomCount returns the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// ClientCount returns the number of clients in a room.
func (h *Hub) ClientCount(room string) int {
	h.mu.Lock()
	r, ok := h.rooms[room]
	h.mu.Unlock()

	if !ok {
		return 0
	}
	return r.size()
}
