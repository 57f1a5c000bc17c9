package core

import (
	"errors"
	"sync"
)

var (
	// ErrClientClosed is returned when delivering to a client that already left.
	ErrClientClosed = errors.New("client closed")
	// ErrSlowConsumer is returned when a client's event buffer is full.
	ErrSlowConsumer = errors.New("client event buffer full")
)

const defaultClientBuffer = 32

// Client is a live connection as seen by the core layer.
// It belongs to exactly one room and carries the verified identity.
type Client struct {
	ID       string
	Identity string
	Room     string

	events chan *Event

	mu     sync.Mutex
	closed bool
}

// NewClient constructs a client with a buffered event stream.
func NewClient(id, identity, room string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		ID:       id,
		Identity: identity,
		Room:     room,
		events:   make(chan *Event, buffer),
	}
}

// Events is drained by the transport's write loop. It is closed when the client leaves.
func (c *Client) Events() <-chan *Event {
	return c.events
}

// deliver enqueues an event without blocking.
func (c *Client) deliver(ev *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.events <- ev:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// close stops any further delivery. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// Closed reports whether the client stopped receiving events.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
