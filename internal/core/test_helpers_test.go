package core

import (
	"testing"
	"time"

	storepkg "github.com/contriboost/chat-relay/internal/store"
	"github.com/contriboost/chat-relay/internal/store/memory"
	"github.com/contriboost/chat-relay/internal/store/storetest"
)

func mustEvent(t *testing.T, c *Client, kind EventKind) *Event {
	t.Helper()

	select {
	case ev, ok := <-c.Events():
		if !ok {
			t.Fatalf("client %s closed while waiting for %v", c.ID, kind)
		}
		if ev.Kind != kind {
			t.Fatalf("client %s: got event %v, want %v", c.ID, ev.Kind, kind)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s: expected event %v not received", c.ID, kind)
	}
	return nil
}

func expectNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case ev, ok := <-c.Events():
		if ok {
			t.Fatalf("client %s: unexpected event %+v", c.ID, ev)
		}
	default:
	}
}

func joinClient(t *testing.T, hub *Hub, id, identity, room string) *Client {
	t.Helper()

	c := NewClient(id, identity, room, 16)
	if err := hub.Join(room, c); err != nil {
		t.Fatalf("join %s to %s: %v", id, room, err)
	}
	return c
}

type fixture struct {
	clock   *storetest.Clock
	store   *memory.Store
	hub     *Hub
	manager *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := storetest.NewClock(time.Unix(1_700_000_000, 0))
	st := memory.New(storepkg.WithClock(clock.Now))
	hub := NewHub(nil)
	t.Cleanup(hub.Shutdown)

	return &fixture{
		clock:   clock,
		store:   st,
		hub:     hub,
		manager: NewManager(st, hub, WithClock(clock.Now)),
	}
}
