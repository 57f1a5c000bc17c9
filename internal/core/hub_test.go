package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestHubJoinBroadcastAndLeave(t *testing.T) {
	hub := NewHub(nil)
	alice := joinClient(t, hub, "a", "0xalice", "0xroom")
	bob := joinClient(t, hub, "b", "0xbob", "0xroom")

	msg := Message{ID: 1, Room: "0xroom", Sender: "0xalice", Content: "hi", Timestamp: 10}
	if n := hub.Broadcast("0xroom", sentEvent(msg)); n != 2 {
		t.Fatalf("delivered to %d clients, want 2", n)
	}

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c, EventMessageSent)
		if ev.Message.Content != "hi" || ev.Room != "0xroom" {
			t.Fatalf("unexpected event for %s: %+v", c.ID, ev)
		}
	}

	if err := hub.Leave("0xroom", alice); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if !alice.Closed() {
		t.Fatal("expected alice to be closed after leave")
	}

	hub.Broadcast("0xroom", deletedEvent("0xroom", 1))
	mustEvent(t, bob, EventMessageDeleted)
	if _, ok := <-alice.Events(); ok {
		t.Fatal("alice received an event after leaving")
	}
}

func TestHubDoesNotDeliverAcrossRooms(t *testing.T) {
	hub := NewHub(nil)
	a := joinClient(t, hub, "a", "0xalice", "0xroom1")
	b := joinClient(t, hub, "b", "0xbob", "0xroom2")

	hub.Broadcast("0xroom1", sentEvent(Message{ID: 1, Room: "0xroom1", Content: "x"}))

	mustEvent(t, a, EventMessageSent)
	expectNoEvent(t, b)
}

func TestHubRoomIDsAreCaseSensitive(t *testing.T) {
	hub := NewHub(nil)
	lower := joinClient(t, hub, "a", "0xalice", "0xabc")
	upper := joinClient(t, hub, "b", "0xbob", "0xABC")

	if hub.RoomCount() != 2 {
		t.Fatalf("room count %d, want 2", hub.RoomCount())
	}

	hub.Broadcast("0xABC", sentEvent(Message{ID: 1, Room: "0xABC", Content: "x"}))
	mustEvent(t, upper, EventMessageSent)
	expectNoEvent(t, lower)
}

func TestHubNoDeliveryBeforeJoin(t *testing.T) {
	hub := NewHub(nil)
	joinClient(t, hub, "a", "0xalice", "0xroom")

	hub.Broadcast("0xroom", sentEvent(Message{ID: 1, Room: "0xroom", Content: "early"}))

	late := joinClient(t, hub, "b", "0xbob", "0xroom")
	expectNoEvent(t, late)
}

func TestHubEmptyRoomIsRemoved(t *testing.T) {
	hub := NewHub(nil)
	a := joinClient(t, hub, "a", "0xalice", "0xroom")
	b := joinClient(t, hub, "b", "0xbob", "0xroom")

	if got := hub.ClientCount("0xroom"); got != 2 {
		t.Fatalf("client count %d, want 2", got)
	}

	if err := hub.Leave("0xroom", a); err != nil {
		t.Fatalf("leave a: %v", err)
	}
	if hub.RoomCount() != 1 {
		t.Fatalf("room removed while bob still present")
	}
	if err := hub.Leave("0xroom", b); err != nil {
		t.Fatalf("leave b: %v", err)
	}
	if hub.RoomCount() != 0 {
		t.Fatalf("room count %d after last leave, want 0", hub.RoomCount())
	}
	if n := hub.Broadcast("0xroom", deletedEvent("0xroom", 1)); n != 0 {
		t.Fatalf("broadcast to removed room reached %d clients", n)
	}
}

func TestHubJoinErrors(t *testing.T) {
	hub := NewHub(nil)
	a := joinClient(t, hub, "a", "0xalice", "0xroom")

	if err := hub.Join("0xroom", a); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("double join: got %v, want ErrAlreadyJoined", err)
	}
	if err := hub.Join("0xother", a); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("join other room: got %v, want ErrBadRequest", err)
	}
	if err := hub.Join("", NewClient("x", "0xx", "", 1)); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("empty room: got %v, want ErrBadRequest", err)
	}

	stranger := NewClient("s", "0xs", "0xroom", 1)
	if err := hub.Leave("0xroom", stranger); !errors.Is(err, ErrNotInRoom) {
		t.Fatalf("leave without join: got %v, want ErrNotInRoom", err)
	}
	if err := hub.Leave("0xmissing", NewClient("m", "0xm", "0xmissing", 1)); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("leave missing room: got %v, want ErrRoomNotFound", err)
	}
}

func TestHubSlowConsumerDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(nil)
	slow := NewClient("slow", "0xslow", "0xroom", 1)
	if err := hub.Join("0xroom", slow); err != nil {
		t.Fatalf("join: %v", err)
	}
	fast := joinClient(t, hub, "fast", "0xfast", "0xroom")

	for i := 1; i <= 3; i++ {
		hub.Broadcast("0xroom", sentEvent(Message{ID: int64(i), Room: "0xroom", Content: "m"}))
	}

	for i := 1; i <= 3; i++ {
		ev := mustEvent(t, fast, EventMessageSent)
		if ev.Message.ID != int64(i) {
			t.Fatalf("fast client got id %d, want %d", ev.Message.ID, i)
		}
	}
	if ev := mustEvent(t, slow, EventMessageSent); ev.Message.ID != 1 {
		t.Fatalf("slow client got id %d, want 1", ev.Message.ID)
	}
	expectNoEvent(t, slow)
}

func TestHubPreservesPerRoomOrder(t *testing.T) {
	hub := NewHub(nil)
	const total = 50
	a := NewClient("a", "0xa", "0xroom", total)
	b := NewClient("b", "0xb", "0xroom", total)
	for _, c := range []*Client{a, b} {
		if err := hub.Join("0xroom", c); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			hub.Broadcast("0xroom", sentEvent(Message{ID: id, Room: "0xroom", Content: "m"}))
		}(int64(i))
	}
	wg.Wait()

	for i := 0; i < total; i++ {
		ea := mustEvent(t, a, EventMessageSent)
		eb := mustEvent(t, b, EventMessageSent)
		if ea.Message.ID != eb.Message.ID {
			t.Fatalf("position %d: a saw %d, b saw %d", i, ea.Message.ID, eb.Message.ID)
		}
	}
}

func TestHubConcurrentJoinLeaveBroadcast(t *testing.T) {
	hub := NewHub(nil)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room := fmt.Sprintf("0xroom%d", i%3)
			c := NewClient(fmt.Sprintf("c%d", i), "0xuser", room, 4)
			if err := hub.Join(room, c); err != nil {
				t.Errorf("join: %v", err)
				return
			}
			for j := 0; j < 10; j++ {
				hub.Broadcast(room, sentEvent(Message{ID: int64(j), Room: room, Content: "m"}))
			}
			if err := hub.Leave(room, c); err != nil {
				t.Errorf("leave: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if hub.RoomCount() != 0 {
		t.Fatalf("room count %d after all clients left, want 0", hub.RoomCount())
	}
}

func TestHubRunShutsDownOnCancel(t *testing.T) {
	hub := NewHub(nil)
	c := joinClient(t, hub, "a", "0xalice", "0xroom")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if !c.Closed() {
		t.Fatal("client still open after shutdown")
	}
	if err := hub.Join("0xroom", NewClient("b", "0xbob", "0xroom", 1)); !errors.Is(err, ErrHubClosed) {
		t.Fatalf("join after shutdown: got %v, want ErrHubClosed", err)
	}
}
