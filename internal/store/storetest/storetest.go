// Package storetest holds the behaviour every store.Store implementation must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/contriboost/chat-relay/internal/store"
)

// Clock is a manually advanced clock for deterministic timestamps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Factory builds an empty, migrated store using the given clock.
type Factory func(t *testing.T, clock store.Clock) store.Store

// Run exercises the message store contract against a fresh store per subtest.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("CreateAssignsIDAndTimestamp", func(t *testing.T) {
		clock := NewClock(time.Unix(1_700_000_000, 0))
		st := newStore(t, clock.Now)
		ctx := context.Background()

		first, err := st.CreateMessage(ctx, "0xRoom", "0xAlice", "hi")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		clock.Advance(time.Second)
		second, err := st.CreateMessage(ctx, "0xOther", "0xBob", "yo")
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		if first.ID <= 0 || second.ID <= first.ID {
			t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
		}
		if first.Timestamp != 1_700_000_000 || second.Timestamp != 1_700_000_001 {
			t.Fatalf("unexpected timestamps %d, %d", first.Timestamp, second.Timestamp)
		}
		if first.Edited || first.Room != "0xRoom" || first.Sender != "0xAlice" || first.Content != "hi" {
			t.Fatalf("unexpected message: %+v", first)
		}

		got, err := st.GetMessage(ctx, "0xRoom", first.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if *got != *first {
			t.Fatalf("get returned %+v, want %+v", got, first)
		}
	})

	t.Run("GetIsScopedToRoom", func(t *testing.T) {
		st := newStore(t, time.Now)
		ctx := context.Background()

		msg, err := st.CreateMessage(ctx, "0xRoom", "0xAlice", "hi")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := st.GetMessage(ctx, "0xroom", msg.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("room keys are exact; expected ErrNotFound, got %v", err)
		}
		if _, err := st.GetMessage(ctx, "0xRoom", msg.ID+100); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateKeepsTimestampAndSetsEdited", func(t *testing.T) {
		clock := NewClock(time.Unix(1_700_000_000, 0))
		st := newStore(t, clock.Now)
		ctx := context.Background()

		msg, err := st.CreateMessage(ctx, "0xRoom", "0xAlice", "hi")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		clock.Advance(90 * time.Second)

		updated, err := st.UpdateMessageContent(ctx, "0xRoom", msg.ID, "hi!")
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Content != "hi!" || !updated.Edited || updated.Timestamp != msg.Timestamp {
			t.Fatalf("unexpected update result: %+v", updated)
		}

		if _, err := st.UpdateMessageContent(ctx, "0xOther", msg.ID, "x"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("update in another room should be ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteIsPermanentAndNotIdempotent", func(t *testing.T) {
		st := newStore(t, time.Now)
		ctx := context.Background()

		msg, err := st.CreateMessage(ctx, "0xRoom", "0xAlice", "hi")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := st.DeleteMessage(ctx, "0xRoom", msg.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := st.GetMessage(ctx, "0xRoom", msg.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := st.DeleteMessage(ctx, "0xRoom", msg.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("second delete should be ErrNotFound, got %v", err)
		}

		next, err := st.CreateMessage(ctx, "0xRoom", "0xAlice", "again")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if next.ID <= msg.ID {
			t.Fatalf("deleted id %d was reused as %d", msg.ID, next.ID)
		}
	})

	t.Run("ListReturnsSurvivorsInTimestampOrder", func(t *testing.T) {
		clock := NewClock(time.Unix(1_700_000_000, 0))
		st := newStore(t, clock.Now)
		ctx := context.Background()

		var ids []int64
		for _, content := range []string{"one", "two", "three", "four", "five"} {
			msg, err := st.CreateMessage(ctx, "0xRoom", "0xAlice", content)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			ids = append(ids, msg.ID)
			clock.Advance(time.Second)
		}
		if _, err := st.CreateMessage(ctx, "0xElsewhere", "0xBob", "noise"); err != nil {
			t.Fatalf("create: %v", err)
		}

		if _, err := st.UpdateMessageContent(ctx, "0xRoom", ids[1], "two!"); err != nil {
			t.Fatalf("update: %v", err)
		}
		if err := st.DeleteMessage(ctx, "0xRoom", ids[3]); err != nil {
			t.Fatalf("delete: %v", err)
		}

		list, err := st.ListMessages(ctx, "0xRoom")
		if err != nil {
			t.Fatalf("list: %v", err)
		}

		want := []struct {
			id      int64
			content string
			edited  bool
		}{
			{ids[0], "one", false},
			{ids[1], "two!", true},
			{ids[2], "three", false},
			{ids[4], "five", false},
		}
		if len(list) != len(want) {
			t.Fatalf("expected %d messages, got %d", len(want), len(list))
		}
		for i, w := range want {
			got := list[i]
			if got.ID != w.id || got.Content != w.content || got.Edited != w.edited {
				t.Errorf("message %d = %+v, want id=%d content=%q edited=%v", i, got, w.id, w.content, w.edited)
			}
			if i > 0 && got.Timestamp < list[i-1].Timestamp {
				t.Errorf("history out of order at %d", i)
			}
		}

		empty, err := st.ListMessages(ctx, "0xNobody")
		if err != nil {
			t.Fatalf("list empty: %v", err)
		}
		if len(empty) != 0 {
			t.Fatalf("expected no messages, got %d", len(empty))
		}
	})
}
