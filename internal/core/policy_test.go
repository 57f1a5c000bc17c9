package core

import (
	"errors"
	"testing"
	"time"
)

func unix(sec int64) time.Time { return time.Unix(sec, 0) }

func TestPolicyCanEdit(t *testing.T) {
	msg := Message{ID: 1, Sender: "0xAlice", Timestamp: 1_000}
	p := Policy{}

	tests := []struct {
		name   string
		actor  string
		now    int64
		allow  bool
		reason DenyReason
	}{
		{name: "owner immediately", actor: "0xAlice", now: 1_000, allow: true},
		{name: "owner different case", actor: "0xALICE", now: 1_100, allow: true},
		{name: "exactly at window", actor: "0xAlice", now: 1_300, allow: true},
		{name: "one second past window", actor: "0xAlice", now: 1_301, reason: ReasonWindowExpired},
		{name: "non owner", actor: "0xBob", now: 1_000, reason: ReasonNotOwner},
		{name: "non owner after window", actor: "0xBob", now: 5_000, reason: ReasonNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.CanEdit(msg, tt.actor, unix(tt.now))
			if d.Allowed != tt.allow || d.Reason != tt.reason {
				t.Fatalf("got %+v, want allowed=%v reason=%q", d, tt.allow, tt.reason)
			}
		})
	}
}

func TestPolicyCanDeleteHasNoWindow(t *testing.T) {
	msg := Message{ID: 1, Sender: "0xalice", Timestamp: 1_000}
	p := Policy{}

	if d := p.CanDelete(msg, "0xAlice", unix(1_000_000)); !d.Allowed {
		t.Fatalf("owner delete denied: %+v", d)
	}
	d := p.CanDelete(msg, "0xbob", unix(1_000))
	if d.Allowed || d.Reason != ReasonNotOwner {
		t.Fatalf("non-owner delete: got %+v", d)
	}
}

func TestPolicyCustomWindow(t *testing.T) {
	p := Policy{Window: 10 * time.Second}
	msg := Message{Sender: "0xa", Timestamp: 100}

	if !p.CanEdit(msg, "0xa", unix(110)).Allowed {
		t.Fatal("expected edit at window boundary to be allowed")
	}
	if p.CanEdit(msg, "0xa", unix(111)).Allowed {
		t.Fatal("expected edit past window to be denied")
	}
}

func TestDecisionErr(t *testing.T) {
	if err := allow().Err(); err != nil {
		t.Fatalf("allowed decision returned %v", err)
	}

	err := deny(ReasonWindowExpired).Err()
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	var fe *ForbiddenError
	if !errors.As(err, &fe) || fe.Reason != ReasonWindowExpired {
		t.Fatalf("expected ForbiddenError with window-expired, got %v", err)
	}
	if Code(err) != ErrCodeForbidden {
		t.Fatalf("code %q, want %q", Code(err), ErrCodeForbidden)
	}
}
