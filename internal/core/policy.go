package core

import (
	"strings"
	"time"
)

// EditWindow is how long after creation a sender may still edit a message.
const EditWindow = 300 * time.Second

// DenyReason explains why a modification was refused.
type DenyReason string

const (
	ReasonNotOwner      DenyReason = "not-owner"
	ReasonWindowExpired DenyReason = "window-expired"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Err returns nil when allowed and a *ForbiddenError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &ForbiddenError{Reason: d.Reason}
}

func allow() Decision                 { return Decision{Allowed: true} }
func deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// Policy decides whether an identity may modify a message. It performs no I/O.
type Policy struct {
	// Window overrides EditWindow when positive.
	Window time.Duration
}

func (p Policy) window() int64 {
	if p.Window > 0 {
		return int64(p.Window / time.Second)
	}
	return int64(EditWindow / time.Second)
}

// CanEdit allows the sender to edit while now - timestamp <= window.
// A message exactly window seconds old is still editable.
func (p Policy) CanEdit(msg Message, actor string, now time.Time) Decision {
	if !sameIdentity(msg.Sender, actor) {
		return deny(ReasonNotOwner)
	}
	if now.Unix()-msg.Timestamp > p.window() {
		return deny(ReasonWindowExpired)
	}
	return allow()
}

// CanDelete only checks ownership; deletion has no time limit.
func (p Policy) CanDelete(msg Message, actor string, _ time.Time) Decision {
	if !sameIdentity(msg.Sender, actor) {
		return deny(ReasonNotOwner)
	}
	return allow()
}

// sameIdentity compares wallet identities case-insensitively. Room ids are never folded.
func sameIdentity(a, b string) bool {
	return strings.EqualFold(a, b)
}
