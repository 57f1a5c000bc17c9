// Package verify decides whether a connecting wallet is a participant of a group.
// The relay trusts the identity a Verifier returns and never re-checks it.
package verify

import (
	"context"
	"errors"
)

var (
	// ErrMissingIdentity means the request carried no credential.
	ErrMissingIdentity = errors.New("missing wallet identity")
	// ErrInvalidToken means a signed credential failed validation.
	ErrInvalidToken = errors.New("invalid identity token")
	// ErrInvalidAddress means the claimed wallet is not a well-formed address.
	ErrInvalidAddress = errors.New("invalid wallet address")
	// ErrUnknownGroup means the room is not a registered group.
	ErrUnknownGroup = errors.New("unknown group")
	// ErrNotParticipant means the wallet is not a participant of the group.
	ErrNotParticipant = errors.New("not a participant of this group")
	// ErrUnavailable means the participant registry could not be reached.
	ErrUnavailable = errors.New("participant registry unavailable")
)

// Verifier resolves a claimed credential to a verified identity for a room.
// claimed is either a wallet address or, for token verifiers, a signed token.
type Verifier interface {
	Verify(ctx context.Context, claimed, room string) (string, error)
}

// Func adapts a plain function to a Verifier.
type Func func(ctx context.Context, claimed, room string) (string, error)

// Verify calls f.
func (f Func) Verify(ctx context.Context, claimed, room string) (string, error) {
	return f(ctx, claimed, room)
}
