package verify

import (
	"context"
	"strings"
)

// Static verifies against a fixed participant list per group.
// Group keys and wallets are matched case-insensitively.
type Static struct {
	groups map[string]map[string]struct{}
}

// NewStatic builds a Static verifier from group -> wallets.
func NewStatic(participants map[string][]string) *Static {
	groups := make(map[string]map[string]struct{}, len(participants))
	for group, wallets := range participants {
		set := make(map[string]struct{}, len(wallets))
		for _, w := range wallets {
			set[strings.ToLower(w)] = struct{}{}
		}
		groups[strings.ToLower(group)] = set
	}
	return &Static{groups: groups}
}

// Verify implements Verifier.
func (s *Static) Verify(_ context.Context, claimed, room string) (string, error) {
	if claimed == "" {
		return "", ErrMissingIdentity
	}
	if !ValidAddress(claimed) || !ValidAddress(room) {
		return "", ErrInvalidAddress
	}

	members, ok := s.groups[strings.ToLower(room)]
	if !ok {
		return "", ErrUnknownGroup
	}
	if _, ok := members[strings.ToLower(claimed)]; !ok {
		return "", ErrNotParticipant
	}
	return claimed, nil
}
