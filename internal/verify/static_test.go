package verify

import (
	"context"
	"errors"
	"testing"
)

const (
	testGroup = "0x1111111111111111111111111111111111111111"
	testAlice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testBob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func TestStaticVerify(t *testing.T) {
	v := NewStatic(map[string][]string{
		testGroup: {"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
	})
	ctx := context.Background()

	identity, err := v.Verify(ctx, testAlice, testGroup)
	if err != nil {
		t.Fatalf("verify alice: %v", err)
	}
	if identity != testAlice {
		t.Fatalf("identity %q, want %q", identity, testAlice)
	}

	tests := []struct {
		name    string
		claimed string
		room    string
		want    error
	}{
		{"missing", "", testGroup, ErrMissingIdentity},
		{"malformed wallet", "0x123", testGroup, ErrInvalidAddress},
		{"bad checksum", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD", testGroup, ErrInvalidAddress},
		{"malformed group", testAlice, "general", ErrInvalidAddress},
		{"unknown group", testAlice, "0x2222222222222222222222222222222222222222", ErrUnknownGroup},
		{"not participant", testBob, testGroup, ErrNotParticipant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(ctx, tt.claimed, tt.room); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}
