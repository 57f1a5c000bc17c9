package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contriboost/chat-relay/internal/verify"
)

func TestCredentialFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header map[string]string
		want   string
	}{
		{"bearer wins", "/x?address=0xq", map[string]string{"Authorization": "Bearer tok", HeaderWalletAddress: "0xh"}, "tok"},
		{"wallet header", "/x?address=0xq", map[string]string{HeaderWalletAddress: " 0xh "}, "0xh"},
		{"token query", "/x?token=qt&address=0xq", nil, "qt"},
		{"address query", "/x?address=0xq", nil, "0xq"},
		{"non bearer auth ignored", "/x", map[string]string{"Authorization": "Basic abc"}, ""},
		{"nothing", "/x", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := credentialFromRequest(req); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVerifyStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{verify.ErrMissingIdentity, http.StatusUnauthorized},
		{verify.ErrInvalidToken, http.StatusUnauthorized},
		{verify.ErrInvalidAddress, http.StatusBadRequest},
		{verify.ErrUnknownGroup, http.StatusBadRequest},
		{verify.ErrNotParticipant, http.StatusForbidden},
		{fmt.Errorf("%w: timeout", verify.ErrUnavailable), http.StatusServiceUnavailable},
		{errors.New("other"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		if got := verifyStatus(tt.err); got != tt.want {
			t.Errorf("verifyStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	r := newRateLimiter(3)
	for i := 0; i < 3; i++ {
		if !r.allow() {
			t.Fatalf("frame %d rejected within burst", i)
		}
	}
	if r.allow() {
		t.Fatal("expected limiter to reject after burst")
	}

	unlimited := newRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !unlimited.allow() {
			t.Fatal("disabled limiter rejected a frame")
		}
	}
}
