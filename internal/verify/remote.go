package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Remote asks a participant registry service over HTTP:
//
//	GET {base}/groups/{room}/participants/{wallet} -> {"group": bool, "participant": bool}
type Remote struct {
	base   string
	client *http.Client
}

// RemoteOption customizes a Remote verifier.
type RemoteOption func(*Remote)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.client = c }
}

// NewRemote creates a verifier backed by the registry at baseURL.
func NewRemote(baseURL string, opts ...RemoteOption) *Remote {
	r := &Remote{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type registryAnswer struct {
	Group       bool `json:"group"`
	Participant bool `json:"participant"`
}

// Verify implements Verifier.
func (r *Remote) Verify(ctx context.Context, claimed, room string) (string, error) {
	if claimed == "" {
		return "", ErrMissingIdentity
	}
	if !ValidAddress(claimed) || !ValidAddress(room) {
		return "", ErrInvalidAddress
	}

	endpoint := fmt.Sprintf("%s/groups/%s/participants/%s", r.base, url.PathEscape(room), url.PathEscape(claimed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: registry returned %d", ErrUnavailable, resp.StatusCode)
	}

	var answer registryAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("%w: decode registry answer: %v", ErrUnavailable, err)
	}

	switch {
	case !answer.Group:
		return "", ErrUnknownGroup
	case !answer.Participant:
		return "", ErrNotParticipant
	}
	return claimed, nil
}
