package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/contriboost/chat-relay/internal/config"
	"github.com/contriboost/chat-relay/internal/core"
	"github.com/contriboost/chat-relay/internal/store"
	"github.com/contriboost/chat-relay/internal/store/memory"
	"github.com/contriboost/chat-relay/internal/store/storetest"
	"github.com/contriboost/chat-relay/internal/verify"
)

const (
	testRoom  = "0x1111111111111111111111111111111111111111"
	testAlice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testBob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	testEve   = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
)

type testEnv struct {
	server  *httptest.Server
	handler http.Handler
	hub     *core.Hub
	manager *core.Manager
	clock   *storetest.Clock
	store   *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := storetest.NewClock(time.Unix(1_700_000_000, 0))
	st := memory.New(store.WithClock(clock.Now))
	hub := core.NewHub(nil)
	t.Cleanup(hub.Shutdown)
	manager := core.NewManager(st, hub, core.WithClock(clock.Now))

	verifier := verify.NewStatic(map[string][]string{
		testRoom: {testAlice, testBob},
	})

	logger := zerolog.Nop()
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.RateLimit = 0

	handler := NewHandler(manager, verifier, &cfg, &logger)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return &testEnv{
		server:  ts,
		handler: handler,
		hub:     hub,
		manager: manager,
		clock:   clock,
		store:   st,
	}
}

func (e *testEnv) wsURL(room string) string {
	return strings.Replace(e.server.URL, "http", "ws", 1) + "/ws/chat/" + room
}

func (e *testEnv) request(t *testing.T, method, path, wallet, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if wallet != "" {
		req.Header.Set(HeaderWalletAddress, wallet)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
