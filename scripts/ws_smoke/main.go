package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/golang-jwt/jwt/v5"

	"github.com/contriboost/chat-relay/internal/proto"
	"github.com/contriboost/chat-relay/internal/verify"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("addr", "ws://localhost:8080", "relay base address")
	room := flag.String("room", "", "group contract address")
	wallet := flag.String("wallet", "", "wallet address to connect as")
	secret := flag.String("token-secret", "", "sign a participant token with this secret instead of sending the wallet header")
	text := flag.String("text", "hello from smoke test", "message content to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *room == "" || *wallet == "" {
		return fmt.Errorf("-room and -wallet are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	header := http.Header{}
	if *secret != "" {
		token, err := verify.IssueToken([]byte(*secret), verify.Claims{
			Wallet: *wallet,
			Groups: []string{*room},
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		header.Set("Authorization", "Bearer "+token)
	} else {
		header.Set("X-Wallet-Address", *wallet)
	}

	url := strings.TrimRight(*base, "/") + "/ws/chat/" + *room
	conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, proto.Inbound{Action: proto.ActionSend, Content: *text}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		var event proto.MessageEvent
		if err := wsjson.Read(ctx, conn, &event); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received: action=%s id=%d sender=%s content=%q ts=%d edited=%v\n",
			event.Action, event.ID, event.Sender, event.Content, event.Timestamp, event.Edited)

		if event.Action == proto.ActionSend && strings.EqualFold(event.Sender, *wallet) && event.Content == *text {
			return nil
		}
	}
}
