package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contriboost/chat-relay/internal/config"
	"github.com/contriboost/chat-relay/internal/core"
	"github.com/contriboost/chat-relay/internal/proto"
)

// WSHandler upgrades verified requests and bridges them to a core.Client.
type WSHandler struct {
	manager *core.Manager
	hub     *core.Hub
	log     *zerolog.Logger

	accept       *websocket.AcceptOptions
	readLimit    int64
	writeTimeout time.Duration
	clientBuffer int
	rateLimit    int
}

// NewWSHandler builds a websocket handler for the chat stream.
func NewWSHandler(manager *core.Manager, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		manager:      manager,
		hub:          manager.Hub(),
		log:          logger,
		accept:       acceptOptions(cfg.CORSOrigins),
		readLimit:    cfg.MaxMessageBytes,
		writeTimeout: cfg.IOTimeout,
		clientBuffer: cfg.ClientBuffer,
		rateLimit:    cfg.RateLimit,
	}
}

// acceptOptions turns configured CORS origins into websocket origin patterns.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, origin := range origins {
		if origin == "*" {
			opts.InsecureSkipVerify = true
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
	}
	return opts
}

// Handle serves GET /ws/chat/:contract_address. The caller is already verified.
func (h *WSHandler) Handle(c *gin.Context) {
	room := c.Param(roomParam)
	identity, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.Error{Error: "unauthorized"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, h.accept)
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	client := core.NewClient(uuid.NewString(), identity, room, h.clientBuffer)
	if err := h.hub.Join(room, client); err != nil {
		h.log.Warn().Err(err).Str("room", room).Str("client_id", client.ID).Msg("join room")
		conn.Close(websocket.StatusTryAgainLater, "room unavailable")
		return
	}
	defer func() {
		if err := h.hub.Leave(room, client); err != nil && !errors.Is(err, core.ErrRoomNotFound) {
			h.log.Debug().Err(err).Str("room", room).Str("client_id", client.ID).Msg("leave room")
		}
	}()

	h.log.Info().Str("room", room).Str("client_id", client.ID).Str("identity", identity).Msg("client connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel()
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Info().Str("room", room).Str("client_id", client.ID).Msg("client disconnected")
	conn.Close(status, reason)
}

// readLoop feeds inbound frames to the manager. Bad frames are skipped, never answered.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.rateLimit)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			h.log.Debug().Str("client_id", client.ID).Msg("ignoring binary frame")
			continue
		}
		if !limiter.allow() {
			h.log.Warn().Str("client_id", client.ID).Str("room", client.Room).Msg("rate limit exceeded, frame dropped")
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("ignoring malformed frame")
			continue
		}

		h.manager.Handle(ctx, client, inboundToAction(inbound))
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events():
			if !ok {
				return nil
			}
			if err := h.write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, v any) error {
	if h.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.writeTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, conn, v)
}
