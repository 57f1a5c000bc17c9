package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/contriboost/chat-relay/internal/core"
	"github.com/contriboost/chat-relay/internal/proto"
)

// ChatHandlers serves the request/response chat endpoints.
type ChatHandlers struct {
	manager *core.Manager
	log     *zerolog.Logger
}

// NewChatHandlers creates chat handlers backed by the lifecycle manager.
func NewChatHandlers(manager *core.Manager, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{manager: manager, log: logger}
}

// History returns the room's messages, oldest first.
// GET /chat/history/:contract_address
func (h *ChatHandlers) History(c *gin.Context) {
	room := c.Param(roomParam)

	msgs, err := h.manager.History(c.Request.Context(), room)
	if err != nil {
		h.fail(c, err, room, 0)
		return
	}

	c.JSON(http.StatusOK, historyFromMessages(room, msgs))
}

// Edit replaces the content of the caller's message.
// POST /chat/edit/:contract_address
func (h *ChatHandlers) Edit(c *gin.Context) {
	room := c.Param(roomParam)
	identity, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.Error{Error: "unauthorized"})
		return
	}

	var req proto.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid edit request")
		c.JSON(http.StatusBadRequest, proto.Error{Code: core.ErrCodeBadRequest, Error: "invalid request body"})
		return
	}

	if _, err := h.manager.Edit(c.Request.Context(), room, identity, req.MessageID, req.Content); err != nil {
		h.fail(c, err, room, req.MessageID)
		return
	}

	h.log.Info().Str("room", room).Str("identity", identity).Int64("message_id", req.MessageID).Msg("message edited")
	c.JSON(http.StatusOK, proto.StatusResponse{Status: "success"})
}

// Delete removes the caller's message.
// DELETE /chat/delete/:contract_address/:message_id
func (h *ChatHandlers) Delete(c *gin.Context) {
	room := c.Param(roomParam)
	identity, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.Error{Error: "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, proto.Error{Code: core.ErrCodeBadRequest, Error: "invalid message id"})
		return
	}

	if err := h.manager.Delete(c.Request.Context(), room, identity, id); err != nil {
		h.fail(c, err, room, id)
		return
	}

	h.log.Info().Str("room", room).Str("identity", identity).Int64("message_id", id).Msg("message deleted")
	c.JSON(http.StatusOK, proto.StatusResponse{Status: "success"})
}

func (h *ChatHandlers) fail(c *gin.Context, err error, room string, id int64) {
	body := proto.Error{Code: core.Code(err)}

	var forbidden *core.ForbiddenError
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		body.Error = "invalid request"
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, core.ErrMessageNotFound):
		body.Error = "message not found"
		c.JSON(http.StatusNotFound, body)
	case errors.As(err, &forbidden):
		body.Error = "forbidden"
		body.Reason = string(forbidden.Reason)
		c.JSON(http.StatusForbidden, body)
	default:
		h.log.Error().Err(err).Str("room", room).Int64("message_id", id).Msg("chat request failed")
		body.Error = "internal server error"
		c.JSON(http.StatusInternalServerError, body)
	}
}
