package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/realtime"
	"github.com/webcrafter/webcrafter-server/internal/service/chat"
	"github.com/webcrafter/webcrafter-server/internal/store"
)

// ChatHandlers provides HTTP handlers for chat history endpoints.
type ChatHandlers struct {
	service *chat.Service
	log     *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(svc *chat.Service, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		service: svc,
		log:     logger,
	}
}

// SendMessageRequest represents a message posted over REST rather than the socket.
type SendMessageRequest struct {
	ReceiverID int64  `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// History handles reading a channel's message history. The channel id in the
// URL may list the pair in either order.
// GET /api/chat/:channelId
func (h *ChatHandlers) History(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	messages, err := h.service.History(c.Request.Context(), c.Param("channelId"))
	if err != nil {
		if errors.Is(err, realtime.ErrInvalidChannelID) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid channel id"})
			return
		}
		h.log.Error().Err(err).Str("channel_id", c.Param("channelId")).Msg("failed to read chat history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if messages == nil {
		messages = []*store.ChatMessage{}
	}

	c.JSON(http.StatusOK, messages)
}

// HistoryWith is a convenience variant addressed by the peer's user id.
// GET /api/chat/with/:userId
func (h *ChatHandlers) HistoryWith(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	peerID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	messages, err := h.service.History(c.Request.Context(), realtime.DirectChannelID(uid, peerID))
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Int64("peer_id", peerID).Msg("failed to read chat history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if messages == nil {
		messages = []*store.ChatMessage{}
	}

	c.JSON(http.StatusOK, messages)
}

// Send handles posting a direct message over REST. Delivery to connected
// parties still happens on their personal chat topics.
// POST /api/chat
func (h *ChatHandlers) Send(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.service.Send(c.Request.Context(), uid, req.ReceiverID, req.Content)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message content is empty"})
			return
		}
		h.log.Error().Err(err).Int64("sender_id", uid).Int64("receiver_id", req.ReceiverID).Msg("failed to send message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}
