package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/service/friends"
	"github.com/webcrafter/webcrafter-server/internal/store"
)

// FriendsHandlers provides HTTP handlers for friend and notification endpoints.
type FriendsHandlers struct {
	service *friends.Service
	log     *zerolog.Logger
}

// NewFriendsHandlers creates a new friends handlers instance.
func NewFriendsHandlers(svc *friends.Service, logger *zerolog.Logger) *FriendsHandlers {
	return &FriendsHandlers{
		service: svc,
		log:     logger,
	}
}

// SendFriendRequestRequest represents the request body for sending a friend request.
type SendFriendRequestRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// ResolveRequestRequest identifies the request being accepted or rejected and
// the notification that carried it.
type ResolveRequestRequest struct {
	SenderID       int64 `json:"senderId" binding:"required"`
	NotificationID int64 `json:"notificationId" binding:"required"`
}

// SendRequest handles sending a friend request.
// POST /api/friends/requests
func (h *FriendsHandlers) SendRequest(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send friend request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.service.SendRequest(c.Request.Context(), uid, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrCannotFriendSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot send friend request to yourself"})
		case errors.Is(err, friends.ErrRelationExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "relation already exists"})
		case errors.Is(err, friends.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		default:
			h.log.Error().Err(err).Int64("from_user_id", uid).Int64("to_user_id", req.UserID).Msg("failed to send friend request")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Int64("from_user_id", uid).Int64("to_user_id", req.UserID).Msg("friend request sent")
	c.JSON(http.StatusCreated, gin.H{"message": "friend request sent"})
}

// ListFriends handles listing accepted friends with live connect status.
// GET /api/friends
func (h *FriendsHandlers) ListFriends(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	list, err := h.service.FriendList(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list friends")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, list)
}

// AcceptRequest handles accepting a friend request.
// POST /api/friends/accept
func (h *FriendsHandlers) AcceptRequest(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ResolveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid accept friend request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.service.AcceptRequest(c.Request.Context(), uid, req.SenderID, req.NotificationID)
	if err != nil {
		if errors.Is(err, friends.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "friend request not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Int64("sender_id", req.SenderID).Msg("failed to accept friend request")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", uid).Int64("sender_id", req.SenderID).Msg("friend request accepted")
	c.JSON(http.StatusOK, gin.H{"message": "friend request accepted"})
}

// RejectRequest handles rejecting a friend request.
// POST /api/friends/reject
func (h *FriendsHandlers) RejectRequest(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ResolveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid reject friend request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.service.RejectRequest(c.Request.Context(), uid, req.SenderID, req.NotificationID)
	if err != nil {
		if errors.Is(err, friends.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "friend request not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Int64("sender_id", req.SenderID).Msg("failed to reject friend request")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", uid).Int64("sender_id", req.SenderID).Msg("friend request rejected")
	c.JSON(http.StatusOK, gin.H{"message": "friend request rejected"})
}

// DeleteFriend handles removing a friendship and its chat history.
// DELETE /api/friends/:userId
func (h *FriendsHandlers) DeleteFriend(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	friendID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		h.log.Debug().Str("user_id", c.Param("userId")).Msg("invalid user id")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	if err := h.service.DeleteFriend(c.Request.Context(), uid, friendID); err != nil {
		if errors.Is(err, friends.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "friendship not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Int64("friend_id", friendID).Msg("failed to delete friend")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", uid).Int64("friend_id", friendID).Msg("friend deleted")
	c.JSON(http.StatusOK, gin.H{"message": "friend deleted"})
}

// ListNotifications handles reading the caller's notification inbox.
// GET /api/notifications
func (h *FriendsHandlers) ListNotifications(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	list, err := h.service.Notifications(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list notifications")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if list == nil {
		list = []*store.Notification{}
	}

	c.JSON(http.StatusOK, list)
}
