package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/service/friends"
	"github.com/webcrafter/webcrafter-server/internal/store"
)

// UserHandlers provides HTTP handlers for user profile endpoints.
type UserHandlers struct {
	service *friends.Service
	store   store.Store
	log     *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(svc *friends.Service, st store.Store, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		service: svc,
		store:   st,
		log:     logger,
	}
}

// UserResponse represents a user in API responses. The password hash never
// leaves the server.
type UserResponse struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
	Status   string `json:"status"`
}

func userToResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Nickname: u.Nickname,
		Email:    u.Email,
		Bio:      u.Bio,
		Status:   u.Status,
	}
}

// UpdateProfileRequest represents the profile update request body.
type UpdateProfileRequest struct {
	Bio    string `json:"bio"`
	Status string `json:"status"`
}

// Me returns the authenticated user's own profile.
// GET /api/users/me
func (h *UserHandlers) Me(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

// UpdateProfile updates the authenticated user's profile fields.
// PUT /api/users/me
func (h *UserHandlers) UpdateProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update profile request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.UpdateProfile(c.Request.Context(), uid, req.Bio, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

// Search finds users by exact nickname or email, excluding the caller.
// GET /api/users/search?q=keyword
func (h *UserHandlers) Search(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	keyword := c.Query("q")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing search keyword"})
		return
	}

	users, err := h.service.Search(c.Request.Context(), keyword, uid)
	if err != nil {
		h.log.Error().Err(err).Str("keyword", keyword).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userToResponse(u))
	}

	c.JSON(http.StatusOK, response)
}
