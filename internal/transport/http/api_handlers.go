package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/auth"
)

// APIHandlers provides HTTP handlers for authentication endpoints.
type APIHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Nickname string `json:"nickname" binding:"required,min=2,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token         string `json:"token"`
	RememberToken string `json:"rememberToken,omitempty"`
}

// RememberLoginRequest carries a previously issued remember token.
type RememberLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register handles user registration.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Register(c.Request.Context(), req.Nickname, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidNickname), errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("email", req.Email).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("email", req.Email).Msg("user registered successfully")
	c.JSON(http.StatusCreated, AuthResponse{Token: token})
}

// Login handles user login. With remember set, a long-lived remember token is
// issued alongside the JWT.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("email", req.Email).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := AuthResponse{Token: token}
	if req.Remember {
		claims, err := h.authService.ValidateToken(token)
		if err == nil {
			remember, remErr := h.authService.IssueRememberToken(c.Request.Context(), claims.UserID)
			if remErr != nil {
				h.log.Warn().Err(remErr).Int64("user_id", claims.UserID).Msg("failed to issue remember token")
			} else {
				resp.RememberToken = remember
			}
		}
	}

	h.log.Info().Str("email", req.Email).Msg("user logged in successfully")
	c.JSON(http.StatusOK, resp)
}

// RememberLogin exchanges a remember token for a fresh JWT plus a rotated
// remember token.
// POST /api/login/remember
func (h *APIHandlers) RememberLogin(c *gin.Context) {
	var req RememberLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid remember login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, nextToken, err := h.authService.LoginWithRememberToken(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRememberToken) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid remember token"})
			return
		}
		h.log.Error().Err(err).Msg("failed to login with remember token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, RememberToken: nextToken})
}
