package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/webcrafter/webcrafter-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with an existing email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidNickname is returned when the nickname doesn't meet constraints.
	ErrInvalidNickname = errors.New("invalid nickname")
	// ErrInvalidPassword is returned when the password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidRememberToken is returned for unknown or expired remember tokens.
	ErrInvalidRememberToken = errors.New("invalid remember token")
)

const rememberTokenTTL = 30 * 24 * time.Hour

// Service provides authentication operations.
type Service struct {
	store     store.Store
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(st store.Store, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     st,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new user with hashed password and returns a JWT token.
func (s *Service) Register(ctx context.Context, nickname, email, password string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	email = strings.TrimSpace(email)
	if len(nickname) < 2 || len(nickname) > 32 {
		return "", ErrInvalidNickname
	}
	if len(password) < 6 {
		return "", ErrInvalidPassword
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, nickname, email, hashedPassword)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Nickname)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// Login validates credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Nickname)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// IssueRememberToken stores a long-lived login token for the user.
func (s *Service) IssueRememberToken(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	err := s.store.CreateRememberToken(ctx, &store.RememberToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(rememberTokenTTL),
	})
	if err != nil {
		return "", fmt.Errorf("store remember token: %w", err)
	}
	return token, nil
}

// LoginWithRememberToken exchanges a stored remember token for a fresh JWT.
// The remember token is rotated: the old one is deleted and a new one issued.
func (s *Service) LoginWithRememberToken(ctx context.Context, token string) (jwtToken, nextToken string, err error) {
	remembered, err := s.store.GetRememberToken(ctx, token)
	if err != nil {
		return "", "", ErrInvalidRememberToken
	}

	user, err := s.store.GetUserByID(ctx, remembered.UserID)
	if err != nil {
		return "", "", ErrInvalidRememberToken
	}

	if err := s.store.DeleteRememberToken(ctx, token); err != nil {
		return "", "", fmt.Errorf("rotate remember token: %w", err)
	}
	nextToken, err = s.IssueRememberToken(ctx, user.ID)
	if err != nil {
		return "", "", err
	}

	jwtToken, err = GenerateToken(s.jwtConfig, user.ID, user.Nickname)
	if err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}

	return jwtToken, nextToken, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
