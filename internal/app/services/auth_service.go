package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/auth"
)

// Session is the outcome of a successful login
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles login and session lookups
type AuthService interface {
	Login(ctx context.Context, userID, password string) (*Session, error)
	CurrentUser(ctx context.Context, id int64) (*models.User, error)
}

type authService struct {
	users      UserStore
	jwtService *auth.JWTService
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates a user by login name and password. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, userID, password string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.CheckPassword(user.Password, password) {
		s.logger.Info().Str("userID", userID).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	token, expiresAt, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Not fatal for the login itself
		s.logger.Warn().Err(err).Int64("id", user.ID).Msg("Failed to update last login time")
	} else {
		user.LastLoginAt = &now
	}

	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// CurrentUser reloads the signed-in user. SessionAuth calls it on every
// request, so accounts disabled or deleted after login lose their session.
func (s *authService) CurrentUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return user, nil
}
