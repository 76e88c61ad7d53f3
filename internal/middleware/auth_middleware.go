package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appAuth "github.com/yigit/schooladmin/internal/app/auth"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/auth"
)

// SessionTokenKey is the session value holding the signed session token
const SessionTokenKey = "token"

// Context keys set by SessionAuth
const (
	ContextUserID     = "userID"
	ContextUserRef    = "userRef"
	ContextRoleType   = "roleType"
	ContextStudentRef = "studentRef"
)

// AccountLoader reloads the account behind a session. It returns
// ErrTokenInvalid for a deleted account and ErrAccountDisabled for an
// inactive one.
type AccountLoader interface {
	CurrentUser(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	accounts   AccountLoader
	logger     zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, accounts AccountLoader, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		accounts:   accounts,
		logger:     logger,
	}
}

// SessionAuth reads the token from the session cookie, reloads the account
// and puts the caller's identity on the context. Role and student link come
// from the stored account, not the token, so changes apply immediately.
// An expired token clears the session and answers SESSION_EXPIRED so the
// frontend can tell it apart from a missing login.
func (m *AuthMiddleware) SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(SessionTokenKey).(string)
		if token == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			if errors.Is(err, apperrors.ErrTokenExpired) {
				ClearSession(c)
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeSessionExpired, "Session expired, please sign in again")
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
				return
			}

			m.logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Rejected session token")
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").
				WithDetails("Invalid session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		user, err := m.accounts.CurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrAccountDisabled) {
				m.logger.Info().Err(err).Int64("userID", claims.UserID).Msg("Session of unavailable account rejected")
				ClearSession(c)
			}
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		var studentRef string
		if user.StudentRef != nil {
			studentRef = *user.StudentRef
		}
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRef, user.UserID)
		c.Set(ContextRoleType, string(user.Role))
		c.Set(ContextStudentRef, studentRef)

		c.Next()
	}
}

// RoleRequired allows the request only when the caller holds one of roles
func (m *AuthMiddleware) RoleRequired(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role, exists := c.Get(ContextRoleType)
		if !exists {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		roleStr, ok := role.(string)
		if !ok || !allowed[roleStr] {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("You don't have sufficient permissions for this operation")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

// PrincipalFrom returns the caller identity placed on the context by SessionAuth
func PrincipalFrom(c *gin.Context) appAuth.Principal {
	return appAuth.Principal{
		UserID:     c.GetInt64(ContextUserID),
		UserRef:    c.GetString(ContextUserRef),
		Role:       models.RoleType(c.GetString(ContextRoleType)),
		StudentRef: c.GetString(ContextStudentRef),
	}
}

// StartSession stores a freshly issued token in the session cookie
func StartSession(c *gin.Context, token string) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(SessionTokenKey, token)
	return session.Save()
}

// ClearSession removes the session cookie
func ClearSession(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = session.Save()
}
