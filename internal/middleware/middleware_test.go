package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT(exp time.Duration) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret-key-with-enough-bytes",
		AccessTokenExp: exp,
		TokenIssuer:    "schooladmin-test",
	})
}

// accountsStub serves accounts by id the way AuthService.CurrentUser does
type accountsStub struct {
	users map[int64]*models.User
}

func (a accountsStub) CurrentUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := a.users[id]
	if !ok {
		return nil, apperrors.ErrTokenInvalid
	}
	if !u.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	cp := *u
	return &cp, nil
}

// newSessionRouter exposes /login that signs the given user in and
// /protected behind SessionAuth and the role gate.
func newSessionRouter(t *testing.T, jwt *auth.JWTService, user *models.User, roles ...string) *gin.Engine {
	t.Helper()
	return newSessionRouterWith(t, jwt, user, accountsStub{users: map[int64]*models.User{user.ID: user}}, roles...)
}

func newSessionRouterWith(t *testing.T, jwt *auth.JWTService, user *models.User, accounts AccountLoader, roles ...string) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))

	r.POST("/login", func(c *gin.Context) {
		token, _, err := jwt.GenerateToken(user)
		require.NoError(t, err)
		require.NoError(t, StartSession(c, token))
		c.Status(http.StatusNoContent)
	})

	m := NewAuthMiddleware(jwt, accounts, zerolog.Nop())
	protected := r.Group("/", m.SessionAuth())
	if len(roles) > 0 {
		protected.Use(m.RoleRequired(roles...))
	}
	protected.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, PrincipalFrom(c))
	})
	return r
}

func login(t *testing.T, r *gin.Engine) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func get(r *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.ErrorCode
}

func parentUser() *models.User {
	ref := "S1"
	return &models.User{ID: 7, UserID: "p1", Role: models.RoleParent, StudentRef: &ref, IsActive: true}
}

func TestSessionAuth(t *testing.T) {
	r := newSessionRouter(t, newJWT(time.Hour), parentUser())

	t.Run("no session", func(t *testing.T) {
		w := get(r, "/protected", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeUnauthorized, errorCode(t, w))
	})

	t.Run("valid session", func(t *testing.T) {
		w := get(r, "/protected", login(t, r))
		require.Equal(t, http.StatusOK, w.Code)

		var p struct {
			UserID     int64
			UserRef    string
			Role       string
			StudentRef string
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, int64(7), p.UserID)
		assert.Equal(t, "p1", p.UserRef)
		assert.Equal(t, "parent", p.Role)
		assert.Equal(t, "S1", p.StudentRef)
	})

	t.Run("cookie signed by another token key", func(t *testing.T) {
		other := newSessionRouter(t, auth.NewJWTService(auth.JWTConfig{
			SecretKey: "a-different-secret-key-for-tokens", AccessTokenExp: time.Hour, TokenIssuer: "schooladmin-test",
		}), parentUser())
		w := get(r, "/protected", login(t, other))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeInvalidToken, errorCode(t, w))
	})
}

func TestSessionAuthExpired(t *testing.T) {
	r := newSessionRouter(t, newJWT(-time.Minute), parentUser())

	w := get(r, "/protected", login(t, r))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeSessionExpired, errorCode(t, w))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0", "expired session is cleared")
}

func TestSessionAuthReloadsAccount(t *testing.T) {
	jwt := newJWT(time.Hour)

	t.Run("role change applies to an open session", func(t *testing.T) {
		user := parentUser()
		r := newSessionRouter(t, jwt, user, models.Roles(models.RoleParent)...)
		cookies := login(t, r)
		require.Equal(t, http.StatusOK, get(r, "/protected", cookies).Code)

		user.Role = models.RoleStaff
		w := get(r, "/protected", cookies)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrorCodeForbidden, errorCode(t, w))
	})

	t.Run("deactivated account", func(t *testing.T) {
		user := parentUser()
		r := newSessionRouter(t, jwt, user)
		cookies := login(t, r)

		user.IsActive = false
		w := get(r, "/protected", cookies)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrorCodeAccountDisabled, errorCode(t, w))
		assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
	})

	t.Run("deleted account", func(t *testing.T) {
		accounts := accountsStub{users: map[int64]*models.User{}}
		r := newSessionRouterWith(t, jwt, parentUser(), accounts)

		w := get(r, "/protected", login(t, r))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeInvalidToken, errorCode(t, w))
	})
}

func TestRoleRequired(t *testing.T) {
	jwt := newJWT(time.Hour)

	denied := newSessionRouter(t, jwt, parentUser(), models.Roles(models.RoleAdmin, models.RoleSuperAdmin)...)
	w := get(denied, "/protected", login(t, denied))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeForbidden, errorCode(t, w))

	allowed := newSessionRouter(t, jwt, parentUser(), models.Roles(models.RoleStudent, models.RoleParent)...)
	w = get(allowed, "/protected", login(t, allowed))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
		wantMsg    string
	}{
		{name: "student not found", err: apperrors.ErrStudentNotFound, wantStatus: 404, wantCode: dto.ErrorCodeResourceNotFound, wantMsg: "student not found"},
		{name: "custom not found", err: apperrors.NewResourceNotFoundError("admin not found"), wantStatus: 404, wantCode: dto.ErrorCodeResourceNotFound, wantMsg: "admin not found"},
		{name: "duplicate student id", err: apperrors.ErrStudentIDAlreadyExists, wantStatus: 409, wantCode: dto.ErrorCodeResourceAlreadyExists},
		{name: "roll number taken", err: apperrors.ErrRollNumberTaken, wantStatus: 409, wantCode: dto.ErrorCodeConflict},
		{name: "fee structure exists", err: apperrors.ErrFeeStructureExists, wantStatus: 409, wantCode: dto.ErrorCodeConflict},
		{name: "wrapped validation", err: fmt.Errorf("%w: amount must be greater than 0", apperrors.ErrValidationFailed), wantStatus: 400, wantCode: dto.ErrorCodeValidationFailed, wantMsg: "validation failed: amount must be greater than 0"},
		{name: "unknown subject", err: fmt.Errorf("%w: Art", apperrors.ErrUnknownSubject), wantStatus: 400, wantCode: dto.ErrorCodeValidationFailed},
		{name: "otp", err: apperrors.ErrOTPInvalid, wantStatus: 400, wantCode: dto.ErrorCodeOTPInvalid},
		{name: "credentials", err: apperrors.ErrInvalidCredentials, wantStatus: 401, wantCode: dto.ErrorCodeInvalidCredentials},
		{name: "expired", err: apperrors.ErrTokenExpired, wantStatus: 401, wantCode: dto.ErrorCodeSessionExpired},
		{name: "disabled", err: apperrors.ErrAccountDisabled, wantStatus: 403, wantCode: dto.ErrorCodeAccountDisabled},
		{name: "forbidden", err: apperrors.NewForbiddenError("you can only access your own student record"), wantStatus: 403, wantCode: dto.ErrorCodeForbidden, wantMsg: "you can only access your own student record"},
		{name: "not published", err: apperrors.ErrResultsNotPublished, wantStatus: 403, wantCode: dto.ErrorCodeForbidden},
		{name: "unknown", err: errors.New("connection reset"), wantStatus: 500, wantCode: dto.ErrorCodeInternalServer, wantMsg: "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.ErrorCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Message)
			}
		})
	}
}

func TestBindJSON(t *testing.T) {
	r := gin.New()
	r.POST("/login", func(c *gin.Context) {
		var req dto.LoginRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"userId":"S1"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, errorCode(t, w))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"userId":"S1","password":"secret123"}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestLoggerAndMetrics(t *testing.T) {
	var buf strings.Builder
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)), metrics.Handler())
	r.GET("/students/:studentId", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/students/S1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	get(r, "/nope", nil)

	assert.Contains(t, buf.String(), `"path":"/students/S1"`)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/students/:studentId", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "unmatched", "404")))
}
