// Package controllers handles HTTP request handling
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/app/services"
	"github.com/yigit/schooladmin/internal/middleware"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
)

// AuthController handles sign-in, the session check and password recovery
type AuthController struct {
	authService services.AuthService
	otpService  services.OTPService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, otpService services.OTPService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		otpService:  otpService,
		logger:      logger,
	}
}

// Login handles user login
// @Summary User login
// @Description Checks the credentials and stores a session token in the HttpOnly session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.SessionResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account disabled"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.authService.Login(ctx.Request.Context(), req.UserID, req.Password)
	if err != nil {
		c.logger.Info().Err(err).Str("userId", req.UserID).Msg("Login rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := middleware.StartSession(ctx, session.Token); err != nil {
		c.logger.Error().Err(err).Int64("userID", session.User.ID).Msg("Failed to save session")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SessionResponse{
		User:      dto.NewSessionUser(session.User),
		ExpiresAt: session.ExpiresAt,
	}))
}

// Logout handles user logout
// @Summary Logout
// @Description Clears the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Logged out"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	middleware.ClearSession(ctx)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Logged out"}))
}

// Check returns the signed-in user
// @Summary Check session
// @Description Returns the user behind the current session. The frontend route guard calls this on navigation.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SessionUser} "Session is valid"
// @Failure 401 {object} dto.ErrorResponse "No session, session expired (SESSION_EXPIRED) or invalid"
// @Failure 403 {object} dto.ErrorResponse "Account disabled"
// @Router /auth/check [get]
func (c *AuthController) Check(ctx *gin.Context) {
	p := middleware.PrincipalFrom(ctx)

	user, err := c.authService.CurrentUser(ctx.Request.Context(), p.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrAccountDisabled) {
			middleware.ClearSession(ctx)
		}
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewSessionUser(user)))
}

// RequestOTP issues a password reset code
// @Summary Request an OTP
// @Description Sends a one-time code to the account's email. The response is the same whether or not the account exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.OTPRequest true "User ID or email"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Request accepted"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/otp/request [post]
func (c *AuthController) RequestOTP(ctx *gin.Context) {
	var req dto.OTPRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.otpService.Request(ctx.Request.Context(), req.Identifier); err != nil {
		c.logger.Error().Err(err).Msg("Failed to issue OTP")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{
		Message: "If the account exists, a verification code has been sent",
	}))
}

// VerifyOTP checks a code without consuming it
// @Summary Verify an OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.OTPVerifyRequest true "Identifier and code"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Code is valid"
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired code (OTP_INVALID)"
// @Router /auth/otp/verify [post]
func (c *AuthController) VerifyOTP(ctx *gin.Context) {
	var req dto.OTPVerifyRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.otpService.Verify(ctx.Request.Context(), req.Identifier, req.Code); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Code verified"}))
}

// ResetPassword sets a new password using a valid OTP
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Identifier, code and new password"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Password changed"
// @Failure 400 {object} dto.ErrorResponse "Invalid code or weak password"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/reset-password [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	err := c.otpService.ResetPassword(ctx.Request.Context(), req.Identifier, req.Code, req.NewPassword)
	if err != nil {
		if !errors.Is(err, apperrors.ErrOTPInvalid) {
			c.logger.Error().Err(err).Msg("Password reset failed")
		}
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Password changed"}))
}
