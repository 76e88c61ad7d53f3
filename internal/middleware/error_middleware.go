package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/logger"
)

// HandleAPIError maps service errors to a status code and error envelope
func HandleAPIError(c *gin.Context, err error) {
	status, code, message := classifyError(err)

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
	}

	c.JSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, message)))
}

func classifyError(err error) (int, dto.ErrorCode, string) {
	switch {
	case apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrUserNotFound, apperrors.ErrStudentNotFound,
		apperrors.ErrFeeStructureNotFound, apperrors.ErrExaminationNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, messageOf(err)

	case apperrors.Is(err, apperrors.ErrResourceAlreadyExists,
		apperrors.ErrStudentIDAlreadyExists, apperrors.ErrUserIDExists,
		apperrors.ErrEmailAlreadyUsed, apperrors.ErrReceiptIDExists):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, messageOf(err)

	case apperrors.Is(err, apperrors.ErrConflict,
		apperrors.ErrRollNumberTaken, apperrors.ErrFeeStructureExists):
		return http.StatusConflict, dto.ErrorCodeConflict, messageOf(err)

	case apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrUnknownSubject):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed, messageOf(err)

	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.ErrorCodeBadRequest, messageOf(err)

	case errors.Is(err, apperrors.ErrInvalidPassword):
		return http.StatusBadRequest, dto.ErrorCodeInvalidPassword, messageOf(err)

	case errors.Is(err, apperrors.ErrOTPInvalid):
		return http.StatusBadRequest, dto.ErrorCodeOTPInvalid, "Invalid or expired OTP"

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"

	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.ErrorCodeSessionExpired, "Session expired, please sign in again"

	case apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrSessionNotFound):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid session"

	case errors.Is(err, apperrors.ErrAccountDisabled):
		return http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account is disabled"

	case errors.Is(err, apperrors.ErrResultsNotPublished):
		return http.StatusForbidden, dto.ErrorCodeForbidden, "Results are not published yet"

	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden, messageOf(err)

	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"
	}
}

// messageOf prefers the message of a CustomError anywhere in the chain.
func messageOf(err error) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	return err.Error()
}
