package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/repositories"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/auth"
	"github.com/yigit/schooladmin/internal/pkg/email"
)

// DefaultOTPTTL is how long an issued code stays valid
const DefaultOTPTTL = 5 * time.Minute

// MaxOTPAttempts is how many wrong codes a pending OTP absorbs. After that
// the code is dead until it expires, and no new one is issued before then.
const MaxOTPAttempts = 5

// OTPResendInterval is the minimum gap between two issued codes
const OTPResendInterval = time.Minute

// MinPasswordLength applies to every password set through the API
const MinPasswordLength = 8

// OTPService issues and checks one-time codes for password reset
type OTPService interface {
	Request(ctx context.Context, identifier string) error
	Verify(ctx context.Context, identifier, code string) error
	ResetPassword(ctx context.Context, identifier, code, newPassword string) error
}

type otpService struct {
	users      UserStore
	store      repositories.OTPStore
	mailer     email.EmailService
	ttl        time.Duration
	codeLength int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewOTPService creates a new OTPService. A zero ttl falls back to
// DefaultOTPTTL.
func NewOTPService(users UserStore, store repositories.OTPStore, mailer email.EmailService, ttl time.Duration, codeLength int, logger zerolog.Logger) OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &otpService{
		users:      users,
		store:      store,
		mailer:     mailer,
		ttl:        ttl,
		codeLength: codeLength,
		logger:     logger,
		now:        time.Now,
	}
}

// Request issues a new code unless a recent or locked one is still pending. It reports success
// for unknown identifiers too so accounts cannot be enumerated.
func (s *otpService) Request(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return fmt.Errorf("%w: identifier is required", apperrors.ErrValidationFailed)
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Info().Str("identifier", identifier).Msg("OTP requested for unknown identifier")
			return nil
		}
		return fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive {
		s.logger.Info().Str("userID", user.UserID).Msg("OTP requested for disabled account")
		return nil
	}

	now := s.now().UTC()
	attempts := 0
	pending, err := s.store.Get(ctx, user.UserID, models.OTPPurposePasswordReset)
	switch {
	case err == nil && !pending.Expired(now):
		if pending.Attempts >= MaxOTPAttempts {
			s.logger.Warn().Str("userID", user.UserID).Msg("OTP locked after failed attempts, not reissued")
			return nil
		}
		if now.Sub(pending.CreatedAt) < OTPResendInterval {
			s.logger.Info().Str("userID", user.UserID).Msg("OTP requested again too soon, pending code kept")
			return nil
		}
		// A fresh code does not reset the failure budget
		attempts = pending.Attempts
	case err != nil && !errors.Is(err, apperrors.ErrResourceNotFound):
		return err
	}

	code, err := email.GenerateOTPCode(s.codeLength)
	if err != nil {
		return err
	}
	hash, err := auth.HashCode(code)
	if err != nil {
		return fmt.Errorf("error hashing otp: %w", err)
	}

	otp := &models.OTP{
		Identifier: user.UserID,
		CodeHash:   hash,
		Purpose:    models.OTPPurposePasswordReset,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
		Attempts:   attempts,
	}
	if err := s.store.Save(ctx, otp); err != nil {
		return err
	}

	var to string
	if user.Email != nil {
		to = *user.Email
	}
	if to == "" {
		s.logger.Warn().
			Str("userID", user.UserID).
			Str("code", code).
			Msg("No email on file, OTP not delivered")
		return nil
	}
	if err := s.mailer.SendOTPEmail(to, user.DisplayName, code, s.ttl); err != nil {
		// The code stays valid; the user can ask again.
		s.logger.Error().Err(err).Str("userID", user.UserID).Msg("Failed to deliver OTP")
	}
	return nil
}

// check resolves the identifier and compares code with the pending hash
func (s *otpService) check(ctx context.Context, identifier, code string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || code == "" {
		return nil, apperrors.ErrOTPInvalid
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrOTPInvalid
		}
		return nil, err
	}

	otp, err := s.store.Get(ctx, user.UserID, models.OTPPurposePasswordReset)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrOTPInvalid
		}
		return nil, err
	}
	if otp.Expired(s.now()) || otp.Attempts >= MaxOTPAttempts {
		return nil, apperrors.ErrOTPInvalid
	}
	if !auth.CheckPassword(otp.CodeHash, code) {
		attempts, err := s.store.IncrementAttempts(ctx, user.UserID, models.OTPPurposePasswordReset)
		if err != nil && !errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		if attempts >= MaxOTPAttempts {
			s.logger.Warn().Str("userID", user.UserID).Int("attempts", attempts).Msg("OTP locked after failed attempts")
		}
		return nil, apperrors.ErrOTPInvalid
	}
	return user, nil
}

// Verify checks a code without consuming it
func (s *otpService) Verify(ctx context.Context, identifier, code string) error {
	_, err := s.check(ctx, identifier, code)
	return err
}

// ResetPassword consumes a valid code and sets the new password
func (s *otpService) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidationFailed, MinPasswordLength)
	}

	user, err := s.check(ctx, identifier, code)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, user.UserID, models.OTPPurposePasswordReset); err != nil {
		s.logger.Warn().Err(err).Str("userID", user.UserID).Msg("Failed to delete consumed OTP")
	}

	if user.Email != nil && *user.Email != "" {
		if err := s.mailer.SendPasswordChangedEmail(*user.Email, user.DisplayName); err != nil {
			s.logger.Warn().Err(err).Str("userID", user.UserID).Msg("Failed to send password change notice")
		}
	}
	return nil
}
