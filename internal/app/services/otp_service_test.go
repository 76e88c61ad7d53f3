package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/auth"
)

func newTestOTPService(w *world, mailer *fakeMailer, now time.Time) *otpService {
	svc := NewOTPService(w.users, w.otps, mailer, 5*time.Minute, 6, zerolog.Nop()).(*otpService)
	svc.now = fixedClock(now)
	return svc
}

func TestOTPRequestUnknownIdentifierIsSilent(t *testing.T) {
	w := newWorld()
	mailer := &fakeMailer{}
	svc := newTestOTPService(w, mailer, time.Now())

	require.NoError(t, svc.Request(context.Background(), "nobody@example.com"))
	assert.Empty(t, w.otps.rows)
	assert.Empty(t, mailer.otps)
}

func TestOTPLifecycle(t *testing.T) {
	w := newWorld()
	seedUser(t, w, "STU-1", "old-password", models.RoleStudent, func(u *models.User) {
		u.Email = strPtr("ravi@example.com")
	})
	mailer := &fakeMailer{}
	issued := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestOTPService(w, mailer, issued)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "RAVI@example.com"))
	require.Len(t, mailer.otps, 1)
	code := mailer.otps[0].Code
	assert.Len(t, code, 6)

	stored, err := w.otps.Get(ctx, "STU-1", models.OTPPurposePasswordReset)
	require.NoError(t, err)
	assert.NotEqual(t, code, stored.CodeHash, "code is hashed at rest")
	assert.Equal(t, issued.Add(5*time.Minute), stored.ExpiresAt)

	assert.NoError(t, svc.Verify(ctx, "STU-1", code))
	assert.ErrorIs(t, svc.Verify(ctx, "STU-1", "000000x"), apperrors.ErrOTPInvalid)

	t.Run("expired after five minutes", func(t *testing.T) {
		svc.now = fixedClock(issued.Add(5 * time.Minute))
		assert.ErrorIs(t, svc.Verify(ctx, "STU-1", code), apperrors.ErrOTPInvalid)
		svc.now = fixedClock(issued.Add(4 * time.Minute))
	})

	t.Run("short password rejected", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "STU-1", code, "short")
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	require.NoError(t, svc.ResetPassword(ctx, "STU-1", code, "brand-new-pass"))
	u, err := w.users.GetByUserID(ctx, "STU-1")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(u.Password, "brand-new-pass"))
	assert.Equal(t, []string{"ravi@example.com"}, mailer.changed)

	// Consumed
	assert.ErrorIs(t, svc.ResetPassword(ctx, "STU-1", code, "another-pass"), apperrors.ErrOTPInvalid)
}

func TestOTPRequestReplacesPendingCode(t *testing.T) {
	w := newWorld()
	seedUser(t, w, "T-9", "password1", models.RoleTeacher, func(u *models.User) { u.Email = strPtr("t9@example.com") })
	mailer := &fakeMailer{}
	issued := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestOTPService(w, mailer, issued)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "T-9"))
	svc.now = fixedClock(issued.Add(OTPResendInterval))
	require.NoError(t, svc.Request(ctx, "T-9"))
	require.Len(t, mailer.otps, 2)
	assert.Len(t, w.otps.rows, 1)

	if mailer.otps[0].Code != mailer.otps[1].Code {
		assert.ErrorIs(t, svc.Verify(ctx, "T-9", mailer.otps[0].Code), apperrors.ErrOTPInvalid)
	}
	assert.NoError(t, svc.Verify(ctx, "T-9", mailer.otps[1].Code))
}

func TestOTPWithoutEmailIsNotMailed(t *testing.T) {
	w := newWorld()
	seedUser(t, w, "P-1", "password1", models.RoleParent, func(u *models.User) { u.StudentRef = strPtr("S1") })
	mailer := &fakeMailer{}
	svc := newTestOTPService(w, mailer, time.Now())

	require.NoError(t, svc.Request(context.Background(), "P-1"))
	assert.Empty(t, mailer.otps)
	assert.Len(t, w.otps.rows, 1)
}

func TestOTPRequestTooSoonKeepsPendingCode(t *testing.T) {
	w := newWorld()
	seedUser(t, w, "T-3", "password1", models.RoleTeacher, func(u *models.User) { u.Email = strPtr("t3@example.com") })
	mailer := &fakeMailer{}
	issued := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestOTPService(w, mailer, issued)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "T-3"))
	svc.now = fixedClock(issued.Add(30 * time.Second))
	require.NoError(t, svc.Request(ctx, "T-3"))

	require.Len(t, mailer.otps, 1)
	assert.NoError(t, svc.Verify(ctx, "T-3", mailer.otps[0].Code))
}

func TestOTPLocksAfterFailedAttempts(t *testing.T) {
	w := newWorld()
	seedUser(t, w, "STU-7", "old-password", models.RoleStudent, func(u *models.User) { u.Email = strPtr("s7@example.com") })
	mailer := &fakeMailer{}
	issued := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestOTPService(w, mailer, issued)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "STU-7"))
	code := mailer.otps[0].Code
	wrong := "x" + code

	for i := 0; i < MaxOTPAttempts; i++ {
		assert.ErrorIs(t, svc.Verify(ctx, "STU-7", wrong), apperrors.ErrOTPInvalid)
	}
	stored, err := w.otps.Get(ctx, "STU-7", models.OTPPurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, MaxOTPAttempts, stored.Attempts)

	assert.ErrorIs(t, svc.Verify(ctx, "STU-7", code), apperrors.ErrOTPInvalid, "the right code no longer works")
	assert.ErrorIs(t, svc.ResetPassword(ctx, "STU-7", code, "brand-new-pass"), apperrors.ErrOTPInvalid)

	svc.now = fixedClock(issued.Add(2 * time.Minute))
	require.NoError(t, svc.Request(ctx, "STU-7"))
	assert.Len(t, mailer.otps, 1, "no new code while locked")

	svc.now = fixedClock(issued.Add(5 * time.Minute))
	require.NoError(t, svc.Request(ctx, "STU-7"))
	require.Len(t, mailer.otps, 2, "a new code once the locked one expires")
	stored, err = w.otps.Get(ctx, "STU-7", models.OTPPurposePasswordReset)
	require.NoError(t, err)
	assert.Zero(t, stored.Attempts)
	assert.NoError(t, svc.Verify(ctx, "STU-7", mailer.otps[1].Code))
}

func TestOTPReissueKeepsFailureCount(t *testing.T) {
	w := newWorld()
	seedUser(t, w, "STU-8", "old-password", models.RoleStudent, func(u *models.User) { u.Email = strPtr("s8@example.com") })
	mailer := &fakeMailer{}
	issued := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestOTPService(w, mailer, issued)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "STU-8"))
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, svc.Verify(ctx, "STU-8", "x"), apperrors.ErrOTPInvalid)
	}

	svc.now = fixedClock(issued.Add(OTPResendInterval))
	require.NoError(t, svc.Request(ctx, "STU-8"))
	stored, err := w.otps.Get(ctx, "STU-8", models.OTPPurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Attempts)
}
