package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	appServices "github.com/yigit/schooladmin/internal/app/services"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
)

// SuperAdmin is the account created on first boot
type SuperAdmin struct {
	UserID   string
	Password string
	Email    string
}

// UserLookup finds an existing account by login name
type UserLookup interface {
	GetByUserID(ctx context.Context, userID string) (*appModels.User, error)
}

// CreateDefaultData creates the configured super-admin if it does not exist
// yet. Running it on every boot is safe.
func CreateDefaultData(ctx context.Context, users UserLookup, admins appServices.AdminService, account SuperAdmin, lgr zerolog.Logger) error {
	if account.UserID == "" {
		lgr.Debug().Msg("No super-admin configured, skipping seed")
		return nil
	}

	lgr.Info().Str("userId", account.UserID).Msg("Checking/Creating default super-admin...")

	existing, err := users.GetByUserID(ctx, account.UserID)
	switch {
	case err == nil:
		if existing.Role != appModels.RoleSuperAdmin {
			lgr.Warn().Str("userId", account.UserID).Str("role", string(existing.Role)).
				Msg("Configured super-admin login exists with another role; leaving it unchanged")
		}
		return nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return fmt.Errorf("failed to look up super-admin: %w", err)
	}

	if account.Password == "" {
		lgr.Warn().Str("userId", account.UserID).
			Msg("SEED_SUPER_ADMIN_PASSWORD not set - super-admin not created")
		return nil
	}

	admin, err := admins.Create(ctx, &dto.AdminRequest{
		UserID:      account.UserID,
		Password:    account.Password,
		Name:        "Super Admin",
		Email:       account.Email,
		Designation: "Administrator",
		SuperAdmin:  true,
	})
	if err != nil {
		// Another instance may have seeded concurrently
		if apperrors.Is(err, apperrors.ErrUserIDExists, apperrors.ErrEmailAlreadyUsed) {
			return nil
		}
		return fmt.Errorf("failed to create super-admin: %w", err)
	}

	lgr.Info().Str("userId", account.UserID).Int64("adminId", admin.ID).Msg("Default super-admin created")
	return nil
}
